package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/prevtech/internal/models"
)

// TaskFilter narrows ListTasks; zero values match everything
type TaskFilter struct {
	Search string
	Status models.Status
	Tag    string
	// HideDone excludes finished tasks unless Status asks for them
	HideDone bool
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

const taskColumns = `t.id, t.title, t.description, t.status, t.priority, t.assignee,
	t.due_date, t.template_id, t.linked_publication_ref, t.linked_process_ref,
	t.created_at, t.updated_at`

// CreateTask inserts a task with its subtasks and tags
func (db *DB) CreateTask(t *models.Task) error {
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	return db.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO tasks (id, title, description, status, priority, assignee, due_date,
				template_id, linked_publication_ref, linked_process_ref, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, t.Title, t.Description, t.Status, t.Priority, t.Assignee, dateValue(t.DueDate),
			t.TemplateID, t.LinkedPublicationRef, t.LinkedProcessRef, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return err
		}
		if err := writeSubtasks(tx, t); err != nil {
			return err
		}
		return writeTags(tx, t.ID, t.Tags)
	})
}

// GetTask retrieves a task by ID with its subtasks and tags
func (db *DB) GetTask(id string) (*models.Task, error) {
	row := db.QueryRow(`SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, notFound(err)
	}
	if err := db.loadChildren(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ListTasks returns tasks ordered by priority (desc), then due date, then
// creation time (desc)
func (db *DB) ListTasks(f TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t`
	var args []any

	if f.Tag != "" {
		query += " JOIN task_tags tt ON t.id = tt.task_id"
	}

	query += " WHERE 1 = 1"

	if f.Search != "" {
		query += ` AND (t.title LIKE ? ESCAPE '\' OR t.description LIKE ? ESCAPE '\' OR t.assignee LIKE ? ESCAPE '\')`
		pattern := "%" + likeEscaper.Replace(f.Search) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if f.Tag != "" {
		query += " AND tt.tag = ?"
		args = append(args, f.Tag)
	}

	if f.Status != "" {
		query += " AND t.status = ?"
		args = append(args, f.Status)
	} else if f.HideDone {
		query += " AND t.status <> ?"
		args = append(args, models.StatusDone)
	}

	query += ` ORDER BY CASE t.priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC,
		t.due_date IS NULL, t.due_date ASC, t.created_at DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load subtasks and tags for each task
	for i := range tasks {
		if err := db.loadChildren(&tasks[i]); err != nil {
			return nil, err
		}
	}

	return tasks, nil
}

// UpdateTask rewrites a task's fields, subtasks and tags
func (db *DB) UpdateTask(t *models.Task) error {
	t.UpdatedAt = time.Now().UTC()

	return db.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`
			UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assignee = ?,
				due_date = ?, template_id = ?, linked_publication_ref = ?, linked_process_ref = ?,
				updated_at = ?
			WHERE id = ?
		`, t.Title, t.Description, t.Status, t.Priority, t.Assignee, dateValue(t.DueDate),
			t.TemplateID, t.LinkedPublicationRef, t.LinkedProcessRef, t.UpdatedAt, t.ID)
		if err != nil {
			return err
		}
		if err := mustAffect(res); err != nil {
			return err
		}
		if _, err := tx.Exec("DELETE FROM subtasks WHERE task_id = ?", t.ID); err != nil {
			return err
		}
		if err := writeSubtasks(tx, t); err != nil {
			return err
		}
		return writeTags(tx, t.ID, t.Tags)
	})
}

// SetTaskStatus updates only the status column
func (db *DB) SetTaskStatus(id string, status models.Status) error {
	res, err := db.Exec(`
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// SetSubtaskCompleted marks one subtask as completed or pending
func (db *DB) SetSubtaskCompleted(taskID, subtaskID string, completed bool) error {
	res, err := db.Exec(`
		UPDATE subtasks SET completed = ? WHERE task_id = ? AND id = ?
	`, completed, taskID, subtaskID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// DeleteTask deletes a task together with its subtasks and tags
func (db *DB) DeleteTask(id string) error {
	res, err := db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// TaskCount returns the number of tasks per status
func (db *DB) TaskCount() (map[models.Status]int, error) {
	rows, err := db.Query("SELECT status, COUNT(*) FROM tasks GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[models.Status]int{}
	for rows.Next() {
		var s models.Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

// GetSubtasks returns the subtasks of a task in list order
func (db *DB) GetSubtasks(taskID string) ([]models.Subtask, error) {
	rows, err := db.Query(`
		SELECT id, title, description, assignee, due_offset, required, sort_order, due_date, completed
		FROM subtasks
		WHERE task_id = ?
		ORDER BY position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subtasks []models.Subtask
	for rows.Next() {
		var st models.Subtask
		var due sql.NullString
		if err := rows.Scan(&st.ID, &st.Title, &st.Description, &st.Assignee, &st.DueOffset,
			&st.Required, &st.Order, &due, &st.Completed); err != nil {
			return nil, err
		}
		if st.DueDate, err = parseDateValue(due); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, rows.Err()
}

func (db *DB) loadChildren(t *models.Task) error {
	subtasks, err := db.GetSubtasks(t.ID)
	if err != nil {
		return err
	}
	t.Subtasks = subtasks

	tags, err := db.GetTaskTags(t.ID)
	if err != nil {
		return err
	}
	t.Tags = tags
	return nil
}

func writeSubtasks(tx execer, t *models.Task) error {
	for i, st := range t.Subtasks {
		_, err := tx.Exec(`
			INSERT INTO subtasks (task_id, id, position, title, description, assignee,
				due_offset, required, sort_order, due_date, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, st.ID, i, st.Title, st.Description, st.Assignee,
			st.DueOffset, st.Required, st.Order, dateValue(st.DueDate), st.Completed)
		if err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*models.Task, error) {
	t := &models.Task{}
	var due sql.NullString
	var status string
	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &t.Priority, &t.Assignee,
		&due, &t.TemplateID, &t.LinkedPublicationRef, &t.LinkedProcessRef,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if t.Status, err = models.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("task %s: %w", t.ID, err)
	}
	if t.DueDate, err = parseDateValue(due); err != nil {
		return nil, err
	}
	return t, nil
}

// likeEscaper makes LIKE wildcards in user input match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func dateValue(d *time.Time) any {
	if d == nil {
		return nil
	}
	return models.FormatDate(d)
}

func parseDateValue(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	return models.ParseDate(v.String)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
