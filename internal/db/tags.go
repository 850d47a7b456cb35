package db

import (
	"fmt"

	"github.com/tgienger/prevtech/internal/models"
)

// GetTaskTags returns the tags of a task in vocabulary order
func (db *DB) GetTaskTags(taskID string) ([]string, error) {
	rows, err := db.Query("SELECT tag FROM task_tags WHERE task_id = ?", taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	have := map[string]bool{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		have[tag] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var tags []string
	for _, tag := range models.FixedTags {
		if have[tag] {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// TagCounts returns how many tasks carry each tag of the vocabulary
func (db *DB) TagCounts() (map[string]int, error) {
	rows, err := db.Query("SELECT tag, COUNT(*) FROM task_tags GROUP BY tag")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int, len(models.FixedTags))
	for _, tag := range models.FixedTags {
		counts[tag] = 0
	}
	for rows.Next() {
		var tag string
		var n int
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, err
		}
		counts[tag] = n
	}
	return counts, rows.Err()
}

// writeTags replaces the tags of a task, refusing labels outside the
// fixed vocabulary
func writeTags(tx execer, taskID string, tags []string) error {
	if _, err := tx.Exec("DELETE FROM task_tags WHERE task_id = ?", taskID); err != nil {
		return err
	}
	for _, tag := range tags {
		if !models.IsFixedTag(tag) {
			return fmt.Errorf("unknown tag %q", tag)
		}
		if _, err := tx.Exec(`
			INSERT OR IGNORE INTO task_tags (task_id, tag) VALUES (?, ?)
		`, taskID, tag); err != nil {
			return err
		}
	}
	return nil
}
