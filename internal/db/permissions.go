package db

import (
	"database/sql"
	"time"

	"github.com/tgienger/prevtech/internal/models"
	"github.com/tgienger/prevtech/internal/permissions"
)

// LoadPermissions overlays the stored grid onto base. Cells never saved
// keep base's value.
func (db *DB) LoadPermissions(base *permissions.Matrix) (*permissions.Matrix, error) {
	m := base.Clone()

	rows, err := db.Query("SELECT resource, profile, action, allowed FROM permissions")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var resource, profile, action string
		var allowed bool
		if err := rows.Scan(&resource, &profile, &action, &allowed); err != nil {
			return nil, err
		}
		m.Set(resource, profile, permissions.Action(action), allowed)
	}
	return m, rows.Err()
}

// SavePermissions stores the whole grid and appends changes to the audit
// log in one transaction
func (db *DB) SavePermissions(m *permissions.Matrix, changes []models.PermissionChange) error {
	now := time.Now().UTC()

	return db.withTx(func(tx *sql.Tx) error {
		var err error
		m.Each(func(resource, profile string, action permissions.Action, v bool) {
			if err != nil {
				return
			}
			_, err = tx.Exec(`
				INSERT INTO permissions (resource, profile, action, allowed) VALUES (?, ?, ?, ?)
				ON CONFLICT(resource, profile, action) DO UPDATE SET allowed = excluded.allowed
			`, resource, profile, string(action), v)
		})
		if err != nil {
			return err
		}

		for _, c := range changes {
			_, err := tx.Exec(`
				INSERT INTO permission_changes (profile, resource, permission, old_value, new_value, changed_at)
				VALUES (?, ?, ?, ?, ?, ?)
			`, c.Profile, c.Resource, c.Permission, c.OldValue, c.NewValue, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListPermissionChanges returns the most recent audit records first
func (db *DB) ListPermissionChanges(limit int) ([]models.PermissionChange, error) {
	rows, err := db.Query(`
		SELECT id, profile, resource, permission, old_value, new_value, changed_at
		FROM permission_changes
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []models.PermissionChange
	for rows.Next() {
		var c models.PermissionChange
		if err := rows.Scan(&c.ID, &c.Profile, &c.Resource, &c.Permission, &c.OldValue, &c.NewValue, &c.ChangedAt); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
