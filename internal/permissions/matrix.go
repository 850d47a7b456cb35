// Package permissions models the resource by profile CRUD grid used for
// role based access configuration.
package permissions

import "github.com/tgienger/prevtech/internal/models"

// Action is one CRUD permission
type Action string

const (
	Create Action = "Create"
	Read   Action = "Read"
	Update Action = "Update"
	Delete Action = "Delete"
)

// Actions is the canonical column order
var Actions = []Action{Create, Read, Update, Delete}

// LockedResource never grants Delete to any profile
const LockedResource = "Contatos"

// Short returns the one letter column header
func (a Action) Short() string {
	if a == "" {
		return ""
	}
	return string(a[0])
}

// ParseAction accepts full names or single letters
func ParseAction(v string) (Action, bool) {
	for _, a := range Actions {
		if v == string(a) || v == a.Short() {
			return a, true
		}
	}
	return "", false
}

// Locked reports whether the cell is fixed to false for every profile
func Locked(resource string, action Action) bool {
	return resource == LockedResource && action == Delete
}

type cell struct {
	resource string
	profile  string
	action   Action
}

// Matrix is the permission grid. Resources and Profiles fix the row and
// column order used for rendering and diffing.
type Matrix struct {
	Resources []string
	Profiles  []string
	cells     map[cell]bool
}

// NewMatrix returns an all-false grid
func NewMatrix(resources, profiles []string) *Matrix {
	return &Matrix{
		Resources: append([]string(nil), resources...),
		Profiles:  append([]string(nil), profiles...),
		cells:     map[cell]bool{},
	}
}

// Has reports whether resource and profile are part of the grid
func (m *Matrix) Has(resource, profile string) bool {
	return contains(m.Resources, resource) && contains(m.Profiles, profile)
}

// Get returns the value of a cell
func (m *Matrix) Get(resource, profile string, action Action) bool {
	return m.cells[cell{resource, profile, action}]
}

// Set assigns a cell and reports whether it was accepted. Locked cells
// and unknown coordinates are refused.
func (m *Matrix) Set(resource, profile string, action Action, v bool) bool {
	if Locked(resource, action) || !m.Has(resource, profile) || !validAction(action) {
		return false
	}
	m.cells[cell{resource, profile, action}] = v
	return true
}

// Toggle flips a cell. The locked Delete on Contatos is never changed.
func (m *Matrix) Toggle(resource, profile string, action Action) bool {
	return m.Set(resource, profile, action, !m.Get(resource, profile, action))
}

// Clone returns an independent copy
func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.Resources, m.Profiles)
	for k, v := range m.cells {
		c.cells[k] = v
	}
	return c
}

// Equal reports whether both grids hold the same values over m's axes
func (m *Matrix) Equal(other *Matrix) bool {
	return len(Diff(m, other)) == 0 && len(Diff(other, m)) == 0
}

// Each visits every cell in row-major order
func (m *Matrix) Each(fn func(resource, profile string, action Action, v bool)) {
	for _, r := range m.Resources {
		for _, p := range m.Profiles {
			for _, a := range Actions {
				fn(r, p, a, m.Get(r, p, a))
			}
		}
	}
}

// Diff lists every cell whose value differs between initial and current,
// ordered by resource, then profile, then action.
func Diff(initial, current *Matrix) []models.PermissionChange {
	var changes []models.PermissionChange
	current.Each(func(r, p string, a Action, v bool) {
		old := initial.Get(r, p, a)
		if old == v {
			return
		}
		changes = append(changes, models.PermissionChange{
			Profile:    p,
			Resource:   r,
			Permission: string(a),
			OldValue:   old,
			NewValue:   v,
		})
	})
	return changes
}

func validAction(a Action) bool {
	for _, x := range Actions {
		if x == a {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
