// Package workflow holds the workflow template catalog and the interactive
// flow that binds a template to a task being created.
package workflow

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tgienger/prevtech/internal/models"
	"gopkg.in/yaml.v3"
)

// AllCategories is the synthetic category matching every template
const AllCategories = "All"

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidCatalog   = errors.New("invalid template catalog")
	ErrNotBrowsing      = errors.New("template selection is not browsing")
)

//go:embed templates.yaml
var defaultCatalog []byte

// TemplateSource is the read-only view of a catalog that consumers depend on
type TemplateSource interface {
	ListCategories() []string
	ListTemplates(category string) []models.WorkflowTemplate
	GetTemplate(id string) (models.WorkflowTemplate, bool)
}

// Catalog is an immutable registry of workflow templates
type Catalog struct {
	templates  []models.WorkflowTemplate
	byID       map[string]int
	categories []string
}

var _ TemplateSource = (*Catalog)(nil)

// NewCatalog builds a catalog from templates in declaration order. Every
// template needs an id, a name and at least one subtask; ids must be unique.
func NewCatalog(templates []models.WorkflowTemplate) (*Catalog, error) {
	c := &Catalog{
		templates:  make([]models.WorkflowTemplate, 0, len(templates)),
		byID:       make(map[string]int, len(templates)),
		categories: []string{AllCategories},
	}
	seen := map[string]bool{}

	for i, t := range templates {
		switch {
		case t.ID == "":
			return nil, fmt.Errorf("%w: template %d has no id", ErrInvalidCatalog, i)
		case t.Name == "":
			return nil, fmt.Errorf("%w: template %q has no name", ErrInvalidCatalog, t.ID)
		case len(t.Subtasks) == 0:
			return nil, fmt.Errorf("%w: template %q has no subtasks", ErrInvalidCatalog, t.ID)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate template id %q", ErrInvalidCatalog, t.ID)
		}

		c.byID[t.ID] = len(c.templates)
		c.templates = append(c.templates, t.Clone())

		if t.Category != "" && !seen[t.Category] {
			seen[t.Category] = true
			c.categories = append(c.categories, t.Category)
		}
	}
	return c, nil
}

type catalogFile struct {
	Templates []models.WorkflowTemplate `yaml:"templates"`
}

// LoadCatalog decodes a YAML catalog
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewCatalog(f.Templates)
}

// LoadCatalogFile reads a YAML catalog from path
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadCatalog(f)
}

// DefaultCatalog returns the catalog bundled with the binary
func DefaultCatalog() *Catalog {
	c, err := LoadCatalog(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic("workflow: bundled catalog: " + err.Error())
	}
	return c
}

// ListCategories returns "All" followed by each category in the order it
// was first declared
func (c *Catalog) ListCategories() []string {
	return append([]string(nil), c.categories...)
}

// ListTemplates returns the templates in category, in declaration order
func (c *Catalog) ListTemplates(category string) []models.WorkflowTemplate {
	var out []models.WorkflowTemplate
	for _, t := range c.templates {
		if category == AllCategories || t.Category == category {
			out = append(out, t.Clone())
		}
	}
	return out
}

// GetTemplate looks a template up by id
func (c *Catalog) GetTemplate(id string) (models.WorkflowTemplate, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.WorkflowTemplate{}, false
	}
	return c.templates[i].Clone(), true
}

// Len returns the number of templates
func (c *Catalog) Len() int { return len(c.templates) }
