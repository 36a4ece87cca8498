// Package mapdoc holds the document that selections and definition queries live in:
// the data sources, and the layers and table views that present them.
package mapdoc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	ErrViewNotFound   = errors.New("view not found")
	ErrSourceNotFound = errors.New("data source not found")
)

// ViewKind distinguishes the two kinds of views a document holds.
type ViewKind int

const (
	KindLayer ViewKind = iota
	KindTableView
)

func (k ViewKind) String() string {
	if k == KindTableView {
		return "TableView"
	}
	return "Layer"
}

// Source is a named database connection.
type Source struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type,omitempty"`
	Database string `yaml:"database"`
	Host     string `yaml:"host,omitempty"`
	Port     string `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// Selection is the set of selected records of a view, identified by key.
type Selection struct {
	Key string `yaml:"key,omitempty"` // empty: the relation's best key
	IDs []any  `yaml:"ids"`
}

// Count returns the number of selected records; zero for a nil selection.
func (s *Selection) Count() int {
	if s == nil {
		return 0
	}
	return len(s.IDs)
}

// View is a named presentation of a relation. Several views may share a name.
type View struct {
	Name            string     `yaml:"name"`
	Source          string     `yaml:"source"`
	Relation        string     `yaml:"relation"`
	DefinitionQuery string     `yaml:"definition_query,omitempty"`
	Selection       *Selection `yaml:"selection,omitempty"`
}

// Document is the in-memory view registry plus the sources its views read from.
type Document struct {
	Sources    []Source `yaml:"sources"`
	Layers     []View   `yaml:"layers,omitempty"`
	TableViews []View   `yaml:"table_views,omitempty"`

	path string
}

// Load reads and validates a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read document: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("could not parse document %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document %s: %w", path, err)
	}

	doc.path = path
	return &doc, nil
}

// DatabasePath resolves a file database named relative to the document. Names that
// are not files next to the document (server database names) are returned as is.
func (d *Document) DatabasePath(src *Source) string {
	if d.path == "" || src.Host != "" || src.Database == "" || filepath.IsAbs(src.Database) {
		return src.Database
	}
	candidate := filepath.Join(filepath.Dir(d.path), src.Database)
	if _, err := os.Stat(candidate); err != nil {
		return src.Database
	}
	return candidate
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string {
	return d.path
}

// Save writes the document back to the file it was loaded from.
func (d *Document) Save() error {
	if d.path == "" {
		return fmt.Errorf("document has no file")
	}
	return d.SaveAs(d.path)
}

// SaveAs writes the document to path through a temporary file and a rename.
func (d *Document) SaveAs(path string) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("could not marshal document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".selq-*.yaml")
	if err != nil {
		return fmt.Errorf("could not write document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("could not write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("could not write document: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("could not write document: %w", err)
	}

	d.path = path
	return nil
}

// Validate checks that source names are unique and every view reads from a
// declared source.
func (d *Document) Validate() error {
	names := make(map[string]bool, len(d.Sources))
	for _, src := range d.Sources {
		if src.Name == "" {
			return fmt.Errorf("data source without a name")
		}
		if names[src.Name] {
			return fmt.Errorf("duplicate data source %q", src.Name)
		}
		names[src.Name] = true
	}

	var err error
	d.Each(func(kind ViewKind, v *View) bool {
		switch {
		case v.Name == "":
			err = fmt.Errorf("%s without a name", kind)
		case v.Relation == "":
			err = fmt.Errorf("%s %q has no relation", kind, v.Name)
		case !names[v.Source]:
			err = fmt.Errorf("%s %q: %w: %q", kind, v.Name, ErrSourceNotFound, v.Source)
		}
		return err == nil
	})
	return err
}

// Each calls fn for every layer, then every table view, in document order, until
// fn returns false. fn receives a pointer into the document and may mutate the view.
func (d *Document) Each(fn func(kind ViewKind, v *View) bool) {
	for i := range d.Layers {
		if !fn(KindLayer, &d.Layers[i]) {
			return
		}
	}
	for i := range d.TableViews {
		if !fn(KindTableView, &d.TableViews[i]) {
			return
		}
	}
}

// FindView returns the first view named name, searching layers before table views.
func (d *Document) FindView(name string) (*View, ViewKind, error) {
	var (
		found *View
		kind  ViewKind
	)
	d.Each(func(k ViewKind, v *View) bool {
		if v.Name == name {
			found, kind = v, k
			return false
		}
		return true
	})
	if found == nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrViewNotFound, name)
	}
	return found, kind, nil
}

// Source returns the data source named name.
func (d *Document) Source(name string) (*Source, error) {
	for i := range d.Sources {
		if d.Sources[i].Name == name {
			return &d.Sources[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, name)
}

// ViewNames returns the distinct view names in document order.
func (d *Document) ViewNames() []string {
	seen := make(map[string]bool)
	var names []string
	d.Each(func(_ ViewKind, v *View) bool {
		if !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
		return true
	})
	return names
}

// ParseKey turns a key given on the command line into an integer when it is one,
// so that it compares equal to integer key columns.
func ParseKey(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
