package selq

import (
	"selq/internal/dblib"
	"selq/internal/mapdoc"
)

// Field is a resolved field: the first view with the requested name, the relation
// behind it, and the matching column.
type Field struct {
	View     *mapdoc.View
	Kind     mapdoc.ViewKind
	Relation *dblib.Relation
	Column   dblib.Column
}

// ResolveField finds field on the view named viewName. Fields whose kind cannot be
// listed in an IN clause fail with UnsupportedFieldTypeError.
func (s *Session) ResolveField(viewName, field string) (*Field, error) {
	v, kind, err := s.Doc.FindView(viewName)
	if err != nil {
		return nil, err
	}

	rel, err := s.Relation(v)
	if err != nil {
		return nil, err
	}

	col, ok := rel.FindColumn(field)
	if !ok {
		return nil, &FieldNotFoundError{Field: field, View: viewName}
	}
	if !col.Kind.Supported() {
		return nil, &UnsupportedFieldTypeError{Field: field, Kind: col.Kind}
	}

	return &Field{View: v, Kind: kind, Relation: rel, Column: col}, nil
}
