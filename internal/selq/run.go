package selq

import (
	"context"
	"fmt"

	"selq/internal/dblib"
	"selq/internal/mapdoc"
)

// Params are the three positional inputs of a run plus its options.
type Params struct {
	View     string
	Field    string
	Apply    string // ApplyFlag to apply the query
	Distinct bool
}

type Result struct {
	Query   string
	Matched int // views whose definition query was set
	Stats   BuildStats
}

// Run resolves the field, builds the IN clause from the view's selection and, when
// p.Apply is ApplyFlag, applies it to every view with the same name.
func (s *Session) Run(ctx context.Context, p Params) (*Result, error) {
	f, err := s.ResolveField(p.View, p.Field)
	if err != nil {
		return nil, err
	}

	query, stats, err := s.buildFromSelection(ctx, f, p)
	if err != nil {
		return nil, err
	}

	s.Msg.AddMessage("Output query: " + query)
	if stats.SkippedNulls > 0 {
		s.Msg.AddWarning(fmt.Sprintf("%d selected records have no %s value and were left out.", stats.SkippedNulls, p.Field))
	}

	res := &Result{Query: query, Stats: stats}
	if p.Apply != ApplyFlag {
		return res, nil
	}

	if err := f.Relation.ValidateFilter(ctx, query); err != nil {
		return nil, &InvalidQueryError{Query: query, Err: err}
	}
	res.Matched = Apply(s.Doc, p.View, query, p.Apply, s.Msg, s.Refresh)
	return res, nil
}

func (s *Session) buildFromSelection(ctx context.Context, f *Field, p Params) (string, BuildStats, error) {
	var keyName string
	var ids []any
	if f.View.Selection != nil {
		keyName = f.View.Selection.Key
		ids = f.View.Selection.IDs
	}

	key, err := f.Relation.SelectionKey(keyName)
	if err != nil {
		return "", BuildStats{}, err
	}

	cur, err := f.Relation.OpenSelection(ctx, f.Column.Name, key, ids, f.View.DefinitionQuery)
	if err != nil {
		return "", BuildStats{}, err
	}
	defer cur.Close()

	return BuildQuery(p.Field, f.Column.Kind, cur, BuildOptions{Distinct: p.Distinct})
}

// Select replaces the selection of the first view named viewName. Keys are
// checked against the relation and must all exist.
func (s *Session) Select(ctx context.Context, viewName string, keys []string) (int, error) {
	v, _, err := s.Doc.FindView(viewName)
	if err != nil {
		return 0, err
	}
	rel, err := s.Relation(v)
	if err != nil {
		return 0, err
	}

	var keyName string
	if v.Selection != nil {
		keyName = v.Selection.Key
	}
	key, err := rel.SelectionKey(keyName)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool, len(keys))
	ids := make([]any, 0, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			ids = append(ids, mapdoc.ParseKey(k))
		}
	}

	cur, err := rel.OpenSelection(ctx, key, key, ids, "")
	if err != nil {
		return 0, err
	}
	defer cur.Close()

	found := 0
	for cur.Next() {
		found++
	}
	if err := cur.Err(); err != nil {
		return 0, fmt.Errorf("failed to read selection: %w", err)
	}
	if found != len(ids) {
		return found, fmt.Errorf("%d of %d keys not found in %s", len(ids)-found, len(ids), v.Name)
	}

	v.Selection = &mapdoc.Selection{Key: keyName, IDs: ids}
	return found, nil
}

// Problem is a definition query that does not hold up against its relation.
type Problem struct {
	Kind mapdoc.ViewKind
	View string
	Err  error
}

// Check validates every definition query in the document against its relation's
// database. It returns one Problem per failing view.
func (s *Session) Check(ctx context.Context) []Problem {
	var problems []Problem
	s.Doc.Each(func(kind mapdoc.ViewKind, v *mapdoc.View) bool {
		if v.DefinitionQuery == "" {
			return true
		}
		if err := s.checkView(ctx, v); err != nil {
			problems = append(problems, Problem{Kind: kind, View: v.Name, Err: err})
		}
		return true
	})
	return problems
}

func (s *Session) checkView(ctx context.Context, v *mapdoc.View) error {
	rel, err := s.Relation(v)
	if err != nil {
		return err
	}
	// The parser only names missing columns; keyword column names it rejects are
	// left to the database.
	if analysis, err := dblib.ParseWhereClause(v.DefinitionQuery, rel.DBType); err == nil {
		for _, name := range analysis.Columns {
			if _, ok := rel.FindColumn(name); !ok {
				return &FieldNotFoundError{Field: name, View: v.Name}
			}
		}
	}
	if err := rel.ValidateFilter(ctx, v.DefinitionQuery); err != nil {
		return &InvalidQueryError{Query: v.DefinitionQuery, Err: err}
	}
	return nil
}
