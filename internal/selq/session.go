// Package selq turns the selected records of a view into an IN clause and applies
// it as the definition query of the views that share the view's name.
package selq

import (
	"database/sql"
	"errors"
	"fmt"

	"selq/internal/dblib"
	"selq/internal/mapdoc"
)

// Session holds a document and the database connections opened on its behalf.
type Session struct {
	Doc *mapdoc.Document
	Msg Messenger

	// Refresh is called after each view's definition query changes. May be nil.
	Refresh func(kind mapdoc.ViewKind, v *mapdoc.View)

	conns     map[string]*conn
	relations map[string]*dblib.Relation
}

type conn struct {
	db     *sql.DB
	dbType dblib.DatabaseType
}

// NewSession returns a session over doc. A nil msg discards messages.
func NewSession(doc *mapdoc.Document, msg Messenger) *Session {
	if msg == nil {
		msg = Discard
	}
	return &Session{
		Doc:       doc,
		Msg:       msg,
		conns:     make(map[string]*conn),
		relations: make(map[string]*dblib.Relation),
	}
}

func (s *Session) connect(sourceName string) (*conn, error) {
	if c, ok := s.conns[sourceName]; ok {
		return c, nil
	}

	src, err := s.Doc.Source(sourceName)
	if err != nil {
		return nil, err
	}

	db, dbType, err := dblib.Connect(dblib.ConnConfig{
		Type:     src.Type,
		Database: s.Doc.DatabasePath(src),
		Host:     src.Host,
		Port:     src.Port,
		Username: src.User,
		Password: src.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("data source %s: %w", src.Name, err)
	}

	c := &conn{db: db, dbType: dbType}
	s.conns[sourceName] = c
	return c, nil
}

// Relation returns the schema of the relation v reads from.
func (s *Session) Relation(v *mapdoc.View) (*dblib.Relation, error) {
	cacheKey := v.Source + "\x00" + v.Relation
	if rel, ok := s.relations[cacheKey]; ok {
		return rel, nil
	}

	c, err := s.connect(v.Source)
	if err != nil {
		return nil, err
	}
	rel, err := dblib.NewRelation(c.db, c.dbType, v.Relation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Name, err)
	}

	s.relations[cacheKey] = rel
	return rel, nil
}

// Close closes every connection the session opened.
func (s *Session) Close() error {
	var errs []error
	for name, c := range s.conns {
		if err := c.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
		delete(s.conns, name)
	}
	clear(s.relations)
	return errors.Join(errs...)
}
