package selq

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selq/internal/dblib"
	"selq/internal/mapdoc"
)

const fixtureDocument = `
sources:
  - name: gis
    type: sqlite
    database: parcels.db
layers:
  - name: Parcels
    source: gis
    relation: parcels
    selection:
      ids: [3, 1, 4]
  - name: Zoned
    source: gis
    relation: parcels
    definition_query: zone = 2
    selection:
      key: id
      ids: [1, 2, 3]
table_views:
  - name: Parcels
    source: gis
    relation: parcels
  - name: Empty
    source: gis
    relation: parcels
`

func newTestSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	dir := t.TempDir()

	db, err := sql.Open("sqlite3", filepath.Join(dir, "parcels.db"))
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE parcels (
			id INTEGER PRIMARY KEY,
			Code VARCHAR(10) NOT NULL,
			area REAL,
			zone SMALLINT,
			created DATE,
			"Zone Name" TEXT,
			key TEXT,
			range INTEGER
		);
		INSERT INTO parcels (id, Code, area, zone, "Zone Name", key, range) VALUES
			(1, 'A', 10.5, 1, 'x', 'k1', 10),
			(2, 'B', 20, 2, 'y', 'k2', 20),
			(3, 'C', 30.25, 2, 'z', 'k3', 30),
			(4, 'D''Arc', NULL, 3, NULL, 'k4', 40),
			(5, 'E', 50, NULL, 'w', 'k5', 50);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	docPath := filepath.Join(dir, "selq.yaml")
	require.NoError(t, os.WriteFile(docPath, []byte(fixtureDocument), 0o644))
	doc, err := mapdoc.Load(docPath)
	require.NoError(t, err)

	msg := &recorder{}
	s := NewSession(doc, msg)
	t.Cleanup(func() { s.Close() })
	return s, msg
}

func TestRun_BuildsFromSelectionInKeyOrder(t *testing.T) {
	s, msg := newTestSession(t)

	res, err := s.Run(context.Background(), Params{View: "Parcels", Field: "Code"})
	require.NoError(t, err)

	assert.Equal(t, "Code IN ('A', 'C', 'D''Arc')", res.Query)
	assert.Zero(t, res.Matched)
	assert.Equal(t, []string{"Output query: Code IN ('A', 'C', 'D''Arc')"}, msg.messages)
	assert.Equal(t, []string{"", "zone = 2", "", ""}, definitionQueries(s.Doc))
}

func TestRun_AppliesToEveryViewWithTheName(t *testing.T) {
	s, msg := newTestSession(t)
	refreshes := 0
	s.Refresh = func(mapdoc.ViewKind, *mapdoc.View) { refreshes++ }

	res, err := s.Run(context.Background(), Params{View: "Parcels", Field: "id", Apply: ApplyFlag})
	require.NoError(t, err)

	assert.Equal(t, "id IN (1, 3, 4)", res.Query)
	assert.Equal(t, 2, res.Matched)
	assert.Equal(t, 2, refreshes)
	assert.Equal(t, []string{"id IN (1, 3, 4)", "zone = 2", "id IN (1, 3, 4)", ""}, definitionQueries(s.Doc))
	assert.Equal(t, []string{ambiguousNameWarning}, msg.warnings)
}

func TestRun_HonorsDefinitionQuery(t *testing.T) {
	s, _ := newTestSession(t)

	res, err := s.Run(context.Background(), Params{View: "Zoned", Field: "zone"})
	require.NoError(t, err)
	assert.Equal(t, "zone IN (2, 2)", res.Query)

	res, err = s.Run(context.Background(), Params{View: "Zoned", Field: "zone", Distinct: true})
	require.NoError(t, err)
	assert.Equal(t, "zone IN (2)", res.Query)
	assert.Equal(t, 1, res.Stats.Duplicates)
}

func TestRun_WarnsAboutNulls(t *testing.T) {
	s, msg := newTestSession(t)

	res, err := s.Run(context.Background(), Params{View: "Parcels", Field: "parcels.area"})
	require.NoError(t, err)

	assert.Equal(t, "parcels.area IN (10.5, 30.25)", res.Query)
	assert.Equal(t, 1, res.Stats.SkippedNulls)
	require.Len(t, msg.warnings, 1)
	assert.Contains(t, msg.warnings[0], "1 selected records")
}

func TestRun_Errors(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	_, err := s.Run(ctx, Params{View: "Parcels", Field: "created"})
	var unsupported *UnsupportedFieldTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, dblib.KindDate, unsupported.Kind)

	_, err = s.Run(ctx, Params{View: "Parcels", Field: "code"})
	var notFound *FieldNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "code", notFound.Field)
	assert.Equal(t, "Parcels", notFound.View)

	_, err = s.Run(ctx, Params{View: "Empty", Field: "Code", Apply: ApplyFlag})
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = s.Run(ctx, Params{View: "Streets", Field: "Code"})
	assert.ErrorIs(t, err, mapdoc.ErrViewNotFound)

	assert.Equal(t, []string{"", "zone = 2", "", ""}, definitionQueries(s.Doc))
}

func TestRun_InvalidQueryIsNotApplied(t *testing.T) {
	s, msg := newTestSession(t)

	_, err := s.Run(context.Background(), Params{View: "Parcels", Field: "Zone Name", Apply: ApplyFlag})
	var invalid *InvalidQueryError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Zone Name IN ('x', 'z')", invalid.Query)

	assert.Equal(t, []string{"", "zone = 2", "", ""}, definitionQueries(s.Doc))
	assert.NotContains(t, msg.messages, "Applying definition query...")
}

func TestRun_AppliesOnKeywordNamedColumns(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{field: "key", want: "key IN ('k1', 'k3', 'k4')"},
		{field: "range", want: "range IN (10, 30, 40)"},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			s, _ := newTestSession(t)

			res, err := s.Run(context.Background(), Params{View: "Parcels", Field: tt.field, Apply: ApplyFlag})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Query)
			assert.Equal(t, 2, res.Matched)
			assert.Equal(t, []string{tt.want, "zone = 2", tt.want, ""}, definitionQueries(s.Doc))
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	s, _ := newTestSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx, Params{View: "Parcels", Field: "Code"})
	require.Error(t, err)
}

func TestSelect(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	n, err := s.Select(ctx, "Empty", []string{"5", "2", "5"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []any{int64(5), int64(2)}, s.Doc.TableViews[1].Selection.IDs)

	res, err := s.Run(ctx, Params{View: "Empty", Field: "Code"})
	require.NoError(t, err)
	assert.Equal(t, "Code IN ('B', 'E')", res.Query)

	_, err = s.Select(ctx, "Empty", []string{"1", "99"})
	require.Error(t, err)
	assert.Equal(t, []any{int64(5), int64(2)}, s.Doc.TableViews[1].Selection.IDs, "failed select keeps the old selection")
}

func TestCheck(t *testing.T) {
	s, _ := newTestSession(t)
	ctx := context.Background()

	s.Doc.Layers[0].DefinitionQuery = "key IN ('k1') AND range > 5"
	assert.Empty(t, s.Check(ctx))

	s.Doc.TableViews[0].DefinitionQuery = "missing = 1"
	s.Doc.TableViews[1].DefinitionQuery = "zone ="

	problems := s.Check(ctx)
	require.Len(t, problems, 2)

	assert.Equal(t, mapdoc.KindTableView, problems[0].Kind)
	assert.Equal(t, "Parcels", problems[0].View)
	var notFound *FieldNotFoundError
	assert.ErrorAs(t, problems[0].Err, &notFound)

	assert.Equal(t, "Empty", problems[1].View)
	var invalid *InvalidQueryError
	assert.ErrorAs(t, problems[1].Err, &invalid)
}
