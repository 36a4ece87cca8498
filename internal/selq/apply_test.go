package selq

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"selq/internal/mapdoc"
)

type recorder struct {
	messages []string
	warnings []string
	errors   []string
}

func (r *recorder) AddMessage(msg string) { r.messages = append(r.messages, msg) }
func (r *recorder) AddWarning(msg string) { r.warnings = append(r.warnings, msg) }
func (r *recorder) AddError(msg string)   { r.errors = append(r.errors, msg) }

func testDocument(layers, tableViews []string) *mapdoc.Document {
	doc := &mapdoc.Document{Sources: []mapdoc.Source{{Name: "gis", Database: "gis.db"}}}
	for _, name := range layers {
		doc.Layers = append(doc.Layers, mapdoc.View{Name: name, Source: "gis", Relation: "parcels"})
	}
	for _, name := range tableViews {
		doc.TableViews = append(doc.TableViews, mapdoc.View{Name: name, Source: "gis", Relation: "parcels"})
	}
	return doc
}

func definitionQueries(doc *mapdoc.Document) []string {
	var queries []string
	doc.Each(func(_ mapdoc.ViewKind, v *mapdoc.View) bool {
		queries = append(queries, v.DefinitionQuery)
		return true
	})
	return queries
}

func TestApply_SingleMatch(t *testing.T) {
	doc := testDocument([]string{"Parcels", "Roads"}, []string{"Owners"})
	msg := &recorder{}

	n := Apply(doc, "Parcels", "Code IN ('A')", ApplyFlag, msg, nil)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"Code IN ('A')", "", ""}, definitionQueries(doc))
	assert.Equal(t, []string{"Applying definition query...", "Layer = Parcels"}, msg.messages)
	assert.Empty(t, msg.warnings)
}

func TestApply_SameNameLayerAndTableView(t *testing.T) {
	doc := testDocument([]string{"Parcels", "Roads"}, []string{"Parcels"})
	msg := &recorder{}

	var refreshed []string
	refresh := func(kind mapdoc.ViewKind, v *mapdoc.View) {
		refreshed = append(refreshed, kind.String()+":"+v.Name)
	}

	n := Apply(doc, "Parcels", "ID IN (1, 2)", ApplyFlag, msg, refresh)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"ID IN (1, 2)", "", "ID IN (1, 2)"}, definitionQueries(doc))
	assert.Equal(t, []string{"Layer:Parcels", "TableView:Parcels"}, refreshed)
	assert.Equal(t, []string{"Applying definition query...", "Layer = Parcels", "TableView = Parcels"}, msg.messages)
	assert.Equal(t, []string{ambiguousNameWarning}, msg.warnings)
}

func TestApply_FlagMustBeExact(t *testing.T) {
	for _, flag := range []string{"", "false", "True", "TRUE", "1", " true"} {
		t.Run(flag, func(t *testing.T) {
			doc := testDocument([]string{"Parcels"}, []string{"Parcels"})
			msg := &recorder{}

			assert.Zero(t, Apply(doc, "Parcels", "ID IN (1)", flag, msg, nil))
			assert.Equal(t, []string{"", ""}, definitionQueries(doc))
			assert.Empty(t, msg.messages)
		})
	}
}

func TestApply_NoMatchIsSilent(t *testing.T) {
	doc := testDocument([]string{"Roads"}, nil)
	msg := &recorder{}

	assert.Zero(t, Apply(doc, "parcels", "ID IN (1)", ApplyFlag, msg, nil))
	assert.Empty(t, msg.warnings)
	assert.Empty(t, msg.errors)
	assert.Equal(t, []string{""}, definitionQueries(doc))
}
