package selq

import (
	"selq/internal/mapdoc"
)

// ApplyFlag is the only apply argument that applies the query.
const ApplyFlag = "true"

const ambiguousNameWarning = "More than one Layer or Table View had the same name. The definition query was applied to each."

// Apply sets query as the definition query of every layer, then every table view,
// named name, and returns how many views changed. Nothing happens unless flag is
// ApplyFlag. refresh, when not nil, is called after each change.
func Apply(doc *mapdoc.Document, name, query, flag string, msg Messenger, refresh func(mapdoc.ViewKind, *mapdoc.View)) int {
	if flag != ApplyFlag {
		return 0
	}
	if msg == nil {
		msg = Discard
	}

	msg.AddMessage("Applying definition query...")
	matched := 0
	doc.Each(func(kind mapdoc.ViewKind, v *mapdoc.View) bool {
		if v.Name != name {
			return true
		}
		v.DefinitionQuery = query
		if refresh != nil {
			refresh(kind, v)
		}
		matched++
		msg.AddMessage(kind.String() + " = " + v.Name)
		return true
	})

	if matched > 1 {
		msg.AddWarning(ambiguousNameWarning)
	}
	return matched
}
