package selq

// Messenger receives the progress messages of a run.
type Messenger interface {
	AddMessage(msg string)
	AddWarning(msg string)
	AddError(msg string)
}

type discard struct{}

func (discard) AddMessage(string) {}
func (discard) AddWarning(string) {}
func (discard) AddError(string)   {}

// Discard is a Messenger that drops everything.
var Discard Messenger = discard{}
