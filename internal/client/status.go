package client

// State is the consumer-side search lifecycle.
type State string

const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateSuccess   State = "success"
	StateError     State = "error"
	StateNoResults State = "no-results"
)

// Status pairs a state with its human-readable message.
type Status struct {
	State   State
	Message string
}

// Terminal reports whether the search has finished, one way or another.
func (s Status) Terminal() bool {
	switch s.State {
	case StateSuccess, StateError, StateNoResults:
		return true
	}
	return false
}
