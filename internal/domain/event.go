package domain

// EventType tags one line of the search stream protocol.
type EventType string

const (
	EventInit          EventType = "init"
	EventMovieStart    EventType = "movieStart"
	EventMovieComplete EventType = "movieComplete"
	EventEnd           EventType = "end"
	EventError         EventType = "error"
)

// StreamEvent is one self-describing line of the NDJSON search stream.
// Exactly one terminal event (end or error) closes every stream.
type StreamEvent struct {
	Type         EventType     `json:"type"`
	Message      string        `json:"message,omitempty"`
	Total        *int          `json:"total,omitempty"`
	Movie        *SearchResult `json:"movie,omitempty"`
	SuccessCount *int          `json:"successCount,omitempty"`
}

// Terminal reports whether the event closes the stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == EventEnd || e.Type == EventError
}

// InitMessage announces that a search has started, before any total is known.
func InitMessage(message string) StreamEvent {
	return StreamEvent{Type: EventInit, Message: message}
}

// InitTotal announces the resolved result count.
func InitTotal(total int) StreamEvent {
	return StreamEvent{Type: EventInit, Total: &total}
}

// MovieStart is the placeholder half of the two-phase emission: the result
// with its image nulled, so a consumer can render before the cover resolves.
func MovieStart(r SearchResult) StreamEvent {
	r.Image = nil
	return StreamEvent{Type: EventMovieStart, Movie: &r}
}

// MovieComplete carries the final record for the same id as its MovieStart.
func MovieComplete(r SearchResult) StreamEvent {
	return StreamEvent{Type: EventMovieComplete, Movie: &r}
}

// End terminates a stream that produced no results.
func End(message string) StreamEvent {
	return StreamEvent{Type: EventEnd, Message: message}
}

// EndWithCount terminates a successful stream.
func EndWithCount(message string, successCount int) StreamEvent {
	return StreamEvent{Type: EventEnd, Message: message, SuccessCount: &successCount}
}

// Error terminates a failed stream in-band.
func Error(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}
