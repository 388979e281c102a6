package wizard

type EventKind string

const (
	KindNext            EventKind = "next"
	KindBack            EventKind = "back"
	KindSubmitStarted   EventKind = "submit_started"
	KindSubmitSucceeded EventKind = "submit_succeeded"
	KindSubmitFailed    EventKind = "submit_failed"
)

// Event is one of EventNext, EventBack, EventSubmitStarted,
// EventSubmitSucceeded or EventSubmitFailed.
type Event interface {
	Kind() EventKind
}

type EventNext struct{}

type EventBack struct{}

type EventSubmitStarted struct{}

type EventSubmitSucceeded struct {
	ApplicationID string
	Message       string
}

type EventSubmitFailed struct {
	Message string
}

func (EventNext) Kind() EventKind            { return KindNext }
func (EventBack) Kind() EventKind            { return KindBack }
func (EventSubmitStarted) Kind() EventKind   { return KindSubmitStarted }
func (EventSubmitSucceeded) Kind() EventKind { return KindSubmitSucceeded }
func (EventSubmitFailed) Kind() EventKind    { return KindSubmitFailed }
