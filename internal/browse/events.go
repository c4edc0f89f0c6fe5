package browse

import "fmt"

// EventKind identifies what changed.
type EventKind int

const (
	EventFiltersChanged EventKind = iota
	EventFetchStarted
	EventFetchSucceeded
	EventFetchFailed
	EventErrorDismissed
	EventGenresLoaded
	EventDetailsStarted
	EventDetailsLoaded
	EventDetailsFailed
	EventDetailsClosed
)

var eventNames = [...]string{
	EventFiltersChanged: "filters_changed",
	EventFetchStarted:   "fetch_started",
	EventFetchSucceeded: "fetch_succeeded",
	EventFetchFailed:    "fetch_failed",
	EventErrorDismissed: "error_dismissed",
	EventGenresLoaded:   "genres_loaded",
	EventDetailsStarted: "details_started",
	EventDetailsLoaded:  "details_loaded",
	EventDetailsFailed:  "details_failed",
	EventDetailsClosed:  "details_closed",
}

func (k EventKind) String() string {
	if int(k) >= 0 && int(k) < len(eventNames) {
		return eventNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is delivered to the Listener after every state change.
// ScrollTop is set on a successful list fetch: the view should return to the
// first result. Token is the fetch token the event belongs to.
type Event struct {
	Kind      EventKind
	Token     uint64
	ScrollTop bool
	Err       error
	State     State
}

// Listener receives events. It may be called from several goroutines at once
// and must not block. Use State.Version to discard snapshots that arrive late.
type Listener func(Event)
