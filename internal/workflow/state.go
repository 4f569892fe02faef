package workflow

import (
	"errors"
	"fmt"
	"slices"
)

// State is a workflow step.
type State int

const (
	Empty State = iota
	DataLoaded
	OptimalKnown
	Clustered
	ResultsViewed
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case DataLoaded:
		return "data_loaded"
	case OptimalKnown:
		return "optimal_known"
	case Clustered:
		return "clustered"
	case ResultsViewed:
		return "results_viewed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Event is a user-initiated transition.
type Event string

const (
	EventUpload        Event = "DataUploaded"
	EventSample        Event = "SampleLoaded"
	EventFindOptimal   Event = "FindOptimal"
	EventRunClustering Event = "RunClustering"
	EventViewResults   Event = "ViewResults"
	EventExport        Event = "Export"
	EventReset         Event = "Reset"
	EventRestore       Event = "StateRestored"
	EventSave          Event = "Save"
)

// validFrom lists the states each event may fire from. Reset is absent
// because it is valid everywhere.
var validFrom = map[Event][]State{
	EventUpload:        {Empty, DataLoaded},
	EventSample:        {Empty, DataLoaded},
	EventFindOptimal:   {DataLoaded, OptimalKnown, Clustered},
	EventRunClustering: {DataLoaded, OptimalKnown, Clustered},
	EventViewResults:   {Clustered},
	EventExport:        {Clustered, ResultsViewed},
	EventRestore:       {Empty, DataLoaded},
	EventSave:          {DataLoaded, OptimalKnown, Clustered, ResultsViewed},
}

// Allowed reports whether ev may fire from s.
func Allowed(ev Event, s State) bool {
	states, ok := validFrom[ev]
	if !ok {
		return true
	}
	return slices.Contains(states, s)
}

var (
	// ErrInFlight rejects an event while the same event is still running.
	ErrInFlight = errors.New("operation already in progress")
	// ErrSuperseded reports a call whose result was dropped because the
	// analysis was reset while it ran.
	ErrSuperseded = errors.New("operation superseded by reset")
	// ErrResetDeclined is returned when the user does not confirm a reset.
	ErrResetDeclined = errors.New("reset not confirmed")
	ErrInvalidFile   = errors.New("please select a CSV file")
	ErrInvalidK      = errors.New("number of clusters must be a positive integer")
)

// PreconditionError is returned when an event fires from a state outside
// its valid set. No network call is made.
type PreconditionError struct {
	Event  Event
	State  State
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s not allowed in state %s: %s", e.Event, e.State, e.Reason)
}

func precondition(ev Event, s State) *PreconditionError {
	return &PreconditionError{Event: ev, State: s, Reason: reasonFor(ev, s)}
}

func reasonFor(ev Event, s State) string {
	switch {
	case s == Empty:
		return "Please upload data first"
	case ev == EventViewResults || ev == EventExport:
		return "Please run clustering first"
	case ev == EventUpload || ev == EventSample || ev == EventRestore:
		return "Reset the analysis before loading new data"
	default:
		return "Action not available right now"
	}
}

var labels = map[Event]string{
	EventUpload:        "Upload",
	EventSample:        "Sample data load",
	EventFindOptimal:   "Optimal cluster analysis",
	EventRunClustering: "Clustering",
	EventViewResults:   "Navigation",
	EventExport:        "Export",
	EventReset:         "Reset",
	EventRestore:       "Restore",
	EventSave:          "Save",
}

func inFlightMessage(ev Event) string {
	return labels[ev] + " already in progress"
}
