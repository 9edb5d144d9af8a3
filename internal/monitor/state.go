package monitor

// State phase of the poll loop
type State int32

const (
	StateIdle       State = iota // Not started
	StateFetching                // Reconciling targets
	StateRendering               // Drawing the table
	StatePersisting              // Saving the cache
	StateSleeping                // Waiting for the next cycle
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateRendering:
		return "rendering"
	case StatePersisting:
		return "persisting"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}
