package actor

// State is the lifecycle state of an actor.
type State int32

const (
	Running State = iota
	Terminated
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
