package runner

import "fmt"

// Phase is the coarse state of a resolution.
type Phase int

const (
	Idle Phase = iota
	TryingSource
	TryingEmbed
	Resolved
	Exhausted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case TryingSource:
		return "trying-source"
	case TryingEmbed:
		return "trying-embed"
	case Resolved:
		return "resolved"
	case Exhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the position of a resolution: the phase plus the source and embed being tried.
type State struct {
	Phase  Phase
	Source int
	Embed  int
}

func (s State) String() string {
	switch s.Phase {
	case TryingSource:
		return fmt.Sprintf("%s(%d)", s.Phase, s.Source)
	case TryingEmbed:
		return fmt.Sprintf("%s(%d,%d)", s.Phase, s.Source, s.Embed)
	default:
		return s.Phase.String()
	}
}

// transitions lists the phases reachable from each phase.
var transitions = map[Phase][]Phase{
	Idle:         {TryingSource, Exhausted},
	TryingSource: {TryingSource, TryingEmbed, Resolved, Exhausted},
	TryingEmbed:  {TryingEmbed, TryingSource, Resolved, Exhausted},
	Resolved:     nil,
	Exhausted:    nil,
}

// CanTransition reports whether a resolution may move from one state to the next.
// Within a phase the position only moves forward.
func CanTransition(from, to State) bool {
	allowed := false
	for _, p := range transitions[from.Phase] {
		allowed = allowed || p == to.Phase
	}
	if !allowed {
		return false
	}

	switch {
	case to.Phase == TryingSource && from.Phase != Idle:
		return to.Source > from.Source
	case to.Phase == TryingEmbed && from.Phase == TryingSource:
		return to.Source == from.Source && to.Embed == 0
	case to.Phase == TryingEmbed:
		return to.Source == from.Source && to.Embed == from.Embed+1
	default:
		return true
	}
}
