package system

import "time"

// Phase defines execution ordering within a single step.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain external requests (script reloads)
	PhasePreUpdate               // 1: deliver last step's events
	PhaseUpdate                  // 2: scene stack reconcile + current scene update
	PhasePostUpdate              // 3: work that reads the settled scene
	PhaseCleanup                 // 4: release destroyed handles
	PhasePersist                 // 5: telemetry
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseCleanup:
		return "cleanup"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is one unit of per-step work.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}

// Func adapts a function into a System.
type Func struct {
	P  Phase
	Fn func(dt time.Duration)
}

func (f Func) Phase() Phase            { return f.P }
func (f Func) Update(dt time.Duration) { f.Fn(dt) }
