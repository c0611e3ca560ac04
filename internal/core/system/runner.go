package system

import (
	"time"

	"github.com/l1jgo/framecore/internal/core/order"
)

// Runner executes systems in phase order each step. Systems in the same
// phase run in registration order.
type Runner struct {
	systems []System
	sorted  bool
	sorter  order.Sorter[System]
}

func NewRunner() *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

// Len returns the number of registered systems.
func (r *Runner) Len() int { return len(r.systems) }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		r.sorter.Stable(r.systems, order.By(func(s System) int { return int(s.Phase()) }, order.Ascending))
		r.sorted = true
	}
}
