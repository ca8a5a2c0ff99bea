package system

import (
	"slices"
	"time"

	"github.com/boxworld/engine/internal/core/ecs"
)

// Runner executes systems in phase order each tick and owns the commit
// boundaries of the registry.
type Runner struct {
	reg     *ecs.Registry
	systems []System
	sorted  bool
	ticks   uint64
}

func NewRunner(reg *ecs.Registry) *Runner {
	return &Runner{
		reg:     reg,
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every phase that has systems, committing the registry after each
// one, then ends the frame.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for i := 0; i < len(r.systems); {
		phase := r.systems[i].Phase()
		for ; i < len(r.systems) && r.systems[i].Phase() == phase; i++ {
			r.systems[i].Update(dt)
		}
		r.reg.FinalizeUpdate()
	}
	r.reg.EndFrame()
	r.ticks++
}

// TickPhase runs only the systems of one phase and commits. The frame is not
// advanced and the tick counter is unchanged.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
	r.reg.FinalizeUpdate()
}

// Ticks is the number of completed Tick calls.
func (r *Runner) Ticks() uint64 { return r.ticks }

func (r *Runner) ensureSorted() {
	if !r.sorted {
		slices.SortStableFunc(r.systems, func(a, b System) int {
			return int(a.Phase()) - int(b.Phase())
		})
		r.sorted = true
	}
}
