package engine

import (
	"slices"

	"github.com/l1jgo/framecore/internal/core/loop"
	"github.com/l1jgo/framecore/internal/core/scene"
	"go.uber.org/zap"
)

// Backend is the platform the engine runs on: a wall clock, a graphics
// sink, and whatever has to be set up before the first tick and torn down
// after the last.
type Backend interface {
	loop.Clock
	Initialize() error
	ShutDown()
	Renderer() scene.Renderer
}

// Headless runs on the system clock and draws nothing. Its renderer counts
// submissions per frame.
type Headless struct {
	loop.SystemClock
	renderer *CountingRenderer
	log      *zap.Logger
}

func NewHeadless(log *zap.Logger) *Headless {
	return &Headless{
		renderer: &CountingRenderer{log: log},
		log:      log,
	}
}

func (h *Headless) Initialize() error {
	h.log.Info("headless backend ready")
	return nil
}

func (h *Headless) ShutDown() {
	h.log.Info("headless backend shut down",
		zap.Uint64("frames", h.renderer.Frames()),
		zap.Uint64("draws", h.renderer.Total()))
}

func (h *Headless) Renderer() scene.Renderer { return h.renderer }

// CountingRenderer records draw commands instead of drawing them.
type CountingRenderer struct {
	log *zap.Logger

	frame  []scene.DrawCommand
	last   []scene.DrawCommand
	frames uint64
	total  uint64
}

func (r *CountingRenderer) Submit(cmd scene.DrawCommand) {
	r.frame = append(r.frame, cmd)
	r.total++
}

// Present closes the frame.
func (r *CountingRenderer) Present() {
	r.frames++
	if r.log != nil {
		r.log.Debug("frame presented",
			zap.Uint64("frame", r.frames),
			zap.Int("draws", len(r.frame)))
	}
	r.last = slices.Clone(r.frame)
	clear(r.frame)
	r.frame = r.frame[:0]
}

// LastFrame returns the commands of the most recently presented frame. The
// slice stays valid after later frames.
func (r *CountingRenderer) LastFrame() []scene.DrawCommand { return r.last }

func (r *CountingRenderer) Frames() uint64 { return r.frames }
func (r *CountingRenderer) Total() uint64  { return r.total }
