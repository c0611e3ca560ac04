package scripting

import (
	"time"

	"github.com/l1jgo/framecore/internal/core/event"
	"github.com/l1jgo/framecore/internal/core/system"
	"go.uber.org/zap"
)

// ReloadSystem applies pending script reloads at the start of a step, so
// a behaviour never changes halfway through one.
type ReloadSystem struct {
	engine  *Engine
	changes <-chan string
	errs    <-chan error
	bus     *event.Bus
	log     *zap.Logger
}

// NewReloadSystem drains changes, typically Watcher.Events. errs may be nil.
func NewReloadSystem(engine *Engine, changes <-chan string, errs <-chan error, bus *event.Bus, log *zap.Logger) *ReloadSystem {
	return &ReloadSystem{engine: engine, changes: changes, errs: errs, bus: bus, log: log}
}

func (s *ReloadSystem) Phase() system.Phase { return system.PhaseInput }

func (s *ReloadSystem) Update(_ time.Duration) {
	for {
		select {
		case path, ok := <-s.changes:
			if !ok {
				s.changes = nil
				continue
			}
			err := s.engine.Reload(path)
			if err != nil {
				s.log.Error("script reload failed", zap.String("file", path), zap.Error(err))
			}
			event.Emit(s.bus, event.ScriptReloaded{Path: path, Err: err})
		case err, ok := <-s.errs:
			if !ok {
				s.errs = nil
				continue
			}
			s.log.Warn("script watcher error", zap.Error(err))
		default:
			return
		}
	}
}
