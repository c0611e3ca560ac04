package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/framecore/internal/config"
	"github.com/l1jgo/framecore/internal/core/ecs"
	"github.com/l1jgo/framecore/internal/core/event"
	"github.com/l1jgo/framecore/internal/core/loop"
	"github.com/l1jgo/framecore/internal/core/scene"
	"github.com/l1jgo/framecore/internal/core/system"
	"go.uber.org/zap"
)

// named is implemented by contexts that embed *scene.Scene.
type named interface {
	Name() string
	Handle() ecs.Handle
}

// Engine wires the scene world, the context stack, the frame loop and the
// per-step systems together. It is the Host every context sees and the
// Stepper the loop drives. Single goroutine.
type Engine struct {
	backend Backend
	log     *zap.Logger
	runID   uuid.UUID

	world  *scene.World
	stack  *scene.Stack
	loop   *loop.Loop
	runner *system.Runner
	bus    *event.Bus

	contexts map[string]scene.Context
	names    map[scene.Context]string

	delta   time.Duration
	elapsed time.Duration
	steps   uint64
}

// New builds an engine from the loop section of cfg.
func New(cfg config.LoopConfig, backend Backend, log *zap.Logger) *Engine {
	e := &Engine{
		backend:  backend,
		log:      log,
		runID:    uuid.New(),
		world:    scene.NewWorld(),
		runner:   system.NewRunner(),
		bus:      event.NewBus(),
		contexts: make(map[string]scene.Context),
		names:    make(map[scene.Context]string),
	}
	e.stack = scene.NewStack(e)
	e.stack.OnTransition(e.emitTransition)
	e.loop = loop.New(backend, e, log,
		loop.WithTargetRate(cfg.TargetRate),
		loop.WithFixedTimestep(cfg.FixedTimestep),
		loop.WithMaxBacklog(cfg.MaxBacklog),
		loop.WithSleepGranularity(cfg.SleepGranularity),
	)

	e.runner.Register(system.Func{P: system.PhasePreUpdate, Fn: func(time.Duration) {
		e.bus.SwapBuffers()
		e.bus.DispatchAll()
	}})
	e.runner.Register(system.Func{P: system.PhaseUpdate, Fn: func(time.Duration) {
		e.stack.Reconcile()
		if cur := e.stack.Current(); cur != nil {
			cur.Update()
		}
	}})
	e.runner.Register(system.Func{P: system.PhaseCleanup, Fn: func(time.Duration) {
		e.world.Flush()
	}})
	return e
}

// scene.Host

func (e *Engine) World() *scene.World      { return e.world }
func (e *Engine) Stack() *scene.Stack      { return e.stack }
func (e *Engine) Delta() time.Duration     { return e.delta }
func (e *Engine) Elapsed() time.Duration   { return e.elapsed }
func (e *Engine) Renderer() scene.Renderer { return e.backend.Renderer() }
func (e *Engine) Logger() *zap.Logger      { return e.log }
func (e *Engine) Loop() *loop.Loop         { return e.loop }
func (e *Engine) Bus() *event.Bus          { return e.bus }
func (e *Engine) Runner() *system.Runner   { return e.runner }
func (e *Engine) RunID() uuid.UUID         { return e.runID }
func (e *Engine) Backend() Backend         { return e.backend }

// Steps returns the number of steps started so far.
func (e *Engine) Steps() uint64 { return e.steps }
func (e *Engine) Context(name string) (scene.Context, bool) {
	ctx, ok := e.contexts[name]
	return ctx, ok
}

// AddSystem registers extra per-step work, e.g. script reloads or
// telemetry.
func (e *Engine) AddSystem(s system.System) { e.runner.Register(s) }

// Register makes ctx reachable by name for Push, Switch and Start.
func (e *Engine) Register(name string, ctx scene.Context) {
	if ctx == nil {
		panic(fmt.Sprintf("engine: register %q: nil context", name))
	}
	if old, ok := e.contexts[name]; ok {
		delete(e.names, old)
	}
	e.contexts[name] = ctx
	e.names[ctx] = name
}

// NameOf returns the registered name of ctx.
func (e *Engine) NameOf(ctx scene.Context) string {
	if n, ok := e.names[ctx]; ok {
		return n
	}
	if s, ok := ctx.(named); ok {
		return s.Name()
	}
	return ""
}

func (e *Engine) lookup(name string) (scene.Context, error) {
	ctx, ok := e.contexts[name]
	if !ok {
		return nil, fmt.Errorf("engine: unknown context %q", name)
	}
	return ctx, nil
}

// Push queues the named context on top of the stack.
func (e *Engine) Push(name string) error {
	ctx, err := e.lookup(name)
	if err != nil {
		return err
	}
	e.stack.Push(ctx)
	return nil
}

// Pop queues removal of the current context.
func (e *Engine) Pop() { e.stack.Pop() }

// Switch replaces the whole stack with the named context.
func (e *Engine) Switch(name string) error {
	ctx, err := e.lookup(name)
	if err != nil {
		return err
	}
	e.stack.Switch(ctx)
	return nil
}

// Start selects the first context. It begins on the first step.
func (e *Engine) Start(name string) error { return e.Switch(name) }

// Exit stops the loop after the current step.
func (e *Engine) Exit() { e.loop.Exit() }

func (e *Engine) SuppressNextProduce() { e.loop.SuppressNextProduce() }

// Current returns the current context, nil when the stack is empty.
func (e *Engine) Current() scene.Context { return e.stack.Current() }

// Step implements loop.Stepper.
func (e *Engine) Step(dt time.Duration) error {
	e.delta = dt
	e.elapsed += dt
	e.steps++
	e.runner.Tick(dt)
	return nil
}

// Produce implements loop.Stepper.
func (e *Engine) Produce() error {
	cur := e.stack.Current()
	if cur == nil {
		return nil
	}
	cur.Produce()
	if r := e.backend.Renderer(); r != nil {
		r.Present()
	}
	return nil
}

// Run initializes the backend and drives the loop until Exit, ctx
// cancellation or an error. The stack is drained and the backend shut down
// on the way out, also after a panicking context hook, which is returned as
// an error.
func (e *Engine) Run(ctx context.Context) (err error) {
	if err := e.backend.Initialize(); err != nil {
		return fmt.Errorf("initialize backend: %w", err)
	}
	e.log.Info("engine starting",
		zap.String("run", e.runID.String()),
		zap.Duration("step", e.loop.StepDuration()))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: context panicked: %v", r)
			e.log.Error("engine stopped by panic", zap.Any("panic", r))
			e.loop.Exit()
		}
		e.teardown()
	}()

	if err := e.loop.Run(ctx); err != nil {
		e.log.Error("engine loop failed", zap.Error(err))
		return err
	}
	return nil
}

// teardown ends every context without resuming anything, then releases
// the backend. A panicking End hook is logged and does not stop teardown.
func (e *Engine) teardown() {
	for e.stack.Len() > 0 {
		e.drainOnce()
	}
	e.world.Flush()
	e.backend.ShutDown()
	e.log.Info("engine stopped",
		zap.String("run", e.runID.String()),
		zap.Duration("simulated", e.elapsed))
}

func (e *Engine) drainOnce() {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("context panicked during teardown", zap.Any("panic", r))
		}
	}()
	e.stack.Drain()
}

func (e *Engine) emitTransition(t scene.Transition) {
	name := e.NameOf(t.Context)
	var h ecs.Handle
	if s, ok := t.Context.(named); ok {
		h = s.Handle()
	}
	e.log.Debug("scene transition",
		zap.String("scene", name),
		zap.Stringer("kind", t.Kind))
	switch t.Kind {
	case scene.Began:
		event.Emit(e.bus, event.SceneBegan{Name: name, Handle: h})
	case scene.Paused:
		event.Emit(e.bus, event.ScenePaused{Name: name, Handle: h})
	case scene.Resumed:
		event.Emit(e.bus, event.SceneResumed{Name: name, Handle: h})
	case scene.Ended:
		event.Emit(e.bus, event.SceneEnded{Name: name, Handle: h})
	}
}
