package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStopped is returned by Tick once the loop has exited.
var ErrStopped = errors.New("loop: stopped")

const (
	DefaultRate             = 60.0
	DefaultMaxBacklog       = 500 * time.Millisecond
	DefaultSleepGranularity = time.Millisecond
)

// Stepper is what the loop drives: one simulation step of dt, and one
// output pass per tick.
type Stepper interface {
	Step(dt time.Duration) error
	Produce() error
}

// Stats summarizes the work done so far.
type Stats struct {
	Ticks     uint64
	Steps     uint64
	Produced  uint64
	LastSteps int
	// LastElapsed is the simulated time advanced by the last tick.
	LastElapsed time.Duration
}

// Loop converts wall-clock time into simulation steps. In fixed mode each
// step advances exactly StepDuration; in variable mode one step per tick
// advances by whatever time passed. Single goroutine.
type Loop struct {
	clock   Clock
	stepper Stepper
	log     *zap.Logger

	active     bool
	fixed      bool
	step       time.Duration
	maxBacklog time.Duration
	granule    time.Duration

	accumulated time.Duration
	total       time.Duration
	last        time.Time

	suppressProduce bool
	stats           Stats

	shutdown     func()
	shutdownOnce sync.Once
}

// Option configures a Loop.
type Option func(*Loop)

// WithTargetRate sets the fixed step rate in steps per second.
func WithTargetRate(rate float64) Option {
	return func(l *Loop) { l.SetTargetRate(rate) }
}

func WithFixedTimestep(fixed bool) Option {
	return func(l *Loop) { l.fixed = fixed }
}

// WithMaxBacklog caps the time the loop will try to catch up after a stall.
func WithMaxBacklog(d time.Duration) Option {
	return func(l *Loop) {
		if d <= 0 {
			panic(fmt.Sprintf("loop: max backlog must be positive, got %s", d))
		}
		l.maxBacklog = d
	}
}

// WithSleepGranularity sets the longest single sleep while waiting for a
// fixed step to come due.
func WithSleepGranularity(d time.Duration) Option {
	return func(l *Loop) {
		if d <= 0 {
			panic(fmt.Sprintf("loop: sleep granularity must be positive, got %s", d))
		}
		l.granule = d
	}
}

// WithShutdown sets the hook Run calls once after the loop goes inactive.
func WithShutdown(fn func()) Option {
	return func(l *Loop) { l.shutdown = fn }
}

func New(clock Clock, stepper Stepper, log *zap.Logger, opts ...Option) *Loop {
	l := &Loop{
		clock:      clock,
		stepper:    stepper,
		log:        log,
		fixed:      true,
		maxBacklog: DefaultMaxBacklog,
		granule:    DefaultSleepGranularity,
	}
	l.SetTargetRate(DefaultRate)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetTargetRate sets the fixed step duration from a rate in steps per
// second. Fractional rates are fine; a rate <= 0 is a programming error.
func (l *Loop) SetTargetRate(rate float64) {
	if rate <= 0 {
		panic(fmt.Sprintf("loop: target rate must be positive, got %v", rate))
	}
	l.step = time.Duration(float64(time.Second) / rate)
	if l.step <= 0 {
		panic(fmt.Sprintf("loop: target rate %v is too high", rate))
	}
}

func (l *Loop) SetFixedTimestep(fixed bool) { l.fixed = fixed }

func (l *Loop) FixedTimestep() bool         { return l.fixed }
func (l *Loop) StepDuration() time.Duration { return l.step }
func (l *Loop) Accumulated() time.Duration  { return l.accumulated }
func (l *Loop) Total() time.Duration        { return l.total }
func (l *Loop) Active() bool                { return l.active }
func (l *Loop) Stats() Stats                { return l.stats }
func (l *Loop) MaxBacklog() time.Duration   { return l.maxBacklog }

// Start marks the loop active and samples the clock. Time before Start
// does not count.
func (l *Loop) Start() {
	l.active = true
	l.last = l.clock.Now()
	l.accumulated = 0
}

// Exit stops future steps, including the rest of the current tick, and
// skips the pending produce.
func (l *Loop) Exit() {
	l.active = false
	l.suppressProduce = true
}

// SuppressNextProduce skips the produce call at the end of this tick.
func (l *Loop) SuppressNextProduce() { l.suppressProduce = true }

// Tick measures elapsed wall time and runs the steps it pays for, then
// produces once unless suppressed.
func (l *Loop) Tick() error {
	if !l.active {
		return ErrStopped
	}
	l.stats.Ticks++
	l.measure()

	if l.fixed {
		for l.accumulated < l.step {
			l.clock.Sleep(min(l.step-l.accumulated, l.granule))
			l.measure()
		}
	}
	limit := l.maxBacklog
	if l.fixed && l.step > limit {
		// A step longer than the backlog still runs once.
		limit = l.step
	}
	if l.accumulated > limit {
		l.log.Debug("frame backlog clamped",
			zap.Duration("backlog", l.accumulated),
			zap.Duration("max", limit))
		l.accumulated = limit
	}

	steps := 0
	var elapsed time.Duration
	if l.fixed {
		for l.active && l.accumulated >= l.step {
			l.accumulated -= l.step
			steps++
			elapsed += l.step
			l.total += l.step
			if err := l.stepper.Step(l.step); err != nil {
				l.record(steps, elapsed)
				return fmt.Errorf("step %d: %w", l.stats.Steps+uint64(steps), err)
			}
		}
	} else {
		dt := l.accumulated
		l.accumulated = 0
		steps = 1
		elapsed = dt
		l.total += dt
		if err := l.stepper.Step(dt); err != nil {
			l.record(steps, elapsed)
			return fmt.Errorf("step %d: %w", l.stats.Steps+1, err)
		}
	}
	l.record(steps, elapsed)

	suppressed := l.suppressProduce
	l.suppressProduce = false
	if suppressed {
		return nil
	}
	l.stats.Produced++
	if err := l.stepper.Produce(); err != nil {
		return fmt.Errorf("produce: %w", err)
	}
	return nil
}

func (l *Loop) measure() {
	now := l.clock.Now()
	if d := now.Sub(l.last); d > 0 {
		l.accumulated += d
	}
	l.last = now
}

func (l *Loop) record(steps int, elapsed time.Duration) {
	l.stats.Steps += uint64(steps)
	l.stats.LastSteps = steps
	l.stats.LastElapsed = elapsed
}

// Run ticks until the loop goes inactive, then calls the shutdown hook
// once. Cancelling ctx exits the loop at the next tick boundary. A step or
// produce error stops the loop and is returned.
func (l *Loop) Run(ctx context.Context) error {
	l.Start()
	defer l.runShutdown()

	l.log.Info("loop started",
		zap.Bool("fixed", l.fixed),
		zap.Duration("step", l.step))

	for l.active {
		if ctx.Err() != nil {
			l.Exit()
			break
		}
		if err := l.Tick(); err != nil && !errors.Is(err, ErrStopped) {
			l.active = false
			return err
		}
	}

	l.log.Info("loop stopped",
		zap.Uint64("ticks", l.stats.Ticks),
		zap.Uint64("steps", l.stats.Steps),
		zap.Duration("simulated", l.total))
	return nil
}

func (l *Loop) runShutdown() {
	l.shutdownOnce.Do(func() {
		if l.shutdown != nil {
			l.shutdown()
		}
	})
}
