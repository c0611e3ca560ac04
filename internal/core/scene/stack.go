package scene

// TransitionKind names a lifecycle notification sent by the Stack.
type TransitionKind int

const (
	Began TransitionKind = iota
	Paused
	Resumed
	Ended
)

func (k TransitionKind) String() string {
	switch k {
	case Began:
		return "began"
	case Paused:
		return "paused"
	case Resumed:
		return "resumed"
	case Ended:
		return "ended"
	}
	return "unknown"
}

// Transition is reported after the matching hook returns.
type Transition struct {
	Kind    TransitionKind
	Context Context
}

// Stack holds the contexts; the top one is current. Push, Pop and Switch
// only record requests. Reconcile applies them once per step, before the
// step's update.
type Stack struct {
	host     Host
	contexts []Context

	switchTo  Context
	pushQueue []Context
	pops      int

	observer func(Transition)
}

func NewStack(host Host) *Stack {
	return &Stack{
		host:     host,
		contexts: make([]Context, 0, 4),
	}
}

// OnTransition installs fn to observe every begin, pause, resume and end.
func (s *Stack) OnTransition(fn func(Transition)) { s.observer = fn }

// Push queues ctx to be pushed on top.
func (s *Stack) Push(ctx Context) {
	if ctx == nil {
		panic("scene: push of nil context")
	}
	s.pushQueue = append(s.pushQueue, ctx)
}

// Pop queues removal of the top context. Pops that would leave the stack
// empty are dropped.
func (s *Stack) Pop() { s.pops++ }

// Switch replaces the whole stack with ctx at the next Reconcile. It
// cancels every queued push and pop.
func (s *Stack) Switch(ctx Context) {
	if ctx == nil {
		panic("scene: switch to nil context")
	}
	s.switchTo = ctx
}

// Current returns the top context, nil when the stack is empty.
func (s *Stack) Current() Context {
	if len(s.contexts) == 0 {
		return nil
	}
	return s.contexts[len(s.contexts)-1]
}

func (s *Stack) Len() int { return len(s.contexts) }

// Contexts returns the stack bottom to top. Callers must not modify it.
func (s *Stack) Contexts() []Context { return s.contexts }

// HasPending reports whether any transition is queued.
func (s *Stack) HasPending() bool {
	return s.switchTo != nil || len(s.pushQueue) > 0 || s.pops > 0
}

// Reconcile applies queued transitions. Stack bookkeeping is updated before
// each hook runs, so a hook that panics leaves the stack consistent.
func (s *Stack) Reconcile() {
	if s.switchTo != nil {
		next := s.switchTo
		s.switchTo = nil
		clear(s.pushQueue)
		s.pushQueue = s.pushQueue[:0]
		s.pops = 0

		for len(s.contexts) > 0 {
			s.end(s.popTop())
		}
		s.contexts = append(s.contexts, next)
		s.begin(next)
		return
	}

	for s.pops > 0 {
		if len(s.contexts) <= 1 {
			s.pops = 0
			break
		}
		s.pops--
		s.end(s.popTop())
		if cur := s.Current(); cur != nil {
			s.resume(cur)
		}
	}

	for len(s.pushQueue) > 0 {
		next := s.pushQueue[0]
		copy(s.pushQueue, s.pushQueue[1:])
		s.pushQueue[len(s.pushQueue)-1] = nil
		s.pushQueue = s.pushQueue[:len(s.pushQueue)-1]

		prev := s.Current()
		s.contexts = append(s.contexts, next)
		if prev != nil {
			s.pause(prev)
		}
		s.begin(next)
		// A context pushed behind another gets one update so pushes it
		// queues from Begin or Update compose within this reconcile.
		if len(s.pushQueue) > 0 {
			next.Update()
		}
	}
}

// Drain ends every context, top to bottom, without resuming anything.
// Used on teardown.
func (s *Stack) Drain() {
	s.switchTo = nil
	clear(s.pushQueue)
	s.pushQueue = s.pushQueue[:0]
	s.pops = 0
	for len(s.contexts) > 0 {
		s.end(s.popTop())
	}
}

func (s *Stack) popTop() Context {
	n := len(s.contexts) - 1
	top := s.contexts[n]
	s.contexts[n] = nil
	s.contexts = s.contexts[:n]
	return top
}

func (s *Stack) begin(ctx Context) {
	ctx.Begin(s.host)
	s.notify(Began, ctx)
}

func (s *Stack) pause(ctx Context) {
	ctx.Pause()
	s.notify(Paused, ctx)
}

func (s *Stack) resume(ctx Context) {
	ctx.Resume()
	s.notify(Resumed, ctx)
}

func (s *Stack) end(ctx Context) {
	ctx.End()
	s.notify(Ended, ctx)
}

func (s *Stack) notify(kind TransitionKind, ctx Context) {
	if s.observer != nil {
		s.observer(Transition{Kind: kind, Context: ctx})
	}
}
