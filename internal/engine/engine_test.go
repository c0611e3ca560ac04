package engine

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/l1jgo/framecore/internal/config"
	"github.com/l1jgo/framecore/internal/core/event"
	"github.com/l1jgo/framecore/internal/core/loop"
	"github.com/l1jgo/framecore/internal/core/scene"
	"go.uber.org/zap/zaptest"
)

type testBackend struct {
	*loop.ManualClock
	renderer *CountingRenderer

	initialized bool
	shutDowns   int
}

func (b *testBackend) Initialize() error        { b.initialized = true; return nil }
func (b *testBackend) ShutDown()                { b.shutDowns++ }
func (b *testBackend) Renderer() scene.Renderer { return b.renderer }

type level struct {
	*scene.Scene
	log     *[]string
	updates int
	onUpd   func(n int)
}

func (l *level) Begin(h scene.Host) {
	l.Scene.Begin(h)
	*l.log = append(*l.log, l.Name()+".begin")
}

func (l *level) Pause()  { l.Scene.Pause(); *l.log = append(*l.log, l.Name()+".pause") }
func (l *level) Resume() { l.Scene.Resume(); *l.log = append(*l.log, l.Name()+".resume") }
func (l *level) End()    { l.Scene.End(); *l.log = append(*l.log, l.Name()+".end") }

func (l *level) Update() {
	l.updates++
	l.Scene.Update()
	if l.onUpd != nil {
		l.onUpd(l.updates)
	}
}

func newTestEngine(t *testing.T) (*Engine, *testBackend) {
	t.Helper()
	b := &testBackend{
		ManualClock: loop.NewManualClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		renderer:    &CountingRenderer{},
	}
	return New(config.Defaults().Loop, b, zaptest.NewLogger(t)), b
}

func newLevel(e *Engine, name string, log *[]string) *level {
	l := &level{Scene: e.World().NewScene(name), log: log}
	e.Register(name, l)
	return l
}

func TestStartBeginsOnFirstStep(t *testing.T) {
	e, _ := newTestEngine(t)
	var log []string
	title := newLevel(e, "title", &log)

	if err := e.Start("title"); err != nil {
		t.Fatal(err)
	}
	if e.Current() != nil {
		t.Fatal("context current before the first step")
	}
	if err := e.Step(time.Second / 60); err != nil {
		t.Fatal(err)
	}
	if e.Current() != title {
		t.Fatal("title not current after the first step")
	}
	if title.updates != 1 {
		t.Fatalf("updates = %d, want 1", title.updates)
	}
	if e.Delta() != time.Second/60 || e.Elapsed() != time.Second/60 {
		t.Fatalf("delta %s elapsed %s", e.Delta(), e.Elapsed())
	}
}

func TestUnknownContext(t *testing.T) {
	e, _ := newTestEngine(t)
	if err := e.Push("missing"); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("err = %v", err)
	}
	if err := e.Switch("missing"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTransitionsBecomeEventsNextStep(t *testing.T) {
	e, _ := newTestEngine(t)
	var log []string
	newLevel(e, "title", &log)
	newLevel(e, "menu", &log)

	var got []string
	event.Subscribe(e.Bus(), func(ev event.SceneBegan) { got = append(got, "began "+ev.Name) })
	event.Subscribe(e.Bus(), func(ev event.ScenePaused) { got = append(got, "paused "+ev.Name) })
	event.Subscribe(e.Bus(), func(ev event.SceneResumed) { got = append(got, "resumed "+ev.Name) })
	event.Subscribe(e.Bus(), func(ev event.SceneEnded) { got = append(got, "ended "+ev.Name) })

	dt := time.Second / 60
	_ = e.Start("title")
	_ = e.Step(dt)
	if len(got) != 0 {
		t.Fatalf("events delivered in the step that emitted them: %v", got)
	}
	_ = e.Push("menu")
	_ = e.Step(dt)
	e.Pop()
	_ = e.Step(dt)
	_ = e.Step(dt)

	want := []string{"began title", "paused title", "began menu", "ended menu", "resumed title"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(log, []string{"title.begin", "title.pause", "menu.begin", "menu.end", "title.resume"}) {
		t.Fatalf("hooks = %v", log)
	}
}

func TestProduceSubmitsAndPresents(t *testing.T) {
	e, b := newTestEngine(t)
	var log []string
	title := newLevel(e, "title", &log)

	if err := e.Produce(); err != nil {
		t.Fatal(err)
	}
	if b.renderer.Frames() != 0 {
		t.Fatal("presented with an empty stack")
	}

	ent := e.World().NewEntity("logo", 0)
	ent.AddGraphic(scene.NewSprite("logo", 0, 10, 20))
	title.Add(ent)
	_ = e.Start("title")
	_ = e.Step(time.Second / 60)
	_ = e.Produce()

	if b.renderer.Frames() != 1 {
		t.Fatalf("frames = %d, want 1", b.renderer.Frames())
	}
	frame := b.renderer.LastFrame()
	if len(frame) != 1 || frame[0].Sprite != "logo" {
		t.Fatalf("frame = %+v", frame)
	}

	b.renderer.Submit(scene.DrawCommand{Sprite: "next"})
	if frame[0].Sprite != "logo" {
		t.Fatalf("presented frame overwritten by later submit: %+v", frame)
	}
}

func TestRunUntilExit(t *testing.T) {
	e, b := newTestEngine(t)
	var log []string
	title := newLevel(e, "title", &log)
	title.onUpd = func(n int) {
		if n == 5 {
			e.Exit()
		}
	}
	_ = e.Start("title")

	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !b.initialized || b.shutDowns != 1 {
		t.Fatalf("backend init=%v shutdowns=%d", b.initialized, b.shutDowns)
	}
	if title.updates != 5 {
		t.Fatalf("updates = %d, want 5", title.updates)
	}
	if e.Stack().Len() != 0 {
		t.Fatal("stack not drained")
	}
	if log[len(log)-1] != "title.end" {
		t.Fatalf("hooks = %v", log)
	}
	// Exit skips the produce of the final tick.
	if got, want := b.renderer.Frames(), e.Loop().Stats().Ticks-1; got != want {
		t.Fatalf("frames = %d, want %d", got, want)
	}
}

func TestRunRecoversPanickingContext(t *testing.T) {
	e, b := newTestEngine(t)
	var log []string
	title := newLevel(e, "title", &log)
	title.onUpd = func(n int) {
		if n == 2 {
			panic("boom")
		}
	}
	_ = e.Start("title")

	err := e.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
	if b.shutDowns != 1 {
		t.Fatal("backend not shut down after panic")
	}
	if e.Stack().Len() != 0 {
		t.Fatal("stack not drained after panic")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	e, b := newTestEngine(t)
	var log []string
	title := newLevel(e, "title", &log)

	ctx, cancel := context.WithCancel(context.Background())
	title.onUpd = func(n int) {
		if n == 3 {
			cancel()
		}
	}
	_ = e.Start("title")
	if err := e.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if b.shutDowns != 1 || e.Loop().Active() {
		t.Fatal("engine still running after cancel")
	}
}
