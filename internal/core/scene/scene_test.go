package scene

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

type fakeRenderer struct {
	cmds     []DrawCommand
	presents int
}

func (r *fakeRenderer) Submit(cmd DrawCommand) { r.cmds = append(r.cmds, cmd) }
func (r *fakeRenderer) Present()               { r.presents++ }

func (r *fakeRenderer) sprites() []string {
	out := make([]string, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = c.Sprite
	}
	return out
}

type fakeHost struct {
	world    *World
	stack    *Stack
	renderer *fakeRenderer
}

func newFakeHost() *fakeHost {
	h := &fakeHost{world: NewWorld(), renderer: &fakeRenderer{}}
	h.stack = NewStack(h)
	return h
}

func (h *fakeHost) World() *World          { return h.world }
func (h *fakeHost) Stack() *Stack          { return h.stack }
func (h *fakeHost) Delta() time.Duration   { return time.Second / 60 }
func (h *fakeHost) Elapsed() time.Duration { return 0 }
func (h *fakeHost) Renderer() Renderer     { return h.renderer }
func (h *fakeHost) Logger() *zap.Logger    { return zap.NewNop() }

// step mirrors one engine step: reconcile the stack, update the current
// context, flush the world.
func (h *fakeHost) step() {
	h.stack.Reconcile()
	if cur := h.stack.Current(); cur != nil {
		cur.Update()
	}
	h.world.Flush()
}

func TestEntitiesUpdateInOrder(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")

	var ran []string
	for _, spec := range []struct {
		name  string
		order int
	}{{"c", 3}, {"a", 1}, {"c2", 3}, {"b", 2}} {
		e := h.world.NewEntity(spec.name, spec.order)
		name := spec.name
		e.AddComponent(NewFunc(0, func(*Entity) { ran = append(ran, name) }))
		s.Add(e)
	}

	h.stack.Switch(s)
	h.step()

	if want := []string{"a", "b", "c", "c2"}; !reflect.DeepEqual(ran, want) {
		t.Fatalf("update order = %v, want %v", ran, want)
	}
}

func TestEntityBackReferences(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")
	e := h.world.NewEntity("hero", 0)
	c := NewFunc(0, func(*Entity) {})
	e.AddComponent(c)

	if _, ok := e.Scene(); ok {
		t.Fatal("entity has a scene before admission")
	}
	s.Add(e)
	h.stack.Switch(s)
	h.step()

	got, ok := e.Scene()
	if !ok || got != s {
		t.Fatal("entity does not resolve its scene")
	}
	if c.EntityHandle() != e.Handle() {
		t.Fatal("component does not hold its entity handle")
	}
	if owner, ok := h.world.Entity(c.EntityHandle()); !ok || owner != e {
		t.Fatal("world does not resolve component owner")
	}
}

func TestEntityBelongsToOneScene(t *testing.T) {
	h := newFakeHost()
	s1 := h.world.NewScene("one")
	s2 := h.world.NewScene("two")
	e := h.world.NewEntity("crate", 0)

	s1.Add(e)
	s2.Add(e)
	s1.Begin(h)
	s2.Begin(h)

	if !s1.Contains(e) || s2.Contains(e) {
		t.Fatal("entity must join only the first scene")
	}
}

func TestComponentRemovesSiblingEntity(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")

	victim := h.world.NewEntity("victim", 2)
	spawned := h.world.NewEntity("spawned", 0)
	var victimRuns int
	victim.AddComponent(NewFunc(0, func(*Entity) { victimRuns++ }))

	killer := h.world.NewEntity("killer", 1)
	killer.AddComponent(NewFunc(0, func(e *Entity) {
		sc, _ := e.Scene()
		sc.Remove(victim)
		sc.Add(spawned)
	}))

	s.Add(killer)
	s.Add(victim)
	h.stack.Switch(s)
	h.step()

	if victimRuns != 1 {
		t.Fatalf("victim ran %d times in the step it was removed, want 1", victimRuns)
	}
	if s.Contains(victim) || !s.Contains(spawned) {
		t.Fatal("membership not reconciled at end of step")
	}
	if want := []string{"spawned", "killer"}; !reflect.DeepEqual(entityNames(s), want) {
		t.Fatalf("entities = %v, want %v", entityNames(s), want)
	}
}

func entityNames(s *Scene) []string {
	var out []string
	for _, e := range s.Entities() {
		out = append(out, e.Name())
	}
	return out
}

func TestSetOrderResortsScene(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")
	a := h.world.NewEntity("a", 1)
	b := h.world.NewEntity("b", 2)
	s.Add(a)
	s.Add(b)
	h.stack.Switch(s)
	h.step()

	a.SetOrder(5)
	h.step()
	if want := []string{"b", "a"}; !reflect.DeepEqual(entityNames(s), want) {
		t.Fatalf("entities = %v, want %v", entityNames(s), want)
	}
}

func TestComponentOrder(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")
	e := h.world.NewEntity("e", 0)

	var ran []int
	mk := func(order int) *Func {
		return NewFunc(order, func(*Entity) { ran = append(ran, order) })
	}
	late := mk(9)
	e.AddComponent(late)
	e.AddComponent(mk(1))
	e.AddComponent(mk(5))
	s.Add(e)
	h.stack.Switch(s)
	h.step()

	if want := []int{1, 5, 9}; !reflect.DeepEqual(ran, want) {
		t.Fatalf("component order = %v, want %v", ran, want)
	}

	ran = ran[:0]
	late.SetOrder(0)
	e.ReorderComponents()
	h.step() // resort happens at the end of this step
	ran = ran[:0]
	h.step()
	if want := []int{9, 1, 5}; !reflect.DeepEqual(ran, want) {
		t.Fatalf("component order after reorder = %v, want %v", ran, want)
	}
}

func TestProduceDrawsLayersBackToFront(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")
	e := h.world.NewEntity("e", 0)
	e.AddGraphic(NewSprite("front", -10, 0, 0))
	e.AddGraphic(NewSprite("back", 10, 0, 0))
	mid := NewSprite("mid", 0, 0, 0)
	e.AddGraphic(mid)
	hidden := NewSprite("hidden", 5, 0, 0)
	hidden.SetVisible(false)
	e.AddGraphic(hidden)
	s.AddGraphic(NewSprite("hud", 100, 0, 0))
	s.Add(e)
	h.stack.Switch(s)
	h.step()

	s.Produce()
	if want := []string{"back", "mid", "front", "hud"}; !reflect.DeepEqual(h.renderer.sprites(), want) {
		t.Fatalf("draw order = %v, want %v", h.renderer.sprites(), want)
	}

	h.renderer.cmds = nil
	mid.SetLayer(20)
	s.Produce()
	if want := []string{"mid", "back", "front", "hud"}; !reflect.DeepEqual(h.renderer.sprites(), want) {
		t.Fatalf("draw order after SetLayer = %v, want %v", h.renderer.sprites(), want)
	}
}

func TestSceneCamera(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")
	s.AddGraphic(NewSprite("tree", 0, 100, 50))
	s.SetOwnsCamera(true)
	s.Camera().X = 30
	s.Camera().Y = 10
	s.Begin(h)
	s.Produce()

	if len(h.renderer.cmds) != 1 {
		t.Fatalf("submitted %d commands", len(h.renderer.cmds))
	}
	if got := h.renderer.cmds[0]; got.X != 70 || got.Y != 40 {
		t.Fatalf("camera offset not applied: %+v", got)
	}
}

func TestDestroyEntity(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")
	e := h.world.NewEntity("doomed", 0)
	c := NewFunc(0, func(*Entity) {})
	g := NewSprite("x", 0, 0, 0)
	e.AddComponent(c)
	e.AddGraphic(g)
	s.Add(e)
	h.stack.Switch(s)
	h.step()

	handle := e.Handle()
	e.AddComponent(NewFunc(1, func(ent *Entity) { ent.World().Destroy(ent) }))
	h.step() // the destroying component is admitted at the end of this step
	h.step()

	if s.Contains(e) {
		t.Fatal("destroyed entity still in scene")
	}
	if _, ok := h.world.Entity(handle); ok {
		t.Fatal("destroyed entity handle still resolves")
	}
	if c.Attached() || g.OwnerHandle() != 0 {
		t.Fatal("components and graphics not detached")
	}
}

func TestDestroyScene(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("level")
	for i := 0; i < 3; i++ {
		s.Add(h.world.NewEntity("e", i))
	}
	s.Begin(h)
	if s.Count() != 3 {
		t.Fatalf("count = %d", s.Count())
	}

	h.world.DestroyScene(s)
	h.world.Flush()
	if s.Count() != 0 {
		t.Fatal("scene not cleared")
	}
	if h.world.Entities() != 0 || h.world.Scenes() != 0 {
		t.Fatalf("world still holds %d entities, %d scenes", h.world.Entities(), h.world.Scenes())
	}
}

func TestDestroySceneReleasesJoiningEntities(t *testing.T) {
	h := newFakeHost()
	a := h.world.NewScene("a")
	b := h.world.NewScene("b")
	e := h.world.NewEntity("late", 0)
	a.Add(e)

	h.world.DestroyScene(a)
	h.world.Flush()
	if _, ok := h.world.Entity(e.Handle()); ok {
		t.Fatal("entity joining a destroyed scene is still alive")
	}
	if !e.pendingScene.IsZero() {
		t.Fatal("entity still points at the destroyed scene")
	}

	b.Add(e)
	b.entities.Reconcile()
	if b.entities.Contains(e) {
		t.Fatal("destroyed entity joined another scene")
	}
	if h.world.Entities() != 0 {
		t.Fatalf("world holds %d entities", h.world.Entities())
	}
}

func TestSceneEndKeepsEntities(t *testing.T) {
	h := newFakeHost()
	s := h.world.NewScene("menu")
	s.Add(h.world.NewEntity("button", 0))
	h.stack.Switch(s)
	h.step()

	other := h.world.NewScene("game")
	h.stack.Switch(other)
	h.step()
	if s.Begun() {
		t.Fatal("scene still begun after switch")
	}
	if s.Count() != 1 {
		t.Fatal("End must not discard entities")
	}
}
