package scene

import (
	"slices"

	"github.com/l1jgo/framecore/internal/core/deferred"
	"github.com/l1jgo/framecore/internal/core/ecs"
	"github.com/l1jgo/framecore/internal/core/order"
)

// Scene is the base Context: a deferred list of entities plus scene-level
// graphics. Embed *Scene in a concrete scene and override hooks as needed;
// an override of Update or Produce should call the embedded one.
type Scene struct {
	world  *World
	handle ecs.Handle
	name   string
	host   Host

	entities *deferred.List[*Entity]
	graphics *GraphicList

	ownsCamera bool
	camera     Camera

	begun  bool
	paused bool
}

func newScene(w *World, h ecs.Handle, name string) *Scene {
	s := &Scene{
		world:    w,
		handle:   h,
		name:     name,
		entities: deferred.New[*Entity](order.Ascending),
		graphics: NewGraphicList(),
	}
	s.entities.SetOwner(h)
	s.graphics.SetOwner(h)
	return s
}

func (s *Scene) Handle() ecs.Handle { return s.handle }
func (s *Scene) Name() string       { return s.name }
func (s *Scene) World() *World      { return s.world }

// Host is nil until the scene has begun.
func (s *Scene) Host() Host { return s.host }

func (s *Scene) Begun() bool  { return s.begun }
func (s *Scene) Paused() bool { return s.paused }

func (s *Scene) OwnsCamera() bool     { return s.ownsCamera }
func (s *Scene) SetOwnsCamera(v bool) { s.ownsCamera = v }
func (s *Scene) Camera() *Camera      { return &s.camera }

// Add requests e join the scene at the end of the current step. An entity
// that belongs to, or is joining, another scene is left alone, as is a
// destroyed one.
func (s *Scene) Add(e *Entity) {
	if !e.world.handles.Alive(e.handle) {
		return
	}
	if !e.scene.IsZero() && e.scene != s.handle {
		return
	}
	if !e.pendingScene.IsZero() && e.pendingScene != s.handle {
		return
	}
	if s.entities.Contains(e) {
		return
	}
	e.pendingScene = s.handle
	s.entities.RequestAdd(e)
}

// Remove requests e leave the scene at the end of the current step.
func (s *Scene) Remove(e *Entity) {
	s.entities.RequestRemove(e)
}

// Entities returns the active entities in update order.
func (s *Scene) Entities() []*Entity { return s.entities.Active() }

func (s *Scene) Count() int { return s.entities.Len() }

func (s *Scene) Contains(e *Entity) bool { return s.entities.Contains(e) }

// Find returns the first active entity with the given name.
func (s *Scene) Find(name string) (*Entity, bool) {
	return s.entities.Find(func(e *Entity) bool { return e.name == name })
}

// AddGraphic attaches a scene-level graphic immediately.
func (s *Scene) AddGraphic(g Graphic) { s.graphics.Add(g) }

// RemoveGraphic detaches a scene-level graphic immediately.
func (s *Scene) RemoveGraphic(g Graphic) { s.graphics.Remove(g) }

func (s *Scene) Graphics() *GraphicList { return s.graphics }

// Begin binds the host and admits entities added before the scene started.
func (s *Scene) Begin(host Host) {
	s.host = host
	s.begun = true
	s.paused = false
	s.entities.Reconcile()
}

func (s *Scene) Pause()  { s.paused = true }
func (s *Scene) Resume() { s.paused = false }

// Update runs active entities in order, then applies the membership
// changes they requested.
func (s *Scene) Update() {
	for _, e := range s.entities.Active() {
		if e.active {
			e.Update()
		}
	}
	s.entities.Reconcile()
}

// Produce submits entity graphics in entity order, then scene graphics.
func (s *Scene) Produce() {
	if s.host == nil {
		return
	}
	r := s.host.Renderer()
	if r == nil {
		return
	}
	if s.ownsCamera {
		r = cameraRenderer{Renderer: r, cam: &s.camera}
	}
	for _, e := range s.entities.Active() {
		e.Render(r)
	}
	s.graphics.Render(r)
}

// End keeps the entities; a scene pushed again resumes where it left off.
// World.DestroyScene discards them.
func (s *Scene) End() {
	s.begun = false
	s.paused = false
}

// clear evicts every entity and returns the ones that were active or still
// waiting to join.
func (s *Scene) clear() []*Entity {
	evicted := slices.Clone(s.entities.Active())
	for _, e := range s.entities.Clear() {
		if e.pendingScene == s.handle {
			e.pendingScene = 0
		}
		evicted = append(evicted, e)
	}
	return evicted
}
