package scene

import (
	"github.com/l1jgo/framecore/internal/core/ecs"
)

// World resolves the handles members keep for their owners. Containers own
// their members; members only hold handles back, which the World turns into
// objects while they are alive.
type World struct {
	handles  *ecs.World
	scenes   *ecs.Store[Scene]
	entities *ecs.Store[Entity]

	doomed []*Entity
}

func NewWorld() *World {
	w := &World{
		handles:  ecs.NewWorld(),
		scenes:   ecs.NewStore[Scene](),
		entities: ecs.NewStore[Entity](),
	}
	w.handles.Registry().Register(w.scenes)
	w.handles.Registry().Register(w.entities)
	return w
}

// Handles exposes the underlying handle world.
func (w *World) Handles() *ecs.World { return w.handles }

// NewScene creates a scene registered under a fresh handle.
func (w *World) NewScene(name string) *Scene {
	s := newScene(w, w.handles.Create(), name)
	w.scenes.Set(s.handle, s)
	return s
}

// NewEntity creates an entity registered under a fresh handle. It is not
// part of any scene until a scene admits it.
func (w *World) NewEntity(name string, order int) *Entity {
	e := newEntity(w, w.handles.Create(), name, order)
	w.entities.Set(e.handle, e)
	return e
}

func (w *World) Scene(h ecs.Handle) (*Scene, bool) {
	return w.scenes.Get(h)
}

func (w *World) Entity(h ecs.Handle) (*Entity, bool) {
	return w.entities.Get(h)
}

// Destroy removes e from its scene and releases its handle at the end of
// the step. Its components and graphics are evicted at that point.
func (w *World) Destroy(e *Entity) {
	if !w.handles.Alive(e.handle) {
		return
	}
	if s, ok := w.Scene(e.scene); ok {
		s.Remove(e)
	} else if s, ok := w.Scene(e.pendingScene); ok {
		s.Remove(e)
	}
	w.doomed = append(w.doomed, e)
	w.handles.Release(e.handle)
}

// DestroyScene clears the scene, destroying every entity it holds, and
// releases its handle at the end of the step.
func (w *World) DestroyScene(s *Scene) {
	if !w.handles.Alive(s.handle) {
		return
	}
	for _, e := range s.clear() {
		w.doomed = append(w.doomed, e)
		w.handles.Release(e.handle)
	}
	s.graphics.Clear()
	w.handles.Release(s.handle)
}

// Flush finishes destruction requested during the step.
func (w *World) Flush() {
	for _, e := range w.doomed {
		e.components.Clear()
		e.graphics.Clear()
	}
	clear(w.doomed)
	w.doomed = w.doomed[:0]
	w.handles.Flush()
}

// Scenes returns the number of live scenes.
func (w *World) Scenes() int { return w.scenes.Len() }

// Entities returns the number of live entities.
func (w *World) Entities() int { return w.entities.Len() }
