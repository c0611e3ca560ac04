package scene

import (
	"github.com/l1jgo/framecore/internal/core/deferred"
	"github.com/l1jgo/framecore/internal/core/ecs"
	"github.com/l1jgo/framecore/internal/core/order"
)

// Entity groups components and graphics inside a scene. Its order key
// sequences entity updates within the scene; lower runs first.
type Entity struct {
	world  *World
	handle ecs.Handle
	name   string
	order  int

	scene        ecs.Handle // owner, set on admission
	pendingScene ecs.Handle // scene that has a pending add for this entity

	active  bool
	visible bool

	components *deferred.List[Component]
	graphics   *GraphicList
}

func newEntity(w *World, h ecs.Handle, name string, key int) *Entity {
	e := &Entity{
		world:      w,
		handle:     h,
		name:       name,
		order:      key,
		active:     true,
		visible:    true,
		components: deferred.New[Component](order.Ascending),
		graphics:   NewGraphicList(),
	}
	e.components.SetOwner(h)
	e.graphics.SetOwner(h)
	return e
}

func (e *Entity) Handle() ecs.Handle { return e.handle }
func (e *Entity) Name() string       { return e.name }
func (e *Entity) Order() int         { return e.order }

// SortKey implements deferred.Member.
func (e *Entity) SortKey() int { return e.order }

// OnAdmitted implements deferred.Member. Components added before the
// entity joined a scene become active here.
func (e *Entity) OnAdmitted(owner ecs.Handle) {
	e.scene = owner
	e.pendingScene = 0
	e.components.Reconcile()
}

// OnEvicted implements deferred.Member.
func (e *Entity) OnEvicted() {
	e.scene = 0
}

// SceneHandle returns the owning scene's handle, zero when not in a scene.
func (e *Entity) SceneHandle() ecs.Handle { return e.scene }

// Scene resolves the owning scene.
func (e *Entity) Scene() (*Scene, bool) {
	if e.scene.IsZero() {
		return nil, false
	}
	return e.world.Scene(e.scene)
}

func (e *Entity) World() *World { return e.world }

// SetOrder changes the update order. The owning scene resorts at its next
// reconcile.
func (e *Entity) SetOrder(key int) {
	if e.order == key {
		return
	}
	e.order = key
	if s, ok := e.Scene(); ok {
		s.entities.MarkOrderDirty()
	}
}

func (e *Entity) Active() bool           { return e.active }
func (e *Entity) SetActive(v bool)       { e.active = v }
func (e *Entity) Visible() bool          { return e.visible }
func (e *Entity) SetVisible(v bool)      { e.visible = v }
func (e *Entity) Graphics() *GraphicList { return e.graphics }

// AddComponent requests c be attached. It runs from the next step on.
func (e *Entity) AddComponent(c Component) { e.components.RequestAdd(c) }

// RemoveComponent requests c be detached at the end of the current step.
func (e *Entity) RemoveComponent(c Component) { e.components.RequestRemove(c) }

// Components returns the attached components in update order.
func (e *Entity) Components() []Component { return e.components.Active() }

// ReorderComponents resorts components at the next reconcile. Call it after
// changing a component's order key.
func (e *Entity) ReorderComponents() { e.components.MarkOrderDirty() }

// AddGraphic attaches g immediately.
func (e *Entity) AddGraphic(g Graphic) { e.graphics.Add(g) }

// RemoveGraphic detaches g immediately.
func (e *Entity) RemoveGraphic(g Graphic) { e.graphics.Remove(g) }

// RemoveSelf asks the owning scene to drop this entity.
func (e *Entity) RemoveSelf() {
	if s, ok := e.Scene(); ok {
		s.Remove(e)
	}
}

// Update runs every component in order, then applies component changes
// requested while they ran.
func (e *Entity) Update() {
	for _, c := range e.components.Active() {
		c.Update(e)
	}
	e.components.Reconcile()
}

// Render submits the entity's visible graphics.
func (e *Entity) Render(r Renderer) {
	if !e.visible {
		return
	}
	e.graphics.Render(r)
}
