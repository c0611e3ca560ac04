package scene

import "github.com/l1jgo/framecore/internal/core/ecs"

// Component is per-entity logic. Its order key sequences updates within
// the entity; lower runs first.
type Component interface {
	SortKey() int
	OnAdmitted(owner ecs.Handle)
	OnEvicted()
	Update(e *Entity)
}

// BaseComponent carries the membership bookkeeping. Embed it and add Update.
type BaseComponent struct {
	order  int
	entity ecs.Handle
}

func NewBaseComponent(order int) BaseComponent {
	return BaseComponent{order: order}
}

func (c *BaseComponent) SortKey() int { return c.order }
func (c *BaseComponent) Order() int   { return c.order }

// SetOrder changes the key; follow with Entity.ReorderComponents.
func (c *BaseComponent) SetOrder(order int) { c.order = order }

func (c *BaseComponent) OnAdmitted(owner ecs.Handle) { c.entity = owner }
func (c *BaseComponent) OnEvicted()                  { c.entity = 0 }

// EntityHandle returns the owning entity's handle, zero when detached.
func (c *BaseComponent) EntityHandle() ecs.Handle { return c.entity }

// Attached reports whether the component is active on an entity.
func (c *BaseComponent) Attached() bool { return !c.entity.IsZero() }

// Func adapts a plain function into a component.
type Func struct {
	BaseComponent
	fn func(e *Entity)
}

func NewFunc(order int, fn func(e *Entity)) *Func {
	return &Func{BaseComponent: NewBaseComponent(order), fn: fn}
}

func (f *Func) Update(e *Entity) { f.fn(e) }
