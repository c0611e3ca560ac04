package scripting

import (
	"github.com/l1jgo/framecore/internal/core/ecs"
	"github.com/l1jgo/framecore/internal/core/scene"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Component runs a Lua behaviour as entity logic. Hooks receive an entity
// table:
//
//	e.name(), e.order(), e.set_order(n), e.remove(), e.destroy(),
//	e.spawn(name, behaviour, order), e.log(msg), e.state
//
// e.state persists across calls for this component. Methods accept both
// e.fn() and e:fn() call styles.
type Component struct {
	scene.BaseComponent
	engine   *Engine
	world    *scene.World
	behavior string

	entity *scene.Entity
	table  *lua.LTable
	state  *lua.LTable
}

// NewComponent binds behaviour to a new component. world resolves the
// owning entity on admission.
func (e *Engine) NewComponent(world *scene.World, behavior string, order int) *Component {
	return &Component{
		BaseComponent: scene.NewBaseComponent(order),
		engine:        e,
		world:         world,
		behavior:      behavior,
		state:         e.vm.NewTable(),
	}
}

func (c *Component) Behavior() string { return c.behavior }

// State is the table scripts see as e.state.
func (c *Component) State() *lua.LTable { return c.state }

// OnAdmitted implements deferred.Member.
func (c *Component) OnAdmitted(owner ecs.Handle) {
	c.BaseComponent.OnAdmitted(owner)
	ent, ok := c.world.Entity(owner)
	if !ok {
		c.engine.log.Warn("lua component admitted by unknown entity",
			zap.String("behavior", c.behavior),
			zap.Uint32("index", owner.Index()))
		return
	}
	c.bind(ent)
	c.engine.call(c.behavior, "admitted", c.table)
}

// OnEvicted implements deferred.Member.
func (c *Component) OnEvicted() {
	if c.table != nil {
		c.engine.call(c.behavior, "evicted", c.table)
	}
	c.BaseComponent.OnEvicted()
	c.entity = nil
}

// Update implements scene.Component.
func (c *Component) Update(e *scene.Entity) {
	if c.entity != e {
		c.bind(e)
	}
	dt := 0.0
	if s, ok := e.Scene(); ok && s.Host() != nil {
		dt = s.Host().Delta().Seconds()
	}
	c.engine.call(c.behavior, "update", c.table, lua.LNumber(dt))
}

// bind builds the entity table for ent.
func (c *Component) bind(ent *scene.Entity) {
	c.entity = ent
	if c.table != nil {
		return
	}
	L := c.engine.vm
	t := L.NewTable()
	t.RawSetString("state", c.state)
	set := func(name string, fn func(L *lua.LState, base int) int) {
		t.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			base := 0
			if L.GetTop() > 0 && L.Get(1) == t {
				base = 1
			}
			if c.entity == nil {
				return 0
			}
			return fn(L, base)
		}))
	}

	set("name", func(L *lua.LState, _ int) int {
		L.Push(lua.LString(c.entity.Name()))
		return 1
	})
	set("order", func(L *lua.LState, _ int) int {
		L.Push(lua.LNumber(c.entity.Order()))
		return 1
	})
	set("set_order", func(L *lua.LState, base int) int {
		c.entity.SetOrder(L.CheckInt(base + 1))
		return 0
	})
	set("remove", func(L *lua.LState, _ int) int {
		c.entity.RemoveSelf()
		return 0
	})
	set("destroy", func(L *lua.LState, _ int) int {
		c.world.Destroy(c.entity)
		return 0
	})
	set("log", func(L *lua.LState, base int) int {
		c.engine.log.Info("lua",
			zap.String("entity", c.entity.Name()),
			zap.String("msg", L.CheckString(base+1)))
		return 0
	})
	set("spawn", func(L *lua.LState, base int) int {
		name := L.CheckString(base + 1)
		behavior := L.CheckString(base + 2)
		order := L.OptInt(base+3, 0)
		s, ok := c.entity.Scene()
		if !ok {
			L.Push(lua.LFalse)
			return 1
		}
		child := c.world.NewEntity(name, order)
		child.AddComponent(c.engine.NewComponent(c.world, behavior, 0))
		s.Add(child)
		L.Push(lua.LTrue)
		return 1
	})
	c.table = t
}
