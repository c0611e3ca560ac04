package scene

import (
	"github.com/l1jgo/framecore/internal/core/ecs"
	"github.com/l1jgo/framecore/internal/core/order"
)

// Graphic is something drawn. Its layer key sorts descending: a higher layer
// is submitted earlier and sits further back.
type Graphic interface {
	SortKey() int
	OnAdmitted(owner ecs.Handle)
	OnEvicted()
	Visible() bool
	Render(r Renderer)
}

// BaseGraphic carries layer, visibility and owner bookkeeping.
type BaseGraphic struct {
	layer   int
	hidden  bool
	owner   ecs.Handle
	onLayer func()
}

func NewBaseGraphic(layer int) BaseGraphic {
	return BaseGraphic{layer: layer}
}

func (g *BaseGraphic) SortKey() int { return g.layer }
func (g *BaseGraphic) Layer() int   { return g.layer }

// SetLayer changes the layer and marks the owning list for a resort.
func (g *BaseGraphic) SetLayer(layer int) {
	if g.layer == layer {
		return
	}
	g.layer = layer
	if g.onLayer != nil {
		g.onLayer()
	}
}

func (g *BaseGraphic) Visible() bool     { return !g.hidden }
func (g *BaseGraphic) SetVisible(v bool) { g.hidden = !v }

func (g *BaseGraphic) OnAdmitted(owner ecs.Handle) { g.owner = owner }
func (g *BaseGraphic) OnEvicted()                  { g.owner = 0 }

// OwnerHandle returns the owning entity or scene handle.
func (g *BaseGraphic) OwnerHandle() ecs.Handle { return g.owner }

// Sprite is a named image at a position. What the name means is up to the
// renderer.
type Sprite struct {
	BaseGraphic
	Name string
	X, Y float64
}

func NewSprite(name string, layer int, x, y float64) *Sprite {
	return &Sprite{BaseGraphic: NewBaseGraphic(layer), Name: name, X: x, Y: y}
}

func (s *Sprite) Render(r Renderer) {
	r.Submit(DrawCommand{Layer: s.layer, Sprite: s.Name, X: s.X, Y: s.Y})
}

// layerNotifier is implemented by graphics embedding BaseGraphic.
type layerNotifier interface {
	notifyLayer(fn func())
}

func (g *BaseGraphic) notifyLayer(fn func()) { g.onLayer = fn }

// GraphicList holds the graphics of an entity or a scene. Membership
// changes apply immediately because nothing iterating the list also mutates
// it; only ordering is deferred until the next Render.
type GraphicList struct {
	owner   ecs.Handle
	items   []Graphic
	members map[Graphic]struct{}
	dirty   bool
	sorter  order.Sorter[Graphic]
	cmp     func(a, b Graphic) int
}

func NewGraphicList() *GraphicList {
	return &GraphicList{
		members: make(map[Graphic]struct{}),
		cmp:     order.By(Graphic.SortKey, order.Descending),
	}
}

func (l *GraphicList) SetOwner(owner ecs.Handle) { l.owner = owner }

// Add attaches g. Adding a member again is a no-op.
func (l *GraphicList) Add(g Graphic) {
	if _, ok := l.members[g]; ok {
		return
	}
	l.members[g] = struct{}{}
	l.items = append(l.items, g)
	l.dirty = true
	if n, ok := g.(layerNotifier); ok {
		n.notifyLayer(l.MarkOrderDirty)
	}
	g.OnAdmitted(l.owner)
}

// Remove detaches g. Removing a non-member is a no-op.
func (l *GraphicList) Remove(g Graphic) {
	if _, ok := l.members[g]; !ok {
		return
	}
	delete(l.members, g)
	for i, it := range l.items {
		if it == g {
			copy(l.items[i:], l.items[i+1:])
			l.items[len(l.items)-1] = nil
			l.items = l.items[:len(l.items)-1]
			break
		}
	}
	if n, ok := g.(layerNotifier); ok {
		n.notifyLayer(nil)
	}
	g.OnEvicted()
}

func (l *GraphicList) MarkOrderDirty() { l.dirty = true }

func (l *GraphicList) Len() int { return len(l.items) }

func (l *GraphicList) Contains(g Graphic) bool {
	_, ok := l.members[g]
	return ok
}

// Items returns the graphics in draw order.
func (l *GraphicList) Items() []Graphic {
	l.sort()
	return l.items
}

func (l *GraphicList) sort() {
	if l.dirty {
		l.sorter.Stable(l.items, l.cmp)
		l.dirty = false
	}
}

// Render submits every visible graphic, back to front.
func (l *GraphicList) Render(r Renderer) {
	l.sort()
	for _, g := range l.items {
		if g.Visible() {
			g.Render(r)
		}
	}
}

// Clear detaches every graphic.
func (l *GraphicList) Clear() {
	items := l.items
	l.items = nil
	clear(l.members)
	l.dirty = false
	for _, g := range items {
		if n, ok := g.(layerNotifier); ok {
			n.notifyLayer(nil)
		}
		g.OnEvicted()
	}
}
