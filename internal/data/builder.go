package data

import (
	"fmt"

	"github.com/l1jgo/framecore/internal/core/scene"
)

// ComponentFactory turns a component spec into a component.
type ComponentFactory func(w *scene.World, spec ComponentSpec) (scene.Component, error)

// Builder instantiates manifest scenes in a scene world.
type Builder struct {
	world   *scene.World
	factory ComponentFactory
}

func NewBuilder(w *scene.World, factory ComponentFactory) *Builder {
	return &Builder{world: w, factory: factory}
}

// Build creates every scene of m in manifest order. Entities are queued on
// their scene and become active when it begins.
func (b *Builder) Build(m *Manifest) ([]*scene.Scene, error) {
	out := make([]*scene.Scene, 0, len(m.Scenes))
	for i := range m.Scenes {
		s, err := b.BuildScene(&m.Scenes[i])
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// BuildScene creates one scene from spec.
func (b *Builder) BuildScene(spec *SceneSpec) (*scene.Scene, error) {
	s := b.world.NewScene(spec.Name)
	s.SetOwnsCamera(spec.OwnsCamera)
	cam := s.Camera()
	cam.X, cam.Y = spec.Camera.X, spec.Camera.Y

	for _, g := range spec.Graphics {
		s.AddGraphic(newSprite(g))
	}
	var created []*scene.Entity
	fail := func(err error) (*scene.Scene, error) {
		for _, e := range created {
			b.world.Destroy(e)
		}
		b.world.DestroyScene(s)
		return nil, err
	}
	for _, es := range spec.Entities {
		e := b.world.NewEntity(es.Name, es.Order)
		created = append(created, e)
		e.SetVisible(!es.Hidden)
		for _, cs := range es.Components {
			c, err := b.factory(b.world, cs)
			if err != nil {
				return fail(fmt.Errorf("scene %q: entity %q: %w", spec.Name, es.Name, err))
			}
			e.AddComponent(c)
		}
		for _, g := range es.Graphics {
			e.AddGraphic(newSprite(g))
		}
		s.Add(e)
	}
	return s, nil
}

func newSprite(g GraphicSpec) *scene.Sprite {
	sp := scene.NewSprite(g.Sprite, g.Layer, g.X, g.Y)
	sp.SetVisible(!g.Hidden)
	return sp
}
