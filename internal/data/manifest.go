package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes the scenes a run starts with.
type Manifest struct {
	Initial string      `yaml:"initial"`
	Scenes  []SceneSpec `yaml:"scenes"`
}

type SceneSpec struct {
	Name       string        `yaml:"name"`
	OwnsCamera bool          `yaml:"owns_camera"`
	Camera     PointSpec     `yaml:"camera"`
	Entities   []EntitySpec  `yaml:"entities"`
	Graphics   []GraphicSpec `yaml:"graphics"`
}

type EntitySpec struct {
	Name       string          `yaml:"name"`
	Order      int             `yaml:"order"`
	Hidden     bool            `yaml:"hidden"`
	Components []ComponentSpec `yaml:"components"`
	Graphics   []GraphicSpec   `yaml:"graphics"`
}

// ComponentSpec names a scripted behaviour and its order on the entity.
type ComponentSpec struct {
	Behavior string `yaml:"behavior"`
	Order    int    `yaml:"order"`
}

type GraphicSpec struct {
	Sprite string  `yaml:"sprite"`
	Layer  int     `yaml:"layer"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Hidden bool    `yaml:"hidden"`
}

type PointSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// LoadManifest loads and validates a scene manifest.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := ParseManifest(raw)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates manifest YAML.
func ParseManifest(raw []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks names and references. All problems are reported.
func (m *Manifest) Validate() error {
	var errs []error
	if len(m.Scenes) == 0 {
		errs = append(errs, errors.New("no scenes"))
	}
	seen := make(map[string]bool, len(m.Scenes))
	for i, s := range m.Scenes {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("scene %d: missing name", i))
			continue
		}
		if seen[s.Name] {
			errs = append(errs, fmt.Errorf("scene %q: duplicate name", s.Name))
		}
		seen[s.Name] = true
		for j, e := range s.Entities {
			if e.Name == "" {
				errs = append(errs, fmt.Errorf("scene %q: entity %d: missing name", s.Name, j))
			}
			for k, c := range e.Components {
				if c.Behavior == "" {
					errs = append(errs, fmt.Errorf("scene %q: entity %q: component %d: missing behavior", s.Name, e.Name, k))
				}
			}
			errs = append(errs, checkGraphics(s.Name+"/"+e.Name, e.Graphics)...)
		}
		errs = append(errs, checkGraphics(s.Name, s.Graphics)...)
	}
	if m.Initial == "" {
		errs = append(errs, errors.New("initial scene not set"))
	} else if !seen[m.Initial] {
		errs = append(errs, fmt.Errorf("initial scene %q not defined", m.Initial))
	}
	return errors.Join(errs...)
}

func checkGraphics(where string, gs []GraphicSpec) []error {
	var errs []error
	for i, g := range gs {
		if g.Sprite == "" {
			errs = append(errs, fmt.Errorf("%s: graphic %d: missing sprite", where, i))
		}
	}
	return errs
}

// Scene returns the spec with the given name.
func (m *Manifest) Scene(name string) (*SceneSpec, bool) {
	for i := range m.Scenes {
		if m.Scenes[i].Name == name {
			return &m.Scenes[i], true
		}
	}
	return nil, false
}

// Counts returns the number of scenes, entities and components declared.
func (m *Manifest) Counts() (scenes, entities, components int) {
	scenes = len(m.Scenes)
	for _, s := range m.Scenes {
		entities += len(s.Entities)
		for _, e := range s.Entities {
			components += len(e.Components)
		}
	}
	return scenes, entities, components
}
