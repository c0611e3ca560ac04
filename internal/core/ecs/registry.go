package ecs

// Registry tracks every Store so a released handle is dropped from all of them.
type Registry struct {
	stores []Removable
}

func NewRegistry() *Registry {
	return &Registry{
		stores: make([]Removable, 0, 4),
	}
}

// Register adds a store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears the given handle from every registered store.
func (r *Registry) RemoveAll(h Handle) {
	for _, s := range r.stores {
		s.Remove(h)
	}
}
