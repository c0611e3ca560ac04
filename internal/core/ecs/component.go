package ecs

// Removable is implemented by every Store so the Registry can drop a
// released handle from all of them at once.
type Removable interface {
	Remove(h Handle)
}

// Store resolves handles to the objects they name.
// No reflect, no interface{}: pure generics.
type Store[T any] struct {
	data map[Handle]*T
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		data: make(map[Handle]*T, 64),
	}
}

func (s *Store[T]) Set(h Handle, v *T) {
	s.data[h] = v
}

func (s *Store[T]) Get(h Handle) (*T, bool) {
	v, ok := s.data[h]
	return v, ok
}

func (s *Store[T]) Remove(h Handle) {
	delete(s.data, h)
}

func (s *Store[T]) Has(h Handle) bool {
	_, ok := s.data[h]
	return ok
}

func (s *Store[T]) Len() int {
	return len(s.data)
}

// Each visits every entry in unspecified order.
func (s *Store[T]) Each(fn func(Handle, *T)) {
	for h, v := range s.data {
		fn(h, v)
	}
}
