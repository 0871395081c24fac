package layer

import (
	"fmt"
	"slices"

	"github.com/born-ml/pocket/internal/serialization"
)

// Factory decodes one layer's fields (the kind tag is already consumed).
// It returns no layer when the fields cannot be read or are invalid.
type Factory func(r *serialization.Reader) (Layer, error)

// Registry maps layer kinds to their factories.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry creates a registry with all built-in layers.
func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[Kind]Factory),
	}

	r.Register(KindDense, factory(ReadDense))
	r.Register(KindActivation, factory(ReadActivation))
	r.Register(KindAveragePooling1D, factory(ReadAveragePooling1D))
	r.Register(KindGlobalAveragePooling1D, factory(ReadGlobalAveragePooling1D))

	return r
}

// factory adapts a concrete reader to Factory, returning a nil Layer on error.
func factory[L Layer](read func(*serialization.Reader) (L, error)) Factory {
	return func(s *serialization.Reader) (Layer, error) {
		l, err := read(s)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}

// Register adds or replaces the factory for a kind.
func (r *Registry) Register(kind Kind, f Factory) {
	r.factories[kind] = f
}

// Get returns the factory for a kind.
func (r *Registry) Get(kind Kind) (Factory, bool) {
	f, ok := r.factories[kind]
	return f, ok
}

// Read consumes a kind tag from s and decodes the matching layer.
func (r *Registry) Read(s *serialization.Reader) (Layer, error) {
	tag, err := s.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("layer kind parse failed: %w", err)
	}

	kind := Kind(tag)
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, tag)
	}

	l, err := f(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return l, nil
}

// Kinds returns the registered kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
