package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/security"
)

// Factory returns a fresh zero-argument instance of a registered type.
type Factory func() any

// Registry holds the types that can be instantiated by name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Factory
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{types: make(map[string]Factory)}
}

// Register makes name instantiable through factory.
// Type names may contain "::" namespace separators.
func (r *Registry) Register(name string, factory Factory) {
	if err := security.ValidateTypeName(name); err != nil {
		panic(fmt.Sprintf("backgrounder: invalid type name %q: %v", name, err))
	}
	if factory == nil {
		panic(fmt.Sprintf("backgrounder: nil factory for type %q", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = factory
}

// RegisterType registers prototype's struct type under its Go type name and
// returns that name. Instances are created as pointers to a zero value.
func (r *Registry) RegisterType(prototype any) string {
	t := reflect.TypeOf(prototype)
	if t == nil {
		panic("backgrounder: nil prototype")
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	r.Register(name, func() any {
		return reflect.New(t).Interface()
	})
	return name
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[name]
	return ok
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Instantiate returns a new instance of the named type.
func (r *Registry) Instantiate(name string) (obj any, err error) {
	r.mu.RLock()
	factory, ok := r.types[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownType, name)
	}

	defer func() {
		if p := recover(); p != nil {
			obj = nil
			err = fmt.Errorf("backgrounder: instantiating %s: panic: %v", name, p)
		}
	}()
	return factory(), nil
}
