package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jdziat/backgrounder/pkg/core"
)

// Router forwards submissions to the backend registered for their pool.
// Submissions without a pool go to the default backend.
type Router struct {
	mu       sync.RWMutex
	fallback core.Backend
	pools    map[string]core.Backend
}

// NewRouter creates a Router with fallback as the default backend.
func NewRouter(fallback core.Backend) *Router {
	return &Router{
		fallback: fallback,
		pools:    make(map[string]core.Backend),
	}
}

// Handle registers b for pool name.
func (r *Router) Handle(pool string, b core.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[pool] = b
}

// Pools returns the registered pool names in sorted order.
func (r *Router) Pools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.pools))
	for name := range r.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Submit implements core.Backend.
func (r *Router) Submit(ctx context.Context, opts core.QueueOptions, d core.Descriptor) (string, error) {
	b, err := r.route(opts.Pool)
	if err != nil {
		return "", err
	}
	return b.Submit(ctx, opts, d)
}

func (r *Router) route(pool string) (core.Backend, error) {
	if pool == "" {
		if r.fallback == nil {
			return nil, fmt.Errorf("%w: no default backend", core.ErrUnknownPool)
		}
		return r.fallback, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.pools[pool]
	if !ok {
		return nil, fmt.Errorf("%w %q", core.ErrUnknownPool, pool)
	}
	return b, nil
}
