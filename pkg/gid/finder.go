package gid

import (
	"context"
	"fmt"
	"sync"

	"github.com/jdziat/backgrounder/pkg/core"
)

// FindFunc loads one object of a model by id.
type FindFunc func(ctx context.Context, id string) (any, error)

// FinderLocator locates objects through per-model find functions.
type FinderLocator struct {
	app     string
	mu      sync.RWMutex
	finders map[string]FindFunc
}

// NewFinderLocator creates a locator for ids issued by app.
func NewFinderLocator(app string) *FinderLocator {
	return &FinderLocator{
		app:     app,
		finders: make(map[string]FindFunc),
	}
}

// Register installs the find function for model.
func (l *FinderLocator) Register(model string, find FindFunc) {
	if find == nil {
		panic(fmt.Sprintf("gid: nil finder for model %q", model))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finders[model] = find
}

// Locate implements Locator.
func (l *FinderLocator) Locate(ctx context.Context, id GlobalID) (any, error) {
	if id.App != l.app {
		return nil, fmt.Errorf("%w: app %q, expected %q", core.ErrNotLocatable, id.App, l.app)
	}

	l.mu.RLock()
	find, ok := l.finders[id.Model]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no finder for model %q", core.ErrNotLocatable, id.Model)
	}
	return find(ctx, id.ID)
}
