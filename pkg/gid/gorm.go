package gid

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"gorm.io/gorm"

	"github.com/jdziat/backgrounder/pkg/core"
)

// GormLocator loads models by primary key through GORM.
type GormLocator struct {
	app    string
	db     *gorm.DB
	mu     sync.RWMutex
	models map[string]reflect.Type
}

// NewGormLocator creates a locator for ids issued by app, backed by db.
func NewGormLocator(app string, db *gorm.DB) *GormLocator {
	return &GormLocator{
		app:    app,
		db:     db,
		models: make(map[string]reflect.Type),
	}
}

// Register maps model to the struct type of prototype, e.g. Register("User", &User{}).
func (l *GormLocator) Register(model string, prototype any) {
	t := reflect.TypeOf(prototype)
	if t == nil {
		panic(fmt.Sprintf("gid: nil prototype for model %q", model))
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("gid: prototype for model %q must be a struct, got %s", model, t))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.models[model] = t
}

// Locate implements Locator. A missing row yields (nil, nil).
func (l *GormLocator) Locate(ctx context.Context, id GlobalID) (any, error) {
	if id.App != l.app {
		return nil, fmt.Errorf("%w: app %q, expected %q", core.ErrNotLocatable, id.App, l.app)
	}

	l.mu.RLock()
	t, ok := l.models[id.Model]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: model %q is not registered", core.ErrNotLocatable, id.Model)
	}

	dest := reflect.New(t).Interface()
	err := l.db.WithContext(ctx).First(dest, "id = ?", id.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dest, nil
}
