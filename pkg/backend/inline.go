package backend

import (
	"context"

	"github.com/google/uuid"

	"github.com/jdziat/backgrounder/pkg/core"
)

// Inline performs each job during Submit and returns the performer's error.
type Inline struct {
	performer core.Performer
}

// NewInline creates an Inline backend running jobs through p.
func NewInline(p core.Performer) *Inline {
	return &Inline{performer: p}
}

// Submit runs d immediately.
func (b *Inline) Submit(ctx context.Context, _ core.QueueOptions, d core.Descriptor) (string, error) {
	id := uuid.New().String()
	if err := b.performer.Perform(ctx, d); err != nil {
		return id, err
	}
	return id, nil
}
