package core

import "context"

// Backend accepts a descriptor for asynchronous execution and returns the job ID.
type Backend interface {
	Submit(ctx context.Context, opts QueueOptions, d Descriptor) (string, error)
}

// Performer executes a descriptor. The Worker implements it; backends call it
// when a job is due.
type Performer interface {
	Perform(ctx context.Context, d Descriptor) error
}

// PerformerFunc adapts a function to the Performer interface.
type PerformerFunc func(ctx context.Context, d Descriptor) error

func (f PerformerFunc) Perform(ctx context.Context, d Descriptor) error {
	return f(ctx, d)
}
