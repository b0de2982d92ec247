package dispatch

import (
	"context"
	"errors"

	"github.com/jdziat/backgrounder/pkg/config"
	"github.com/jdziat/backgrounder/pkg/core"
)

// ErrNoBackend is returned when a Handle has nothing to submit to.
var ErrNoBackend = errors.New("dispatch: no backend configured")

// Dispatcher creates submission handles bound to a Configuration and a backend.
type Dispatcher struct {
	config  *config.Configuration
	backend core.Backend
}

// New creates a Dispatcher. A nil cfg means config.New().
func New(cfg *config.Configuration, backend core.Backend) *Dispatcher {
	if cfg == nil {
		cfg = config.New()
	}
	return &Dispatcher{config: cfg, backend: backend}
}

// Queue resolves opts over the Configuration and returns a Handle for
// submitting jobs with the result.
func (d *Dispatcher) Queue(opts ...Option) *Handle {
	var o overrides
	for _, opt := range opts {
		opt.Apply(&o)
	}
	return &Handle{
		options: merge(d.config, o),
		backend: d.backend,
		config:  d.config,
	}
}

func merge(cfg *config.Configuration, o overrides) core.QueueOptions {
	resolved := cfg.QueueOptions()
	if o.queue != nil {
		resolved.Queue = *o.queue
	}
	if o.retry != nil {
		resolved.Retry = *o.retry
	}
	if o.backtrace != nil {
		resolved.Backtrace = *o.backtrace
	}
	if o.pool != nil && *o.pool != "" {
		resolved.Pool = *o.pool
	}
	return resolved
}

// Handle submits descriptors with a fixed set of resolved options.
type Handle struct {
	options core.QueueOptions
	backend core.Backend
	config  *config.Configuration
}

// Options returns the resolved queue options.
func (h *Handle) Options() core.QueueOptions {
	return h.options
}

// Submit hands d to the backend and returns the job ID it assigned.
func (h *Handle) Submit(ctx context.Context, d core.Descriptor) (string, error) {
	if h.backend == nil {
		return "", ErrNoBackend
	}
	id, err := h.backend.Submit(ctx, h.options, d)
	if err != nil {
		return "", err
	}
	h.config.Log().WithField("queue", h.options.Queue).Debugf("submitted %s#%s as %s", d.Identifier, d.Method, id)
	return id, nil
}

// PerformAsync submits a descriptor with the default failure policy.
func (h *Handle) PerformAsync(ctx context.Context, identifier, method string, args []any) (string, error) {
	return h.Submit(ctx, core.NewDescriptor(identifier, method, args))
}
