// Package backgrounder runs a named method on an object in the background.
//
// A job names its target by global id (gid://app/Model/id) or by a
// registered type name, plus the method and positional arguments:
//
//	b := backgrounder.New(cfg, backend, backgrounder.WithLocator(locator))
//	b.RegisterType(Report{})
//
//	b.Queue(backgrounder.Queue("reports")).
//		PerformAsync(ctx, "Report", "generate", []any{42})
//
// Backends decide where the job runs: in-process (Inline, Fake), a SQL
// table polled by a Runner, a Sidekiq-compatible Redis queue, or asynq.
package backgrounder

import (
	"context"

	"github.com/jdziat/backgrounder/pkg/backend"
	"github.com/jdziat/backgrounder/pkg/config"
	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/dispatch"
	"github.com/jdziat/backgrounder/pkg/gid"
	"github.com/jdziat/backgrounder/pkg/registry"
	"github.com/jdziat/backgrounder/pkg/report"
	"github.com/jdziat/backgrounder/pkg/worker"
)

type (
	// Configuration holds queue defaults, reporting and logging settings.
	Configuration = config.Configuration

	// Descriptor is one method invocation.
	Descriptor = core.Descriptor

	// QueueOptions are the resolved options of a submission.
	QueueOptions = core.QueueOptions

	// Retry is a retry policy: off, on, or a retry count.
	Retry = core.Retry

	// Error is returned when a raised failure escapes the Worker.
	Error = core.Error

	// Backend accepts jobs.
	Backend = core.Backend

	// Performer runs jobs.
	Performer = core.Performer

	// Handle submits jobs with resolved options.
	Handle = dispatch.Handle

	// Option overrides a queue option for one submission.
	Option = dispatch.Option

	// WorkerOption configures the Worker.
	WorkerOption = worker.Option

	// Outcome is the terminal state of a performed job.
	Outcome = worker.Outcome

	// Reporter forwards failures to an error tracker.
	Reporter = report.Reporter

	// Locator resolves global ids.
	Locator = gid.Locator
)

var (
	RetryOn  = core.RetryOn
	RetryOff = core.RetryOff
)

// Re-exported constructors and options.
var (
	NewConfiguration     = config.New
	Configure            = config.Configure
	NewDescriptor        = core.NewDescriptor
	WithRaise            = core.WithRaise
	WithExceptionHandler = core.WithExceptionHandler
	RetryLimit           = core.RetryLimit
	Queue                = dispatch.Queue
	WithRetry            = dispatch.Retry
	Backtrace            = dispatch.Backtrace
	Pool                 = dispatch.Pool
	FromMap              = dispatch.FromMap
	WithLocator          = worker.WithLocator
	WithReporter         = worker.WithReporter
)

// Backgrounder bundles a Configuration, the registered types, the Worker
// that performs jobs and the Dispatcher that submits them.
type Backgrounder struct {
	config     *config.Configuration
	types      *registry.Registry
	worker     *worker.Worker
	dispatcher *dispatch.Dispatcher
}

// New creates a Backgrounder. A nil cfg means NewConfiguration(); a nil
// backend runs jobs inline through the Worker.
func New(cfg *Configuration, b Backend, opts ...WorkerOption) *Backgrounder {
	if cfg == nil {
		cfg = config.New()
	}
	types := registry.New()
	w := worker.New(cfg, types, opts...)
	if b == nil {
		b = backend.NewInline(w)
	}
	return &Backgrounder{
		config:     cfg,
		types:      types,
		worker:     w,
		dispatcher: dispatch.New(cfg, b),
	}
}

// Config returns the Configuration.
func (b *Backgrounder) Config() *Configuration {
	return b.config
}

// Register makes name instantiable through factory.
func (b *Backgrounder) Register(name string, factory registry.Factory) {
	b.types.Register(name, factory)
}

// RegisterType registers prototype's type under its Go name and returns it.
func (b *Backgrounder) RegisterType(prototype any) string {
	return b.types.RegisterType(prototype)
}

// Worker returns the Worker, for use as the Performer of servers and runners.
func (b *Backgrounder) Worker() *worker.Worker {
	return b.worker
}

// Queue returns a submission handle with opts applied over the Configuration.
func (b *Backgrounder) Queue(opts ...Option) *Handle {
	return b.dispatcher.Queue(opts...)
}

// PerformAsync submits a job with the configured defaults.
func (b *Backgrounder) PerformAsync(ctx context.Context, identifier, method string, args []any) (string, error) {
	return b.Queue().PerformAsync(ctx, identifier, method, args)
}

// Perform runs d immediately in the calling goroutine.
func (b *Backgrounder) Perform(ctx context.Context, d Descriptor) error {
	return b.worker.Perform(ctx, d)
}
