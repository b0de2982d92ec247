package worker

import (
	"context"
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/jdziat/backgrounder/pkg/config"
	"github.com/jdziat/backgrounder/pkg/core"
	"github.com/jdziat/backgrounder/pkg/gid"
	"github.com/jdziat/backgrounder/pkg/registry"
	"github.com/jdziat/backgrounder/pkg/report"
)

// Name prefixes the Worker's "running" log line.
const Name = "backgrounder.Worker"

// Outcome is the terminal state of one invocation.
type Outcome int

const (
	// Unresolved: the type name could not be instantiated; the error is returned.
	Unresolved Outcome = iota
	// NotFound: the object was absent; nothing was invoked.
	NotFound
	Succeeded
	// HandledFailure: the exception handler method received the error.
	HandledFailure
	// ReportedFailure: the error was logged and swallowed.
	ReportedFailure
	// RaisedFailure: a *core.Error was returned.
	RaisedFailure
)

func (o Outcome) String() string {
	switch o {
	case Unresolved:
		return "unresolved"
	case NotFound:
		return "not_found"
	case Succeeded:
		return "succeeded"
	case HandledFailure:
		return "handled_failure"
	case ReportedFailure:
		return "reported_failure"
	case RaisedFailure:
		return "raised_failure"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Worker performs job descriptors.
type Worker struct {
	config   *config.Configuration
	types    *registry.Registry
	locator  gid.Locator
	reporter report.Reporter
}

// Option configures a Worker.
type Option interface {
	ApplyWorker(*Worker)
}

type optionFunc func(*Worker)

func (f optionFunc) ApplyWorker(w *Worker) { f(w) }

// WithLocator sets the Locator used for global ids. Without one every
// global id resolves to "not found".
func WithLocator(l gid.Locator) Option {
	return optionFunc(func(w *Worker) {
		w.locator = l
	})
}

// WithReporter sets the error tracker used when UseErrorReporting is on.
func WithReporter(r report.Reporter) Option {
	return optionFunc(func(w *Worker) {
		w.reporter = r
	})
}

// New creates a Worker. A nil cfg means config.New(); a nil types means an
// empty registry.
func New(cfg *config.Configuration, types *registry.Registry, opts ...Option) *Worker {
	if cfg == nil {
		cfg = config.New()
	}
	if types == nil {
		types = registry.New()
	}
	w := &Worker{
		config: cfg,
		types:  types,
	}
	for _, opt := range opts {
		opt.ApplyWorker(w)
	}
	return w
}

// Perform implements core.Performer.
func (w *Worker) Perform(ctx context.Context, d core.Descriptor) error {
	_, err := w.Run(ctx, d)
	return err
}

// Run performs d and reports which terminal state it reached.
func (w *Worker) Run(ctx context.Context, d core.Descriptor) (Outcome, error) {
	log := w.config.Log()

	object, class, err := w.resolve(ctx, d.Identifier)
	if err != nil {
		return Unresolved, err
	}
	log.Debugf("%s: found/instantiated object", class)

	if isBlank(object) {
		log.Errorf("%q not found to call %q on, exiting...", d.Identifier, d.Method)
		return NotFound, nil
	}

	log.Infof("%s: running: %s#%s, method_args: %s", Name, class, d.Method, core.Inspect(d.Args))

	callErr := registry.Call(ctx, object, d.Method, d.Args)
	if callErr == nil {
		return Succeeded, nil
	}

	if d.ExceptionHandler != "" {
		return HandledFailure, registry.Call(ctx, object, d.ExceptionHandler, []any{callErr})
	}

	msg := diagnostic(identity(object, class), d, callErr)
	w.notify(ctx, log, msg)

	if !d.RaiseOnError {
		log.Error(msg)
		return ReportedFailure, nil
	}
	return RaisedFailure, &core.Error{Message: msg, Err: callErr}
}

// resolve returns the target object and the class name it is logged under:
// the registered name for type names, the Go type name for located objects.
func (w *Worker) resolve(ctx context.Context, identifier string) (any, string, error) {
	if gid.Is(identifier) {
		object := w.locate(ctx, identifier)
		return object, core.TypeName(object), nil
	}
	object, err := w.types.Instantiate(identifier)
	if err != nil {
		return nil, "", err
	}
	return object, identifier, nil
}

// locate treats every failure as "not found".
func (w *Worker) locate(ctx context.Context, identifier string) any {
	if w.locator == nil {
		return nil
	}
	id, err := gid.Parse(identifier)
	if err != nil {
		return nil
	}
	object, err := w.locator.Locate(ctx, id)
	if err != nil {
		w.config.Log().WithError(err).Debugf("locating %s failed", identifier)
		return nil
	}
	return object
}

func (w *Worker) notify(ctx context.Context, log logrus.FieldLogger, msg string) {
	if w.reporter == nil || !w.config.UseErrorReporting {
		return
	}
	if err := w.reporter.Notify(ctx, report.NewNotice(msg)); err != nil {
		log.Errorf("%s: error report failed: %v", Name, err)
	}
}

// diagnostic describes a failed invocation for logs, reports and raised errors.
// The error's stack is included only when one was recorded, as for panics.
func diagnostic(class string, d core.Descriptor, err error) string {
	return fmt.Sprintf("class: %q, method: %q method_args: %s encountered_error: %s",
		class, d.Method, core.Inspect(d.Args), core.Sprint(err))
}

func identity(object any, class string) string {
	if ident, ok := object.(gid.Identifiable); ok {
		if id, err := ident.GlobalID(); err == nil {
			return id.String()
		}
	}
	return class
}

func isBlank(object any) bool {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return v.IsNil()
	}
	return false
}
