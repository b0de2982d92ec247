package dispatch

import (
	"fmt"
	"strings"

	"github.com/jdziat/backgrounder/pkg/core"
)

// overrides records which keys a caller supplied. A nil field is absent.
type overrides struct {
	queue     *string
	retry     *core.Retry
	backtrace *bool
	pool      *string
}

// Option overrides one queue option for a single submission. An applied
// option wins over the Configuration even when its value is empty or false.
type Option interface {
	Apply(*overrides)
}

type optionFunc func(*overrides)

func (f optionFunc) Apply(o *overrides) { f(o) }

// Queue sets the queue name.
func Queue(name string) Option {
	return optionFunc(func(o *overrides) {
		o.queue = &name
	})
}

// Retry sets the retry policy.
func Retry(r core.Retry) Option {
	return optionFunc(func(o *overrides) {
		o.retry = &r
	})
}

// Backtrace sets whether failure backtraces are kept.
func Backtrace(enabled bool) Option {
	return optionFunc(func(o *overrides) {
		o.backtrace = &enabled
	})
}

// Pool selects a named worker pool. An empty name falls back to the
// configured pool.
func Pool(name string) Option {
	return optionFunc(func(o *overrides) {
		o.pool = &name
	})
}

// FromMap converts a mapping with the keys queue, retry, backtrace and pool
// into options. Keys may carry a leading ':'. Other keys are ignored.
func FromMap(m map[string]any) ([]Option, error) {
	var opts []Option
	for key, value := range m {
		switch strings.TrimPrefix(key, ":") {
		case "queue":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("dispatch: queue must be a string, got %T", value)
			}
			opts = append(opts, Queue(s))
		case "retry":
			r, err := core.ParseRetry(value)
			if err != nil {
				return nil, fmt.Errorf("dispatch: %w", err)
			}
			opts = append(opts, Retry(r))
		case "backtrace":
			b, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("dispatch: backtrace must be a bool, got %T", value)
			}
			opts = append(opts, Backtrace(b))
		case "pool":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("dispatch: pool must be a string, got %T", value)
			}
			opts = append(opts, Pool(s))
		}
	}
	return opts, nil
}
