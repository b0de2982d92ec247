package core

// QueueOptions holds the resolved execution parameters of a submission.
// An empty Pool means no pool was configured.
type QueueOptions struct {
	Queue     string
	Retry     Retry
	Backtrace bool
	Pool      string
}

// Map renders the options as the mapping handed to a backend.
// The pool key is only present when a pool is set.
func (o QueueOptions) Map() map[string]any {
	m := map[string]any{
		"queue":     o.Queue,
		"retry":     o.Retry,
		"backtrace": o.Backtrace,
	}
	if o.Pool != "" {
		m["pool"] = o.Pool
	}
	return m
}
