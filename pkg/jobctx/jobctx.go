// Package jobctx exposes the job being performed to the invoked method.
//
// Backends that run jobs attach an Info to the context they pass to the
// Worker. Target methods that take a context.Context as their first
// parameter can read it back:
//
//	func (r *Report) Build(ctx context.Context, month string) error {
//		log.Printf("job %s attempt %d", jobctx.JobID(ctx), jobctx.Attempt(ctx))
//		...
//	}
package jobctx

import "context"

// Info describes the job currently being performed.
type Info struct {
	ID      string
	Queue   string
	Attempt int
}

type ctxKey struct{}

// With returns a copy of ctx carrying info.
func With(ctx context.Context, info Info) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the job Info and whether ctx carries one.
func FromContext(ctx context.Context) (Info, bool) {
	if ctx == nil {
		return Info{}, false
	}
	info, ok := ctx.Value(ctxKey{}).(Info)
	return info, ok
}

// JobID returns the current job id, or "" outside a job.
func JobID(ctx context.Context) string {
	info, _ := FromContext(ctx)
	return info.ID
}

// Attempt returns the current attempt number, or 0 outside a job.
func Attempt(ctx context.Context) int {
	info, _ := FromContext(ctx)
	return info.Attempt
}
