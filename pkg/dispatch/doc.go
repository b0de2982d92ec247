// Package dispatch resolves per-submission queue options over a
// Configuration and hands job descriptors to a backend.
//
//	d := dispatch.New(cfg, backend)
//	id, err := d.Queue(dispatch.Queue("critical"), dispatch.Retry(core.RetryOn)).
//		PerformAsync(ctx, "Report", "generate", []any{42})
package dispatch
