package backend

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jdziat/backgrounder/pkg/core"
)

// Submission is one job accepted by a Fake backend.
type Submission struct {
	ID         string
	Options    core.QueueOptions
	Descriptor core.Descriptor
}

// Fake records submissions instead of running them.
type Fake struct {
	mu   sync.Mutex
	jobs []Submission
}

// NewFake creates an empty Fake backend.
func NewFake() *Fake {
	return &Fake{}
}

// Submit records the job.
func (f *Fake) Submit(_ context.Context, opts core.QueueOptions, d core.Descriptor) (string, error) {
	id := uuid.New().String()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, Submission{ID: id, Options: opts, Descriptor: d})
	return id, nil
}

// Jobs returns a copy of the recorded submissions in submission order.
func (f *Fake) Jobs() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Submission, len(f.jobs))
	copy(out, f.jobs)
	return out
}

// Clear forgets every recorded submission.
func (f *Fake) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = nil
}

// Drain performs the recorded submissions in order and removes the ones
// that ran. It stops at the first error, leaving the failed job and the
// rest in place.
func (f *Fake) Drain(ctx context.Context, p core.Performer) error {
	for {
		f.mu.Lock()
		if len(f.jobs) == 0 {
			f.mu.Unlock()
			return nil
		}
		next := f.jobs[0]
		f.mu.Unlock()

		if err := p.Perform(ctx, next.Descriptor); err != nil {
			return err
		}

		f.mu.Lock()
		if len(f.jobs) > 0 && f.jobs[0].ID == next.ID {
			f.jobs = f.jobs[1:]
		}
		f.mu.Unlock()
	}
}
