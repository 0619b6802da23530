package usecase

import (
	"context"
	"sync"

	"JobTriage/internal/domain"
)

// Rescanner re-queues a job from scratch.
type Rescanner interface {
	Rescan(ctx context.Context, url string) error
}

// DuplicateResolver holds the candidates reported by the last submission. The
// list never feeds into the job set.
type DuplicateResolver struct {
	mu         sync.Mutex
	candidates []domain.DuplicateCandidate
	rescanner  Rescanner
}

// NewDuplicateResolver builds an empty resolver delegating rescans to r.
func NewDuplicateResolver(r Rescanner) *DuplicateResolver {
	return &DuplicateResolver{rescanner: r}
}

// Replace installs the candidates of a new submission result.
func (d *DuplicateResolver) Replace(candidates []domain.DuplicateCandidate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.candidates = append([]domain.DuplicateCandidate(nil), candidates...)
}

// List returns a copy of the current candidates.
func (d *DuplicateResolver) List() []domain.DuplicateCandidate {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]domain.DuplicateCandidate(nil), d.candidates...)
}

// Dismiss drops the candidate for url and reports whether it was listed.
func (d *DuplicateResolver) Dismiss(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range d.candidates {
		if c.URL == url {
			d.candidates = append(d.candidates[:i:i], d.candidates[i+1:]...)
			return true
		}
	}
	return false
}

// Rescan re-queues url from scratch. The rescanner drops the candidate once
// that worked; on failure it stays listed.
func (d *DuplicateResolver) Rescan(ctx context.Context, url string) error {
	return d.rescanner.Rescan(ctx, url)
}

// Clear empties the list.
func (d *DuplicateResolver) Clear() {
	d.Replace(nil)
}
