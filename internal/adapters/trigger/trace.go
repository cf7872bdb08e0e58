package trigger

import (
	"errors"
	"sync"

	"go.trai.ch/seer/internal/core/domain"
)

// trace collects what the sessions of one command report.
type trace struct {
	mu       sync.Mutex
	accesses []domain.Access
	errs     error
}

func (t *trace) record(a domain.Access) {
	t.mu.Lock()
	t.accesses = append(t.accesses, a)
	t.mu.Unlock()
}

func (t *trace) fail(err error) {
	t.mu.Lock()
	t.errs = errors.Join(t.errs, err)
	t.mu.Unlock()
}

func (t *trace) result() ([]domain.Access, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.accesses, t.errs
}
