package job

import (
	"context"
	"sync"
)

// slot is the job's share of the build-wide concurrency cap. The token is
// held while the command runs and lent back while every session of the
// command is blocked on a dynamic input, so nested jobs can proceed.
type slot struct {
	sem Slots

	mu   sync.Mutex
	held bool
	lent int
}

func (s *slot) acquire(ctx context.Context) error {
	if s.sem == nil {
		return nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
	return nil
}

func (s *slot) release() {
	if s.sem == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.held {
		s.held = false
		s.sem.Release(1)
	}
}

func (s *slot) lend() {
	if s.sem == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lent++
	if s.held {
		s.held = false
		s.sem.Release(1)
	}
}

func (s *slot) reclaim(ctx context.Context) error {
	if s.sem == nil {
		return nil
	}

	s.mu.Lock()
	s.lent--
	need := s.lent == 0 && !s.held
	s.mu.Unlock()

	if !need {
		return nil
	}
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another session blocked while we were waiting for the token.
	if s.lent > 0 || s.held {
		s.sem.Release(1)
		return nil
	}
	s.held = true
	return nil
}
