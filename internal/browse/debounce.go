package browse

import (
	"sync"
	"time"
)

// DelayPolicy picks how long to wait after a content change before fetching.
// Search applies when only the search text is active. Filter applies when a
// year or rating filter is active.
type DelayPolicy struct {
	Search time.Duration
	Filter time.Duration
}

// DefaultDelayPolicy waits 1s after typing and 1.5s after a year or rating change.
func DefaultDelayPolicy() DelayPolicy {
	return DelayPolicy{Search: 1000 * time.Millisecond, Filter: 1500 * time.Millisecond}
}

// Delay returns the wait for a selection. Genre-only and unfiltered
// selections fetch immediately.
func (p DelayPolicy) Delay(f Filters) time.Duration {
	switch {
	case f.HasSearch() && !f.HasStructured():
		return p.Search
	case f.HasYearFilter() || f.HasRatingFilter():
		return p.Filter
	}
	return 0
}

// Scheduler runs at most one pending callback. Scheduling again replaces the
// pending callback, so only the last one runs.
type Scheduler struct {
	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	stopped bool
}

// Schedule arms fn to run after d, superseding any pending callback.
func (s *Scheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(d, func() {
		s.mu.Lock()
		// a timer that already fired can still lose to a later Schedule
		if s.gen != gen || s.stopped {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()
		fn()
	})
}

// Stop cancels the pending callback and refuses future ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

// Pending reports whether a callback is armed and has not started.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler) cancelLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
