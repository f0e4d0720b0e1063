package progress

import (
	"context"
	"errors"
	"sync"

	"photoflow/internal/logging"
)

// ErrCancelled is the distinct outcome of a cancelled batch operation.
// It is never conflated with an empty result or a transport failure.
var ErrCancelled = errors.New("operation cancelled")

// Flag is the cooperative cancellation flag for one logical operation
// instance. It is set at most once and never reset.
type Flag struct {
	once sync.Once
	done chan struct{}
}

// NewFlag returns an unset cancellation flag.
func NewFlag() *Flag {
	return &Flag{done: make(chan struct{})}
}

// Cancel sets the flag. Subsequent calls are no-ops.
func (f *Flag) Cancel() {
	f.once.Do(func() { close(f.done) })
}

// Cancelled reports whether the flag has been set.
func (f *Flag) Cancelled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the flag is set. It can be used to
// derive contexts that unwind when the operation is cancelled.
func (f *Flag) Done() <-chan struct{} {
	return f.done
}

// Check returns ErrCancelled if the flag is set or the context is done,
// and nil otherwise. It is called at the start of each unit of work and
// immediately after every suspension point.
func (f *Flag) Check(ctx context.Context) error {
	if f != nil && f.Cancelled() {
		return ErrCancelled
	}
	if ctx != nil && ctx.Err() != nil {
		return ErrCancelled
	}
	return nil
}

// Context returns a child of parent that is cancelled when the flag is
// set. The returned CancelFunc must be called to release resources.
func (f *Flag) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-f.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// Set is a collection of named monotonic counters owned by one batch
// operation.
type Set struct {
	mu       sync.Mutex
	counters map[string]*counter
	logger   logging.Logger
}

type counter struct {
	total int64
	value int64
}

// NewSet returns an empty counter set.
func NewSet(logger logging.Logger) *Set {
	return &Set{
		counters: make(map[string]*counter),
		logger:   logging.Or(logger),
	}
}

// Add registers a named counter with an expected total. Re-adding an
// existing name resets it.
func (s *Set) Add(name string, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] = &counter{total: total}
	s.logger.Debug("progress counter %q added (total %d)", name, total)
}

// Update increments the named counter by n. Unknown names are ignored.
func (s *Set) Update(name string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.counters[name]
	if !ok {
		return
	}
	c.value += n
}

// Value returns the current and total values of the named counter.
func (s *Set) Value(name string) (value, total int64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, found := s.counters[name]
	if !found {
		return 0, 0, false
	}
	return c.value, c.total, true
}

// Remove drops the named counter. Removing an unknown name is a no-op.
func (s *Set) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[name]; ok {
		s.logger.Debug("progress counter %q removed at %d/%d", name, c.value, c.total)
		delete(s.counters, name)
	}
}

// Finish drops all counters. Called when the batch completes or is
// cancelled.
func (s *Set) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]*counter)
}
