package position

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Source fans device-reported fixes out to continuous stream subscribers and
// to pending single-fix waiters, in arrival order per device.
type Source struct {
	timeout time.Duration

	mu      sync.Mutex
	streams map[string][]*Stream
	waiters map[string][]chan fixResult
}

// Stream is a continuous fix subscription. A stopped stream receives no
// further callbacks; the handle stays valid and StopStream stays a no-op.
type Stream struct {
	deviceID string
	onFix    func(Fix)
	onError  func(error)
	stopped  atomic.Bool
}

type fixResult struct {
	fix Fix
	err error
}

func NewSource(timeout time.Duration) *Source {
	return &Source{
		timeout: timeout,
		streams: map[string][]*Stream{},
		waiters: map[string][]chan fixResult{},
	}
}

func (s *Source) StartStream(deviceID string, onFix func(Fix), onError func(error)) *Stream {
	st := &Stream{deviceID: deviceID, onFix: onFix, onError: onError}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[deviceID] = append(s.streams[deviceID], st)
	return st
}

// StopStream is idempotent and safe to call with a nil or unknown handle.
func (s *Source) StopStream(st *Stream) {
	if st == nil || !st.stopped.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.streams[st.deviceID]
	for i, sub := range subs {
		if sub == st {
			s.streams[st.deviceID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.streams[st.deviceID]) == 0 {
		delete(s.streams, st.deviceID)
	}
}

// GetOneFix blocks until the device reports its next fix or error, or the
// configured timeout elapses.
func (s *Source) GetOneFix(ctx context.Context, deviceID string) (Fix, error) {
	ch := make(chan fixResult, 1)
	s.mu.Lock()
	s.waiters[deviceID] = append(s.waiters[deviceID], ch)
	s.mu.Unlock()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.fix, res.err
	case <-timer.C:
		s.removeWaiter(deviceID, ch)
		return Fix{}, ErrTimeout
	case <-ctx.Done():
		s.removeWaiter(deviceID, ch)
		return Fix{}, ctx.Err()
	}
}

// Publish delivers a fix to every open stream and pending waiter for the
// device. Callbacks run synchronously on the caller's goroutine.
func (s *Source) Publish(deviceID string, fix Fix) {
	subs, waiting := s.snapshot(deviceID)
	for _, st := range subs {
		if !st.stopped.Load() {
			st.onFix(fix)
		}
	}
	for _, ch := range waiting {
		ch <- fixResult{fix: fix}
	}
}

// PublishError delivers a device-reported geolocation failure. Streams are
// not terminated; subscribers decide what to do with the error.
func (s *Source) PublishError(deviceID string, code int) {
	err := errorFromCode(code)
	subs, waiting := s.snapshot(deviceID)
	for _, st := range subs {
		if !st.stopped.Load() && st.onError != nil {
			st.onError(err)
		}
	}
	for _, ch := range waiting {
		ch <- fixResult{err: err}
	}
}

func (s *Source) snapshot(deviceID string) ([]*Stream, []chan fixResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]*Stream, len(s.streams[deviceID]))
	copy(subs, s.streams[deviceID])
	waiting := s.waiters[deviceID]
	delete(s.waiters, deviceID)
	return subs, waiting
}

func (s *Source) removeWaiter(deviceID string, ch chan fixResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	waiting := s.waiters[deviceID]
	for i, w := range waiting {
		if w == ch {
			s.waiters[deviceID] = append(waiting[:i], waiting[i+1:]...)
			break
		}
	}
	if len(s.waiters[deviceID]) == 0 {
		delete(s.waiters, deviceID)
	}
}
