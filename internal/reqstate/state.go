// Package reqstate holds the per-request scratch state shared by the hooks
// that run while a single HTTP request is handled. A State is created fresh
// for every request and travels on the request context.
package reqstate

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type ctxKey struct{}

// State is owned by exactly one request.
type State struct {
	mu sync.Mutex

	convertToPDF       *bool
	convertIDs         map[uuid.UUID]struct{}
	conversionNotified bool
	flashes            []string
}

func New() *State {
	return &State{convertIDs: make(map[uuid.UUID]struct{})}
}

// WithState returns a child context carrying s.
func WithState(ctx context.Context, s *State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// From returns the State attached to ctx, or nil outside a request.
func From(ctx context.Context) *State {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxKey{}).(*State)
	return s
}

// SetConvertToPDF records the user's conversion choice.
func (s *State) SetConvertToPDF(v bool) {
	s.mu.Lock()
	s.convertToPDF = &v
	s.mu.Unlock()
}

// ConvertToPDF reports the user's conversion choice. Unset means false.
func (s *State) ConvertToPDF() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convertToPDF != nil && *s.convertToPDF
}

func (s *State) MarkForConversion(id uuid.UUID) {
	s.mu.Lock()
	s.convertIDs[id] = struct{}{}
	s.mu.Unlock()
}

func (s *State) MarkedForConversion(id uuid.UUID) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.convertIDs[id]
	return ok
}

// NotifyConversionOnce returns true the first time it is called for this
// request and false afterwards.
func (s *State) NotifyConversionOnce() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conversionNotified {
		return false
	}
	s.conversionNotified = true
	return true
}

// Flash queues a user-facing notice for the response.
func (s *State) Flash(msg string) {
	s.mu.Lock()
	s.flashes = append(s.flashes, msg)
	s.mu.Unlock()
}

func (s *State) Flashes() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.flashes))
	copy(out, s.flashes)
	return out
}
