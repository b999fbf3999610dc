package testutil

import (
	"sync"

	"github.com/conclave-ai/conclave/internal/core"
)

var _ core.ProgressSink = (*ProgressRecorder)(nil)

// ProgressRecorder captures every progress event it receives.
type ProgressRecorder struct {
	mu     sync.Mutex
	events []core.ProgressEvent
}

// NewProgressRecorder creates an empty recorder.
func NewProgressRecorder() *ProgressRecorder {
	return &ProgressRecorder{}
}

// Notify implements core.ProgressSink.
func (r *ProgressRecorder) Notify(ev core.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events, in arrival order.
func (r *ProgressRecorder) Events() []core.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.ProgressEvent(nil), r.events...)
}

// OfType returns the recorded events matching the given type.
func (r *ProgressRecorder) OfType(t core.ProgressEventType) []core.ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []core.ProgressEvent
	for _, ev := range r.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
