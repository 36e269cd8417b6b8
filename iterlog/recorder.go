package iterlog

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder is an append-only, concurrency-safe step collector.
type Recorder struct {
	mu    sync.Mutex
	runID string
	clock func() time.Time
	steps []Step
}

// RecorderOption configures NewRecorder.
type RecorderOption func(*Recorder)

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.clock = now
		}
	}
}

// WithRunID sets the run id instead of generating one.
func WithRunID(id string) RecorderOption {
	return func(r *Recorder) {
		if id != "" {
			r.runID = id
		}
	}
}

// NewRecorder returns an empty recorder with a fresh run id.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{clock: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r
}

// Record appends s, assigning its Index and, when unset, its Timestamp and
// Severity. Slices are copied. It returns the assigned index. A nil recorder
// discards the step and returns -1.
func (r *Recorder) Record(s Step) int {
	if r == nil {
		return -1
	}
	s = s.clone()
	if s.Severity == "" {
		s.Severity = Info
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s.Timestamp.IsZero() {
		s.Timestamp = r.clock()
	}
	s.Index = len(r.steps)
	r.steps = append(r.steps, s)
	return s.Index
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

// RunID returns the run id.
func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

// Log returns a point-in-time immutable copy of the recorded steps.
func (r *Recorder) Log() *Log {
	if r == nil {
		return &Log{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &Log{runID: r.runID, steps: make([]Step, len(r.steps))}
	for i, s := range r.steps {
		out.steps[i] = s.clone()
	}
	return out
}
