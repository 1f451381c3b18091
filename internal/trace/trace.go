// Package trace provides hierarchical span bookkeeping for pipeline runs.
// Every stage execution is attributable to one run via a parent span; a
// no-op tracer is used when tracing is disabled.
package trace

import (
	"sync"
	"time"
)

type Tracer interface {
	StartSpan(name string, meta map[string]any) Span
}

type Span interface {
	// StartSpan opens a child span.
	StartSpan(name string, meta map[string]any) Span
	SetData(data map[string]any)
	SetError(data map[string]any)
	Close()
}

// SpanRecord is the immutable snapshot form of a recorded span.
type SpanRecord struct {
	ID       int64
	ParentID int64
	Name     string
	Meta     map[string]any
	Data     map[string]any
	Error    map[string]any
	Started  time.Time
	Ended    time.Time
	Closed   bool
}

// Recorder is an in-memory tracer. Sibling spans may be appended
// concurrently; each span is written to only by the stage that owns it.
type Recorder struct {
	mu     sync.Mutex
	nextID int64
	spans  []*recordedSpan
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) StartSpan(name string, meta map[string]any) Span {
	return r.start(name, meta, 0)
}

func (r *Recorder) start(name string, meta map[string]any, parent int64) *recordedSpan {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	s := &recordedSpan{
		recorder: r,
		rec: SpanRecord{
			ID:       r.nextID,
			ParentID: parent,
			Name:     name,
			Meta:     meta,
			Started:  time.Now(),
		},
	}
	r.spans = append(r.spans, s)
	return s
}

// Snapshot returns copies of all spans started so far, in start order.
func (r *Recorder) Snapshot() []SpanRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]SpanRecord, len(r.spans))
	for i, s := range r.spans {
		s.mu.Lock()
		out[i] = s.rec
		s.mu.Unlock()
	}
	return out
}

type recordedSpan struct {
	recorder *Recorder
	mu       sync.Mutex
	rec      SpanRecord
}

func (s *recordedSpan) StartSpan(name string, meta map[string]any) Span {
	return s.recorder.start(name, meta, s.rec.ID)
}

func (s *recordedSpan) SetData(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Data = data
}

func (s *recordedSpan) SetError(data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Error = data
}

func (s *recordedSpan) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec.Closed {
		return
	}
	s.rec.Closed = true
	s.rec.Ended = time.Now()
}

// Nop returns a tracer that records nothing.
func Nop() Tracer {
	return nopTracer{}
}

type nopTracer struct{}

func (nopTracer) StartSpan(string, map[string]any) Span { return nopSpan{} }

type nopSpan struct{}

func (nopSpan) StartSpan(string, map[string]any) Span { return nopSpan{} }
func (nopSpan) SetData(map[string]any)                {}
func (nopSpan) SetError(map[string]any)               {}
func (nopSpan) Close()                                {}
