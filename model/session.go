package model

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session is the explicit context passed into every pass, replacing
// the global singletons and static counters of the source design
// (Design Notes: "Registry::instance(), static counters like
// unique_ctr"). It owns the monotonic handle counters and carries the
// Config and logger every pass needs.
type Session struct {
	Config Config
	Log    *zap.Logger

	// RunID correlates log lines for one compilation; it is never
	// written into the emitted binary artifact (§6, §4.5: "identical
	// inputs => identical bytes").
	RunID string

	nextTensor uint32
	nextOp     uint32
}

// NewSession builds a Session. A nil logger becomes a no-op logger so
// callers never need a nil check. The returned Session's Log already
// carries a run_id field, so every call site logging through it
// correlates for free.
func NewSession(cfg Config, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()
	return &Session{
		Config: cfg,
		Log:    log.With(zap.String("run_id", runID)),
		RunID:  runID,
	}
}

// Logger returns s.Log, or a no-op logger for a nil Session so every
// pass can log unconditionally without a nil check.
func (s *Session) Logger() *zap.Logger {
	if s == nil || s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

// NewTensorHandle issues the next unused tensor handle.
func (s *Session) NewTensorHandle() TensorHandle {
	s.nextTensor++
	return TensorHandle(s.nextTensor)
}

// NewOpHandle issues the next unused op handle.
func (s *Session) NewOpHandle() OpHandle {
	s.nextOp++
	return OpHandle(s.nextOp)
}
