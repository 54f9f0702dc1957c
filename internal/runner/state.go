package runner

import (
	"sync"
	"sync/atomic"
)

type Phase string

const (
	PhaseFetchingMetadata Phase = "fetching metadata"
	PhaseBuildingShell    Phase = "building shell"
	PhaseFetchingChapters Phase = "fetching chapters"
	PhaseFinalizing       Phase = "finalizing"
	PhaseDone             Phase = "done"
	PhaseAborted          Phase = "aborted"
)

// Reason says why the chapter loop ended.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonCapReached  Reason = "chapter cap reached"
	ReasonNoContent   Reason = "no more content"
	ReasonFetchFailed Reason = "chapter fetch failed"
	ReasonInterrupted Reason = "interrupted"
)

// StoppedEarly reports whether the loop ended before a cap was reached.
func (r Reason) StoppedEarly() bool {
	switch r {
	case ReasonNoContent, ReasonFetchFailed, ReasonInterrupted:
		return true
	}
	return false
}

// RunState is owned by the run loop. Only Stop and Stopped may be called from
// other goroutines.
type RunState struct {
	Cursor int
	Count  int
	Phase  Phase
	Reason Reason

	stop     atomic.Bool
	wake     chan struct{}
	wakeOnce sync.Once
}

func newRunState(start int) *RunState {
	return &RunState{
		Cursor: start,
		Phase:  PhaseFetchingMetadata,
		wake:   make(chan struct{}),
	}
}

// Stop asks the loop to finish after the current chapter. It also cuts the
// pacing delay short.
func (s *RunState) Stop() {
	s.stop.Store(true)
	s.wakeOnce.Do(func() { close(s.wake) })
}

func (s *RunState) Stopped() bool {
	return s.stop.Load()
}
