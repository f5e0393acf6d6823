// Package status is the tagged state shared by long-running client
// operations: idle, loading (with a stage), success, or error.
package status

import (
	"sync"

	"github.com/dmitrijs2005/travelease/internal/client/failure"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// Stage names reported while loading.
const (
	StageUploading  = "uploading"
	StagePersisting = "persisting"
	StageRequesting = "requesting"
	StageDeleting   = "deleting"
)

// Status is a value; the zero value is Idle.
type Status struct {
	Phase   Phase
	Stage   string
	Message string
	Kind    failure.Kind
	Err     error
}

func Idle() Status { return Status{Phase: PhaseIdle} }

func Loading(stage string) Status {
	return Status{Phase: PhaseLoading, Stage: stage}
}

func Success(msg string) Status {
	return Status{Phase: PhaseSuccess, Message: msg}
}

// Failed records err with its kind and rendered message.
func Failed(err error) Status {
	return Status{
		Phase:   PhaseError,
		Message: failure.Message(err),
		Kind:    failure.KindOf(err),
		Err:     err,
	}
}

func (s Status) IsIdle() bool {
	return s.Phase == "" || s.Phase == PhaseIdle
}

func (s Status) InFlight() bool { return s.Phase == PhaseLoading }

func (s Status) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseError
}

// Label is the short name used in prompts and logs:
// idle, uploading, persisting, succeeded or failed.
func (s Status) Label() string {
	switch s.Phase {
	case PhaseLoading:
		return s.Stage
	case PhaseSuccess:
		return "succeeded"
	case PhaseError:
		return "failed"
	default:
		return "idle"
	}
}

func (s Status) String() string {
	if s.Message == "" {
		return s.Label()
	}
	return s.Label() + ": " + s.Message
}

// Observer is notified on every transition.
type Observer func(Status)

// Tracker holds the current status and fans transitions out to observers.
// Observers run on the goroutine that calls Set, outside the lock.
type Tracker struct {
	mu        sync.Mutex
	current   Status
	observers []Observer
}

func NewTracker() *Tracker {
	return &Tracker{current: Idle()}
}

func (t *Tracker) Current() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

func (t *Tracker) Observe(o Observer) {
	if o == nil {
		return
	}
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
}

func (t *Tracker) Set(s Status) {
	t.mu.Lock()
	t.current = s
	observers := append([]Observer(nil), t.observers...)
	t.mu.Unlock()

	for _, o := range observers {
		o(s)
	}
}
