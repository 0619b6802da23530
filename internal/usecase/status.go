package usecase

import (
	"sync"
	"time"
)

// SubmitState is the user-visible outcome of the last action.
type SubmitState string

const (
	SubmitIdle    SubmitState = "idle"
	SubmitSending SubmitState = "sending"
	SubmitSuccess SubmitState = "success"
	SubmitError   SubmitState = "error"
)

const (
	defaultSuccessTTL = 3 * time.Second
	defaultErrorTTL   = 5 * time.Second
)

// StatusFlag tracks the last action outcome. Success and error clear back to
// idle on their own; any newer transition cancels a pending clear.
type StatusFlag struct {
	mu         sync.Mutex
	state      SubmitState
	message    string
	generation uint64
	timer      *time.Timer
	successTTL time.Duration
	errorTTL   time.Duration
}

// NewStatusFlag builds an idle flag. Non-positive TTLs fall back to 3s and 5s.
func NewStatusFlag(successTTL, errorTTL time.Duration) *StatusFlag {
	if successTTL <= 0 {
		successTTL = defaultSuccessTTL
	}
	if errorTTL <= 0 {
		errorTTL = defaultErrorTTL
	}
	return &StatusFlag{state: SubmitIdle, successTTL: successTTL, errorTTL: errorTTL}
}

// State returns the current state and its message (set for errors).
func (f *StatusFlag) State() (SubmitState, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.message
}

func (f *StatusFlag) Sending() { f.set(SubmitSending, "", 0) }
func (f *StatusFlag) Succeed() { f.set(SubmitSuccess, "", f.successTTL) }
func (f *StatusFlag) Reset()   { f.set(SubmitIdle, "", 0) }

// Fail records err and clears after the error TTL.
func (f *StatusFlag) Fail(err error) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	f.set(SubmitError, msg, f.errorTTL)
}

func (f *StatusFlag) set(state SubmitState, message string, ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.generation++
	f.state = state
	f.message = message
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if ttl <= 0 {
		return
	}

	gen := f.generation
	f.timer = time.AfterFunc(ttl, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation != gen {
			return
		}
		f.state = SubmitIdle
		f.message = ""
		f.timer = nil
	})
}
