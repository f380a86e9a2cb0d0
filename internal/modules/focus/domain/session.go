package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	apperrors "focuslock/internal/platform/errors"
)

type Status string

const (
	StatusIdle   Status = "idle"
	StatusActive Status = "active"
)

// FocusSession is the single in-memory session owned by the session manager.
type FocusSession struct {
	ID              string
	BlockedSites    []string
	DurationMinutes float64
	StartedAt       time.Time
	Status          Status
}

func (s FocusSession) Active() bool {
	return s.Status == StatusActive
}

func (s FocusSession) Duration() time.Duration {
	return MinutesToDuration(s.DurationMinutes)
}

func (s FocusSession) EndsAt() time.Time {
	if !s.Active() {
		return time.Time{}
	}
	return s.StartedAt.Add(s.Duration())
}

func (s FocusSession) Remaining(now time.Time) time.Duration {
	if !s.Active() {
		return 0
	}
	left := s.EndsAt().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

func MinutesToDuration(minutes float64) time.Duration {
	return time.Duration(math.Round(minutes * float64(time.Minute)))
}

type Trigger string

const (
	TriggerStart  Trigger = "start"
	TriggerStop   Trigger = "stop"
	TriggerExpire Trigger = "expire"
	TriggerRemind Trigger = "remind"
)

// ErrStaleTimer marks a timer callback that arrived after its session ended.
var ErrStaleTimer = errors.New("timer fired for an ended session")

type transitionKey struct {
	from    Status
	trigger Trigger
}

var transitions = map[transitionKey]Status{
	{StatusIdle, TriggerStart}:    StatusActive,
	{StatusActive, TriggerStart}:  StatusActive,
	{StatusActive, TriggerStop}:   StatusIdle,
	{StatusActive, TriggerExpire}: StatusIdle,
	{StatusActive, TriggerRemind}: StatusActive,
}

// Transition returns the status reached from `from` on trigger, or an
// error when the pair is not part of the lifecycle.
func Transition(from Status, trigger Trigger) (Status, error) {
	if next, ok := transitions[transitionKey{from: from, trigger: trigger}]; ok {
		return next, nil
	}
	switch trigger {
	case TriggerStop:
		return from, apperrors.ErrNoActiveSession
	case TriggerExpire, TriggerRemind:
		return from, ErrStaleTimer
	default:
		return from, fmt.Errorf("undefined transition %s --%s-->", from, trigger)
	}
}

type EventKind string

const (
	EventStarted   EventKind = "started"
	EventRestarted EventKind = "restarted"
	EventReminded  EventKind = "reminded"
	EventCompleted EventKind = "completed"
	EventStopped   EventKind = "stopped"
	EventRejected  EventKind = "rejected"
)

// Event is published to subscribers on every lifecycle change.
type Event struct {
	Kind    EventKind
	Session FocusSession
	At      time.Time
	Message string
}
