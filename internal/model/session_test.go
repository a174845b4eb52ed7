package model

import (
	"testing"
	"time"
)

func TestSessionTransitions(t *testing.T) {
	allowed := []struct{ from, to SessionStatus }{
		{SessionPending, SessionReady},
		{SessionPending, SessionTerminated},
		{SessionReady, SessionStarted},
		{SessionStarted, SessionFlagged},
		{SessionStarted, SessionSubmitted},
		{SessionStarted, SessionTerminated},
		{SessionFlagged, SessionSubmitted},
		{SessionFlagged, SessionTerminated},
	}
	for _, tt := range allowed {
		if !tt.from.CanTransition(tt.to) {
			t.Errorf("%s → %s should be allowed", tt.from, tt.to)
		}
	}

	forbidden := []struct{ from, to SessionStatus }{
		{SessionReady, SessionPending},
		{SessionStarted, SessionReady},
		{SessionFlagged, SessionStarted},
		{SessionSubmitted, SessionStarted},
		{SessionTerminated, SessionSubmitted},
		{SessionExpired, SessionStarted},
	}
	for _, tt := range forbidden {
		if tt.from.CanTransition(tt.to) {
			t.Errorf("%s → %s must be rejected", tt.from, tt.to)
		}
	}
}

func TestSessionStatusTerminal(t *testing.T) {
	for _, s := range []SessionStatus{SessionSubmitted, SessionTerminated, SessionExpired} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
		if s.CanTransition(SessionSubmitted) || s.CanTransition(SessionTerminated) {
			t.Errorf("terminal state %s must not transition", s)
		}
	}
	for _, s := range []SessionStatus{SessionPending, SessionReady, SessionStarted, SessionFlagged} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
	if !SessionFlagged.Active() || !SessionStarted.Active() {
		t.Error("started and flagged are both running states")
	}
}

func TestRemainingSeconds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := &AssessmentSession{TimeLimit: 1800}
	if got := s.RemainingSeconds(now); got != 1800 {
		t.Errorf("unstarted remaining = %d, want full limit", got)
	}

	exp := now.Add(10 * time.Minute)
	s.ExpiresAt = &exp
	if got := s.RemainingSeconds(now); got != 600 {
		t.Errorf("remaining = %d, want 600", got)
	}
	if got := s.RemainingSeconds(now.Add(time.Hour)); got != 0 {
		t.Errorf("overdue remaining = %d, want 0", got)
	}
	if !s.ExpiredNow(exp) {
		t.Error("session at its deadline is expired")
	}
}

func TestIntegrityPenalty(t *testing.T) {
	tests := []struct {
		severity ViolationSeverity
		want     int
	}{
		{SeverityLow, 2},
		{SeverityMedium, 5},
		{SeverityHigh, 10},
		{SeverityCritical, 20},
	}
	for _, tt := range tests {
		if got := tt.severity.IntegrityPenalty(); got != tt.want {
			t.Errorf("penalty(%s) = %d, want %d", tt.severity, got, tt.want)
		}
		if !tt.severity.Valid() {
			t.Errorf("%s should be valid", tt.severity)
		}
	}
	if ViolationSeverity("fatal").Valid() {
		t.Error("unknown severity must be invalid")
	}
}
