package service

import (
	"errors"
	"sync"
	"testing"

	"talentgate_backend/internal/model"
	"talentgate_backend/internal/util"
)

func newProctorEnv(t *testing.T) (*testEnv, *ProctorService, *model.AssessmentSession) {
	t.Helper()
	env := newTestEnv(t)
	runner := env.newSessionService(t, nil)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)
	if _, err := runner.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	return env, NewProctorService(env.sessions, runner, env.cfg), session
}

func TestViolationPenalties(t *testing.T) {
	tests := []struct {
		severity model.ViolationSeverity
		want     int
	}{
		{model.SeverityLow, 98},
		{model.SeverityMedium, 95},
		{model.SeverityHigh, 90},
		{model.SeverityCritical, 80},
	}
	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			_, svc, session := newProctorEnv(t)

			result, err := svc.RecordViolation(session.Token, "focus_loss", tt.severity, "")
			if err != nil {
				t.Fatalf("record: %v", err)
			}
			if result.IntegrityScore != tt.want {
				t.Errorf("integrity = %d, want %d", result.IntegrityScore, tt.want)
			}
			if result.ViolationCount != 1 {
				t.Errorf("count = %d, want 1", result.ViolationCount)
			}
		})
	}
}

func TestViolationInvalidSeverity(t *testing.T) {
	_, svc, session := newProctorEnv(t)
	if _, err := svc.RecordViolation(session.Token, "focus_loss", "fatal", ""); !errors.Is(err, util.ErrInvalidSeverity) {
		t.Fatalf("expected ErrInvalidSeverity, got %v", err)
	}
}

func TestIntegrityScoreFloorsAtZero(t *testing.T) {
	env, svc, session := newProctorEnv(t)
	env.cfg.Proctoring.StrikeBudget = 100
	env.cfg.Proctoring.FlagThreshold = 0

	var last *ViolationResult
	for i := 0; i < 6; i++ {
		result, err := svc.RecordViolation(session.Token, "screen_share_lost", model.SeverityCritical, "")
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		last = result
	}
	if last.IntegrityScore != 0 {
		t.Errorf("integrity = %d, want floor at 0", last.IntegrityScore)
	}
	if last.ViolationCount != 6 {
		t.Errorf("count = %d, want 6", last.ViolationCount)
	}
}

func TestFlagThreshold(t *testing.T) {
	env, svc, session := newProctorEnv(t)
	env.cfg.Proctoring.StrikeBudget = 100

	// 100 → 80 → 60：未破 30 阈值
	for i := 0; i < 2; i++ {
		result, err := svc.RecordViolation(session.Token, "tab_switch", model.SeverityCritical, "")
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		if result.Status != model.SessionStarted {
			t.Fatalf("status = %s before threshold, want started", result.Status)
		}
	}

	// 60 → 40 → 20：破阈值进入 flagged，但会话不终止
	for i := 0; i < 2; i++ {
		if _, err := svc.RecordViolation(session.Token, "tab_switch", model.SeverityCritical, ""); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.Status != model.SessionFlagged {
		t.Errorf("status = %s, want flagged", stored.Status)
	}
	if stored.Status.Terminal() {
		t.Error("flagged must not be terminal")
	}
}

func TestStrikeBudgetAutoSubmits(t *testing.T) {
	env, svc, session := newProctorEnv(t)

	for i := 0; i < 2; i++ {
		result, err := svc.RecordViolation(session.Token, "paste", model.SeverityLow, "")
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if result.Terminated {
			t.Fatalf("terminated after %d violations, budget is 3", i+1)
		}
	}

	result, err := svc.RecordViolation(session.Token, "paste", model.SeverityLow, "")
	if err != nil {
		t.Fatalf("third violation: %v", err)
	}
	if !result.Terminated {
		t.Fatal("third violation must auto-submit")
	}

	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.Status != model.SessionSubmitted {
		t.Errorf("status = %s, want submitted", stored.Status)
	}
	if stored.TerminationReason != ReasonStrikeLimit {
		t.Errorf("reason = %q, want %q", stored.TerminationReason, ReasonStrikeLimit)
	}

	// strike 罚则进入最终分：0.4*50 + 0.6*70 = 62, 62*(1-0.15) = 52.7
	eval, err := env.evaluations.FindBySessionID(session.ID)
	if err != nil {
		t.Fatalf("evaluation not persisted: %v", err)
	}
	if eval.StrikeCount != 3 {
		t.Errorf("strike count = %d, want 3", eval.StrikeCount)
	}
	if diff := eval.FinalScore - 52.7; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("final score = %v, want 52.7", eval.FinalScore)
	}

	// 关闭后的违规上报必须显式失败
	if _, err := svc.RecordViolation(session.Token, "paste", model.SeverityLow, ""); !errors.Is(err, util.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal after close, got %v", err)
	}
}

func TestViolationBeforeStartRejected(t *testing.T) {
	env := newTestEnv(t)
	runner := env.newSessionService(t, nil)
	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)
	svc := NewProctorService(env.sessions, runner, env.cfg)

	if _, err := svc.RecordViolation(session.Token, "tab_switch", model.SeverityLow, ""); !errors.Is(err, util.ErrSessionNotStarted) {
		t.Fatalf("expected ErrSessionNotStarted for unstarted session, got %v", err)
	}
	violations, _ := env.sessions.ListViolations(session.ID)
	if len(violations) != 0 {
		t.Errorf("violation recorded against unstarted session: %d rows", len(violations))
	}
}

func TestStrikeCloseSubmitsSyncedAnswers(t *testing.T) {
	env := newTestEnv(t)
	stub := &stubEvaluator{scores: EvalScores{LogicScore: 40, SemanticsScore: 30}}
	runner := env.newSessionService(t, stub)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)
	if _, err := runner.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}
	svc := NewProctorService(env.sessions, runner, env.cfg)

	if err := runner.SaveAnswers(session.Token, "func main() { solve() }"); err != nil {
		t.Fatalf("save answers: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.RecordViolation(session.Token, "paste", model.SeverityLow, ""); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	// 强制交卷提交的是最近一次同步的草稿，不是空答案
	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.Status != model.SessionSubmitted {
		t.Fatalf("status = %s, want submitted", stored.Status)
	}
	if stored.Answers != "func main() { solve() }" {
		t.Errorf("strike close dropped synced answers: %q", stored.Answers)
	}
	if stub.lastCode != "func main() { solve() }" {
		t.Errorf("evaluator received %q, want the synced draft", stub.lastCode)
	}
}

func TestConcurrentViolationsAllRecorded(t *testing.T) {
	env, svc, session := newProctorEnv(t)
	env.cfg.Proctoring.StrikeBudget = 100

	// 毫秒级并发的两个违规（visibilitychange 与 blur 同时触发）都要记录
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.RecordViolation(session.Token, "focus_loss", model.SeverityMedium, ""); err != nil {
				t.Errorf("concurrent record: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.ViolationCount != 2 {
		t.Errorf("count = %d, want 2", stored.ViolationCount)
	}
	if stored.IntegrityScore != 90 {
		t.Errorf("integrity = %d, want 90 (both penalties applied)", stored.IntegrityScore)
	}

	violations, counts, err := svc.Violations(session.Token)
	if err != nil {
		t.Fatalf("violations: %v", err)
	}
	if len(violations) != 2 || counts["focus_loss"] != 2 {
		t.Errorf("violation log incomplete: %d rows, counts %v", len(violations), counts)
	}
}
