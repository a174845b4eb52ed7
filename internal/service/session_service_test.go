package service

import (
	"errors"
	"math"
	"testing"
	"time"

	"talentgate_backend/internal/model"
	"talentgate_backend/internal/util"
)

func TestUpdatePermissionsAdvancesToReady(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionPending, 3600)

	updated, err := svc.UpdatePermissions(session.Token, true, false)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if updated.Status != model.SessionPending {
		t.Errorf("status = %s, want pending with only camera granted", updated.Status)
	}

	updated, err = svc.UpdatePermissions(session.Token, true, true)
	if err != nil {
		t.Fatalf("permissions: %v", err)
	}
	if updated.Status != model.SessionReady {
		t.Errorf("status = %s, want ready", updated.Status)
	}
}

func TestStartIdempotent(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)

	first, err := svc.Start(session.Token)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if first.AlreadyStarted {
		t.Fatal("first start reported AlreadyStarted")
	}
	if !first.ExpiresAt.Equal(base.Add(time.Hour)) {
		t.Errorf("expiresAt = %v, want %v", first.ExpiresAt, base.Add(time.Hour))
	}

	// 10 分钟后的重复启动不得重置计时
	svc.now = func() time.Time { return base.Add(10 * time.Minute) }
	second, err := svc.Start(session.Token)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if !second.AlreadyStarted {
		t.Fatal("second start did not report AlreadyStarted")
	}
	if !second.ExpiresAt.Equal(*first.ExpiresAt) {
		t.Errorf("timer was reset: %v vs %v", second.ExpiresAt, first.ExpiresAt)
	}
	if second.RemainingSeconds != 50*60 {
		t.Errorf("remaining = %d, want %d", second.RemainingSeconds, 50*60)
	}
}

func TestSubmitScoresAndPersists(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, &stubEvaluator{scores: EvalScores{LogicScore: 40, SemanticsScore: 30}})

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)

	if _, err := svc.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := svc.Submit(session.Token, SubmitRequest{Answers: "package main"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Status != model.SessionSubmitted {
		t.Errorf("status = %s, want submitted", result.Status)
	}

	// 笔试未关联职位 → 简历分取中性 50；0.4*50 + 0.6*70 = 62
	if math.Abs(result.FinalScore-62) > 1e-9 {
		t.Errorf("final score = %v, want 62", result.FinalScore)
	}

	stored, err := env.evaluations.FindBySessionID(session.ID)
	if err != nil {
		t.Fatalf("evaluation result not persisted: %v", err)
	}
	if stored.StrikeCount != 0 || stored.AssessmentScore != 70 || stored.ResumeScore != 50 {
		t.Errorf("persisted components wrong: %+v", stored)
	}

	// 终止态的重复提交必须失败
	if _, err := svc.Submit(session.Token, SubmitRequest{}); !errors.Is(err, util.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal on resubmit, got %v", err)
	}
}

func TestSubmitRequiresStart(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)

	if _, err := svc.Submit(session.Token, SubmitRequest{}); !errors.Is(err, util.ErrSessionNotStarted) {
		t.Fatalf("expected ErrSessionNotStarted, got %v", err)
	}
}

func TestExpiryAutoSubmitsOnRead(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)

	if _, err := svc.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	// 到期后 1 秒的任何读取都触发按到期提交收尾
	svc.now = func() time.Time { return base.Add(time.Hour + time.Second) }
	got, err := svc.Get(session.Token)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.SessionSubmitted {
		t.Errorf("status = %s, want submitted", got.Status)
	}
	if got.TerminationReason != ReasonTimeExpired {
		t.Errorf("reason = %q, want %q", got.TerminationReason, ReasonTimeExpired)
	}
}

func TestLateSubmitTreatedAsExpiry(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)

	if _, err := svc.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	result, err := svc.Submit(session.Token, SubmitRequest{Answers: "late"})
	if err != nil {
		t.Fatalf("late submit: %v", err)
	}
	if result.Status != model.SessionSubmitted {
		t.Errorf("status = %s, want submitted", result.Status)
	}

	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.TerminationReason != ReasonTimeExpired {
		t.Errorf("reason = %q, want %q", stored.TerminationReason, ReasonTimeExpired)
	}
	if stored.Answers != "late" {
		t.Errorf("late answers not kept: %q", stored.Answers)
	}
}

func TestSaveAnswersLifecycle(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)

	// 未启动不接受草稿
	if err := svc.SaveAnswers(session.Token, "draft"); !errors.Is(err, util.ErrSessionNotStarted) {
		t.Fatalf("expected ErrSessionNotStarted before start, got %v", err)
	}

	if _, err := svc.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.SaveAnswers(session.Token, "draft v2"); err != nil {
		t.Fatalf("save answers: %v", err)
	}
	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.Answers != "draft v2" {
		t.Errorf("answers = %q, want synced draft", stored.Answers)
	}

	if _, err := svc.Submit(session.Token, SubmitRequest{Answers: "final"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.SaveAnswers(session.Token, "too late"); !errors.Is(err, util.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal after close, got %v", err)
	}
}

func TestExpiryKeepsSyncedAnswers(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)

	if _, err := svc.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := svc.SaveAnswers(session.Token, "work in progress"); err != nil {
		t.Fatalf("save answers: %v", err)
	}

	// 服务端判定到期的自动交卷提交最近一次同步的草稿
	svc.now = func() time.Time { return base.Add(time.Hour + time.Second) }
	if _, err := svc.Get(session.Token); err != nil {
		t.Fatalf("get: %v", err)
	}
	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.Status != model.SessionSubmitted {
		t.Fatalf("status = %s, want submitted", stored.Status)
	}
	if stored.Answers != "work in progress" {
		t.Errorf("expiry dropped synced answers: %q", stored.Answers)
	}
}

func TestTerminateIsFinal(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionPending, 3600)

	if err := svc.Terminate(session.Token, ""); err != nil {
		t.Fatalf("terminate: %v", err)
	}

	stored, _ := env.sessions.FindByToken(session.Token)
	if stored.Status != model.SessionTerminated {
		t.Errorf("status = %s, want terminated", stored.Status)
	}
	if stored.TerminationReason != ReasonRevoked {
		t.Errorf("reason = %q, want %q", stored.TerminationReason, ReasonRevoked)
	}

	// 作废的会话不评分
	if _, err := env.evaluations.FindBySessionID(session.ID); err == nil {
		t.Error("terminated session must not be scored")
	}

	if err := svc.Terminate(session.Token, ""); !errors.Is(err, util.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal on double terminate, got %v", err)
	}
	if _, err := svc.Start(session.Token); !errors.Is(err, util.ErrSessionTerminal) {
		t.Fatalf("expected ErrSessionTerminal on start after terminate, got %v", err)
	}
}

func TestSweepStale(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, nil)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	stale := env.seedSession(t, candidate.ID, assessment.ID, model.SessionPending, 3600)
	running := env.seedSession(t, candidate.ID, assessment.ID, model.SessionStarted, 3600)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if err := svc.SweepStale(24 * time.Hour); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	swept, _ := env.sessions.FindByToken(stale.Token)
	if swept.Status != model.SessionExpired {
		t.Errorf("stale session status = %s, want expired", swept.Status)
	}

	// 计时运行中的会话不归巡检管
	kept, _ := env.sessions.FindByToken(running.Token)
	if kept.Status != model.SessionStarted {
		t.Errorf("running session status = %s, want started", kept.Status)
	}
}

func TestSubmitUsesMatchReportWhenJobLinked(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newSessionService(t, &stubEvaluator{scores: EvalScores{LogicScore: 50, SemanticsScore: 50}})

	job := &model.Job{Title: "Backend Engineer", RequiredSkills: []byte(`["go","sql"]`)}
	if err := env.jobs.Create(job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	assessment.JobID = job.ID
	if err := env.assessments.Update(assessment); err != nil {
		t.Fatalf("link job: %v", err)
	}
	env.evaluations.CreateMatchReport(&model.MatchReport{
		CandidateID: candidate.ID,
		JobID:       job.ID,
		TotalScore:  80,
	})

	session := env.seedSession(t, candidate.ID, assessment.ID, model.SessionReady, 3600)
	if _, err := svc.Start(session.Token); err != nil {
		t.Fatalf("start: %v", err)
	}

	result, err := svc.Submit(session.Token, SubmitRequest{Answers: "x"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	// 0.4*80 + 0.6*100 = 92
	if math.Abs(result.FinalScore-92) > 1e-9 {
		t.Errorf("final score = %v, want 92", result.FinalScore)
	}
}
