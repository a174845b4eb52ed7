package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"talentgate_backend/internal/config"
	"talentgate_backend/internal/model"
	"talentgate_backend/internal/util"

	"gorm.io/gorm"
)

func TestVerifyUnknownCode(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newVerifyService(t)

	_, err := svc.Verify("no-such-code", "a@b.com", "1.2.3.4")
	if !errors.Is(err, util.ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}

	attempts, _ := env.credentials.ListAttempts("no-such-code", 10)
	if len(attempts) != 1 || attempts[0].Outcome != util.ReasonInvalid {
		t.Fatalf("expected one audited attempt with outcome %q, got %+v", util.ReasonInvalid, attempts)
	}
}

func TestVerifyOrderedChecks(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newVerifyService(t)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	future := svc.now().Add(24 * time.Hour)
	past := svc.now().Add(-time.Hour)

	t.Run("wrong email beats used flag", func(t *testing.T) {
		cred := env.seedCredential(t, candidate.ID, assessment.ID, future)
		env.db.Model(cred).Update("used", true)

		_, err := svc.Verify(cred.Code, "other@example.com", "")
		if !errors.Is(err, util.ErrWrongEmail) {
			t.Fatalf("expected ErrWrongEmail, got %v", err)
		}
	})

	t.Run("used beats expired", func(t *testing.T) {
		cred := env.seedCredential(t, candidate.ID, assessment.ID, past)
		env.db.Model(cred).Update("used", true)

		_, err := svc.Verify(cred.Code, candidate.Email, "")
		if !errors.Is(err, util.ErrCredentialUsed) {
			t.Fatalf("expected ErrCredentialUsed, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		cred := env.seedCredential(t, candidate.ID, assessment.ID, past)

		_, err := svc.Verify(cred.Code, candidate.Email, "")
		if !errors.Is(err, util.ErrCredentialExpired) {
			t.Fatalf("expected ErrCredentialExpired, got %v", err)
		}
	})

	t.Run("already completed", func(t *testing.T) {
		env.seedSession(t, candidate.ID, assessment.ID, model.SessionSubmitted, 3600)
		cred := env.seedCredential(t, candidate.ID, assessment.ID, future)

		_, err := svc.Verify(cred.Code, candidate.Email, "")
		if !errors.Is(err, util.ErrAlreadyCompleted) {
			t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
		}
	})
}

func TestVerifySuccess(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newVerifyService(t)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 1800)
	cred := env.seedCredential(t, candidate.ID, assessment.ID, time.Now().Add(time.Hour))

	session, err := svc.Verify(cred.Code, "JANE@example.com", "1.2.3.4")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if session.Status != model.SessionPending {
		t.Errorf("session status = %s, want pending", session.Status)
	}
	if session.IntegrityScore != 100 {
		t.Errorf("integrity score = %d, want 100", session.IntegrityScore)
	}
	if session.TimeLimit != 1800 {
		t.Errorf("time limit = %d, want snapshot 1800", session.TimeLimit)
	}

	stored, _ := env.credentials.FindByCode(cred.Code)
	if !stored.Used || stored.UsedAt == nil {
		t.Errorf("credential not marked used: %+v", stored)
	}

	// 核销成功后立刻重放必须失败
	if _, err := svc.Verify(cred.Code, candidate.Email, "1.2.3.4"); !errors.Is(err, util.ErrCredentialUsed) {
		t.Fatalf("expected replay to fail with ErrCredentialUsed, got %v", err)
	}
}

func TestVerifyReusesLiveSession(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newVerifyService(t)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	live := env.seedSession(t, candidate.ID, assessment.ID, model.SessionStarted, 3600)
	cred := env.seedCredential(t, candidate.ID, assessment.ID, time.Now().Add(time.Hour))

	session, err := svc.Verify(cred.Code, candidate.Email, "")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if session.Token != live.Token {
		t.Errorf("expected live session %s to be reused, got %s", live.Token, session.Token)
	}
}

func TestVerifyConcurrentSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newVerifyService(t)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)
	cred := env.seedCredential(t, candidate.ID, assessment.ID, time.Now().Add(time.Hour))

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Verify(cred.Code, candidate.Email, "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, util.ErrCredentialUsed):
		default:
			t.Fatalf("unexpected verify error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestSessionLookupFailureDoesNotDuplicate(t *testing.T) {
	env := newTestEnv(t)
	svc := env.newVerifyService(t)

	candidate := env.seedCandidate(t, "jane@example.com")
	assessment := env.seedAssessment(t, 3600)

	// 让下一次会话查询失败一次，模拟瞬时的连接故障
	remaining := 1
	err := env.db.Callback().Query().Before("gorm:query").Register("fail_session_lookup_once", func(tx *gorm.DB) {
		if _, ok := tx.Statement.Dest.(*model.AssessmentSession); ok && remaining > 0 {
			remaining--
			tx.AddError(errors.New("driver: bad connection"))
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	// 查询失败必须向上报错，而不是误判为“无会话”再发一个新会话
	if _, err := svc.sessionFor(candidate.ID, assessment.ID); err == nil {
		t.Fatal("expected error when the live-session lookup fails")
	}
	var count int64
	env.db.Model(&model.AssessmentSession{}).Count(&count)
	if count != 0 {
		t.Fatalf("lookup failure created %d sessions, want 0", count)
	}

	// 故障消退后正常发出会话
	session, err := svc.sessionFor(candidate.ID, assessment.ID)
	if err != nil {
		t.Fatalf("verify after transient failure: %v", err)
	}
	if session.Status != model.SessionPending {
		t.Errorf("session status = %s, want pending", session.Status)
	}
}

func TestVerifyDemoCode(t *testing.T) {
	env := newTestEnv(t)
	candidate := env.seedCandidate(t, "demo@example.com")
	assessment := env.seedAssessment(t, 3600)
	env.cfg.DemoCodes = []config.DemoCode{
		{Code: "DEMO-2024", Email: candidate.Email, AssessmentID: assessment.ID},
	}
	svc := env.newVerifyService(t)

	first, err := svc.Verify("DEMO-2024", "", "")
	if err != nil {
		t.Fatalf("demo verify: %v", err)
	}

	// 演示码可重复使用，复用同一会话
	second, err := svc.Verify("DEMO-2024", candidate.Email, "")
	if err != nil {
		t.Fatalf("demo verify replay: %v", err)
	}
	if second.Token != first.Token {
		t.Errorf("demo replay created a new session: %s vs %s", first.Token, second.Token)
	}

	if _, err := svc.Verify("DEMO-2024", "wrong@example.com", ""); !errors.Is(err, util.ErrWrongEmail) {
		t.Fatalf("expected ErrWrongEmail for mismatched demo email, got %v", err)
	}
}
