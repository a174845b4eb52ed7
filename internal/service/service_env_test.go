package service

import (
	"path/filepath"
	"testing"
	"time"

	"talentgate_backend/internal/config"
	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/pkg/logger"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	users       *repository.UserRepository
	jobs        *repository.JobRepository
	candidates  *repository.CandidateRepository
	assessments *repository.AssessmentRepository
	credentials *repository.CredentialRepository
	sessions    *repository.SessionRepository
	evaluations *repository.EvaluationRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(10000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&model.Job{},
		&model.Candidate{},
		&model.Assessment{},
		&model.AccessCredential{},
		&model.VerificationAttempt{},
		&model.AssessmentSession{},
		&model.ProctoringViolation{},
		&model.EvaluationResult{},
		&model.MatchReport{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return &testEnv{
		db: db,
		cfg: &config.Config{
			Proctoring: config.ProctoringConfig{
				StrikeBudget:        3,
				StrikePenaltyPct:    5.0,
				FlagThreshold:       30,
				VerifyAttemptLimit:  10,
				VerifyWindowMinutes: 15,
			},
		},
		users:       repository.NewUserRepository(db),
		jobs:        repository.NewJobRepository(db),
		candidates:  repository.NewCandidateRepository(db),
		assessments: repository.NewAssessmentRepository(db),
		credentials: repository.NewCredentialRepository(db),
		sessions:    repository.NewSessionRepository(db),
		evaluations: repository.NewEvaluationRepository(db),
	}
}

// stubEvaluator 返回固定分项，避免测试依赖外部评测能力；记下收到的代码供断言
type stubEvaluator struct {
	scores   EvalScores
	lastCode string
}

func (s *stubEvaluator) Evaluate(code, language, problem string, testResults []TestCaseResult) EvalScores {
	s.lastCode = code
	return s.scores
}

func (e *testEnv) newSessionService(t *testing.T, eval Evaluator) *SessionService {
	t.Helper()
	if eval == nil {
		eval = &stubEvaluator{scores: EvalScores{LogicScore: 40, SemanticsScore: 30}}
	}
	return NewSessionService(e.sessions, e.assessments, e.candidates, e.jobs, e.evaluations, eval, e.cfg)
}

func (e *testEnv) newVerifyService(t *testing.T) *VerifyService {
	t.Helper()
	return NewVerifyService(e.credentials, e.sessions, e.candidates, e.assessments, nil, e.cfg)
}

func (e *testEnv) seedCandidate(t *testing.T, email string) *model.Candidate {
	t.Helper()
	c := &model.Candidate{Name: "Test Candidate", Email: email, ResumeText: "5 years of go and sql"}
	if err := e.candidates.Create(c); err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	return c
}

func (e *testEnv) seedAssessment(t *testing.T, timeLimit int) *model.Assessment {
	t.Helper()
	a := &model.Assessment{
		Title:            "Backend Screening",
		ProblemStatement: "Implement an LRU cache",
		Language:         "go",
		TimeLimit:        timeLimit,
	}
	if err := e.assessments.Create(a); err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	return a
}

func (e *testEnv) seedCredential(t *testing.T, candidateID, assessmentID uint, expiresAt time.Time) *model.AccessCredential {
	t.Helper()
	cred := &model.AccessCredential{
		Code:         generateAccessCode(),
		CandidateID:  candidateID,
		AssessmentID: assessmentID,
		ExpiresAt:    expiresAt,
	}
	if err := e.credentials.Create(cred); err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return cred
}

func (e *testEnv) seedSession(t *testing.T, candidateID, assessmentID uint, status model.SessionStatus, timeLimit int) *model.AssessmentSession {
	t.Helper()
	s := &model.AssessmentSession{
		Token:          model.GenerateUUID(),
		CandidateID:    candidateID,
		AssessmentID:   assessmentID,
		Status:         status,
		TimeLimit:      timeLimit,
		IntegrityScore: 100,
	}
	if err := e.sessions.Create(s); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}
