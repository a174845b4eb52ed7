package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"talentgate_backend/internal/config"
	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/util"
	"talentgate_backend/pkg/logger"
	"talentgate_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// VerifyService 一次性准入凭证核销。
// 校验按固定顺序短路：存在 → 邮箱匹配 → 未使用 → 未过期 → 无已完成提交。
// 每次尝试（无论成败）都写入审计日志。
type VerifyService struct {
	Credentials *repository.CredentialRepository
	Sessions    *repository.SessionRepository
	Candidates  *repository.CandidateRepository
	Assessments *repository.AssessmentRepository
	RDB         *redis.Client
	Config      *config.Config

	now func() time.Time
}

func NewVerifyService(
	credentials *repository.CredentialRepository,
	sessions *repository.SessionRepository,
	candidates *repository.CandidateRepository,
	assessments *repository.AssessmentRepository,
	rdb *redis.Client,
	cfg *config.Config,
) *VerifyService {
	return &VerifyService{
		Credentials: credentials,
		Sessions:    sessions,
		Candidates:  candidates,
		Assessments: assessments,
		RDB:         rdb,
		Config:      cfg,
		now:         time.Now,
	}
}

// Verify 核销凭证，返回可用会话。失败返回 util 中的哨兵错误，
// 控制器用 util.VerifyReason 映射为稳定原因码。
func (s *VerifyService) Verify(code, candidateEmail, clientIP string) (*model.AssessmentSession, error) {
	// 演示准入码：显式独立路径，不触碰一般凭证的任何不变量
	if demo := s.lookupDemoCode(code); demo != nil {
		return s.verifyDemo(demo, candidateEmail, clientIP)
	}

	if blocked, err := s.tooManyFailures(clientIP); err == nil && blocked {
		s.logAttempt(code, candidateEmail, util.ReasonTooManyAttempts, clientIP)
		return nil, util.ErrTooManyAttempts
	}

	cred, err := s.Credentials.FindByCode(code)
	if err != nil {
		s.failed(code, candidateEmail, util.ReasonInvalid, clientIP)
		return nil, util.ErrCredentialNotFound
	}

	candidate, err := s.Candidates.FindByID(cred.CandidateID)
	if err != nil {
		s.failed(code, candidateEmail, util.ReasonInvalid, clientIP)
		return nil, util.ErrCredentialNotFound
	}

	if candidateEmail != "" && !strings.EqualFold(candidateEmail, candidate.Email) {
		s.failed(code, candidateEmail, util.ReasonWrongEmail, clientIP)
		return nil, util.ErrWrongEmail
	}

	if cred.Used {
		s.failed(code, candidateEmail, util.ReasonAlreadyUsed, clientIP)
		return nil, util.ErrCredentialUsed
	}

	if cred.Expired(s.now()) {
		s.failed(code, candidateEmail, util.ReasonExpired, clientIP)
		return nil, util.ErrCredentialExpired
	}

	completed, err := s.Sessions.HasCompletedSubmission(cred.CandidateID, cred.AssessmentID)
	if err != nil {
		return nil, err
	}
	if completed {
		s.failed(code, candidateEmail, util.ReasonAlreadyCompleted, clientIP)
		return nil, util.ErrAlreadyCompleted
	}

	// 条件更新核销：并发核销同一凭证只有一个调用方获胜，
	// 其余观察到 already_used，绝不发出两个会话。
	won, err := s.Credentials.MarkUsed(code, s.now())
	if err != nil {
		return nil, err
	}
	if !won {
		s.failed(code, candidateEmail, util.ReasonAlreadyUsed, clientIP)
		return nil, util.ErrCredentialUsed
	}

	s.logAttempt(code, candidateEmail, "success", clientIP)
	monitoring.VerificationOutcomes.WithLabelValues("success").Inc()

	return s.sessionFor(cred.CandidateID, cred.AssessmentID)
}

// sessionFor 复用已存在的非终止会话，否则创建新会话
func (s *VerifyService) sessionFor(candidateID, assessmentID uint) (*model.AssessmentSession, error) {
	live, err := s.Sessions.FindLiveByCandidateAndAssessment(candidateID, assessmentID)
	if err == nil {
		return live, nil
	}
	// 只有确认不存在才新建：瞬时查询失败时宁可让核销报错，
	// 也不能给同一候选人发出第二个会话
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	assessment, err := s.Assessments.FindByID(assessmentID)
	if err != nil {
		return nil, err
	}

	session := &model.AssessmentSession{
		Token:          model.GenerateUUID(),
		CandidateID:    candidateID,
		AssessmentID:   assessmentID,
		Status:         model.SessionPending,
		TimeLimit:      assessment.TimeLimit,
		IntegrityScore: 100,
	}
	if err := s.Sessions.Create(session); err != nil {
		return nil, err
	}

	logger.Log.Info("assessment session created",
		zap.String("token", session.Token),
		zap.Uint("candidateId", candidateID),
		zap.Uint("assessmentId", assessmentID))
	return session, nil
}

func (s *VerifyService) lookupDemoCode(code string) *config.DemoCode {
	for _, demo := range s.Config.DemoCodeTable() {
		if demo.Code == code {
			return &demo
		}
	}
	return nil
}

// verifyDemo 演示路径：按配置里的邮箱定位候选人，复用或新建会话。
// 不消耗任何一般凭证，也不绕开会话本身的状态机。
func (s *VerifyService) verifyDemo(demo *config.DemoCode, candidateEmail, clientIP string) (*model.AssessmentSession, error) {
	if candidateEmail != "" && !strings.EqualFold(candidateEmail, demo.Email) {
		s.failed(demo.Code, candidateEmail, util.ReasonWrongEmail, clientIP)
		return nil, util.ErrWrongEmail
	}
	candidate, err := s.Candidates.FindByEmail(demo.Email)
	if err != nil {
		s.failed(demo.Code, candidateEmail, util.ReasonInvalid, clientIP)
		return nil, util.ErrCredentialNotFound
	}
	s.logAttempt(demo.Code, demo.Email, "demo_success", clientIP)
	return s.sessionFor(candidate.ID, demo.AssessmentID)
}

// failed 失败路径统一出口：审计 + 指标 + 防爆破计数
func (s *VerifyService) failed(code, email, reason, clientIP string) {
	s.logAttempt(code, email, reason, clientIP)
	monitoring.VerificationOutcomes.WithLabelValues(reason).Inc()
	s.countFailure(clientIP)
}

func (s *VerifyService) logAttempt(code, email, outcome, clientIP string) {
	attempt := &model.VerificationAttempt{
		Code:           code,
		CandidateEmail: email,
		Outcome:        outcome,
		ClientIP:       clientIP,
	}
	if err := s.Credentials.AppendAttempt(attempt); err != nil {
		logger.Log.Error("failed to append verification attempt", zap.Error(err))
	}
}

func (s *VerifyService) failureKey(clientIP string) string {
	return fmt.Sprintf("verify:failures:%s", clientIP)
}

func (s *VerifyService) countFailure(clientIP string) {
	if s.RDB == nil || clientIP == "" {
		return
	}
	ctx := context.Background()
	key := s.failureKey(clientIP)
	window := time.Duration(s.Config.ProctoringPolicy().VerifyWindowMinutes) * time.Minute
	pipe := s.RDB.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Log.Warn("failed to count verification failure", zap.Error(err))
	}
}

func (s *VerifyService) tooManyFailures(clientIP string) (bool, error) {
	if s.RDB == nil || clientIP == "" {
		return false, nil
	}
	count, err := s.RDB.Get(context.Background(), s.failureKey(clientIP)).Int()
	if err != nil {
		return false, nil
	}
	return count >= s.Config.ProctoringPolicy().VerifyAttemptLimit, nil
}
