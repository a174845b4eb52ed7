package service

import (
	"time"

	"talentgate_backend/internal/config"
	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/scoring"
	"talentgate_backend/internal/util"
	"talentgate_backend/pkg/logger"
	"talentgate_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 终止原因
const (
	ReasonTimeExpired = "time limit expired"
	ReasonStrikeLimit = "proctoring strike limit reached"
	ReasonRevoked     = "revoked by administrator"
)

// Evaluator 外部评测能力的本地契约，便于测试替换
type Evaluator interface {
	Evaluate(code, language, problem string, testResults []TestCaseResult) EvalScores
}

// SessionService 监考会话生命周期。
// 所有终止迁移都通过仓储层的条件更新完成，一个会话恰好发生一次终止。
type SessionService struct {
	Sessions    *repository.SessionRepository
	Assessments *repository.AssessmentRepository
	Candidates  *repository.CandidateRepository
	Jobs        *repository.JobRepository
	Evaluations *repository.EvaluationRepository
	Evaluator   Evaluator
	Config      *config.Config

	now func() time.Time
}

func NewSessionService(
	sessions *repository.SessionRepository,
	assessments *repository.AssessmentRepository,
	candidates *repository.CandidateRepository,
	jobs *repository.JobRepository,
	evaluations *repository.EvaluationRepository,
	evaluator Evaluator,
	cfg *config.Config,
) *SessionService {
	return &SessionService{
		Sessions:    sessions,
		Assessments: assessments,
		Candidates:  candidates,
		Jobs:        jobs,
		Evaluations: evaluations,
		Evaluator:   evaluator,
		Config:      cfg,
		now:         time.Now,
	}
}

// Get 查询会话，顺带做墙钟过期检测（过期检测不依赖进程内定时器，
// 哪个实例收到请求哪个实例判定）。
func (s *SessionService) Get(token string) (*model.AssessmentSession, error) {
	session, err := s.Sessions.FindByToken(token)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	return s.maybeExpire(session)
}

// maybeExpire 计时运行中的会话一旦过了 expires_at 立即按到期提交收尾
func (s *SessionService) maybeExpire(session *model.AssessmentSession) (*model.AssessmentSession, error) {
	if !session.Status.Active() || !session.ExpiredNow(s.now()) {
		return session, nil
	}
	if _, err := s.closeAndScore(session.Token, session.Answers, ReasonTimeExpired); err != nil &&
		err != util.ErrSessionTerminal {
		return nil, err
	}
	return s.Sessions.FindByToken(session.Token)
}

// UpdatePermissions 摄像头/麦克风授权；两项齐备时 pending → ready。
// 终止态的会话拒绝更新而不是静默成功。
func (s *SessionService) UpdatePermissions(token string, camera, microphone bool) (*model.AssessmentSession, error) {
	session, err := s.Get(token)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, util.ErrSessionTerminal
	}
	ok, err := s.Sessions.UpdatePermissions(token, camera, microphone)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrSessionTerminal
	}
	return s.Sessions.FindByToken(token)
}

// StartResult 启动返回。AlreadyStarted 时只回剩余时间，绝不重置计时。
type StartResult struct {
	AlreadyStarted   bool       `json:"alreadyStarted"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	TimeLimit        int        `json:"timeLimit"`
	RemainingSeconds int        `json:"remainingSeconds"`
}

// Start 启动计时。幂等：重复调用返回已算好的剩余时间，防止重置计时器薅时长。
func (s *SessionService) Start(token string) (*StartResult, error) {
	session, err := s.Get(token)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, util.ErrSessionTerminal
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(session.TimeLimit) * time.Second)
	won, err := s.Sessions.Start(token, now, expiresAt)
	if err != nil {
		return nil, err
	}
	if won {
		return &StartResult{
			StartedAt:        &now,
			ExpiresAt:        &expiresAt,
			TimeLimit:        session.TimeLimit,
			RemainingSeconds: session.TimeLimit,
		}, nil
	}

	// 竞争失败：会话已在运行，回读已存的计时
	session, err = s.Get(token)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, util.ErrSessionTerminal
	}
	return &StartResult{
		AlreadyStarted:   true,
		StartedAt:        session.StartedAt,
		ExpiresAt:        session.ExpiresAt,
		TimeLimit:        session.TimeLimit,
		RemainingSeconds: session.RemainingSeconds(s.now()),
	}, nil
}

// SubmitRequest 提交载荷。测试执行是外部能力，结果随提交回传。
type SubmitRequest struct {
	Answers     string           `json:"answers"`
	TestResults []TestCaseResult `json:"testResults"`
}

type SubmitResult struct {
	FinalScore     float64             `json:"finalScore"`
	IntegrityScore int                 `json:"integrityScore"`
	Status         model.SessionStatus `json:"status"`
	Fallback       bool                `json:"fallback"`
}

// Submit 候选人交卷。迟到的提交（已过 expires_at）与服务端到期自动交卷
// 走完全相同的收尾路径。
func (s *SessionService) Submit(token string, req SubmitRequest) (*SubmitResult, error) {
	session, err := s.Sessions.FindByToken(token)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	if session.Status.Terminal() {
		return nil, util.ErrSessionTerminal
	}
	if !session.Status.Active() {
		return nil, util.ErrSessionNotStarted
	}

	reason := ""
	if session.ExpiredNow(s.now()) {
		reason = ReasonTimeExpired
	}
	return s.closeAndScore(token, req.Answers, reason, req.TestResults...)
}

// SaveAnswers 候选人周期性同步答案草稿。强制交卷（strike 到达预算、到期）
// 提交的是最近一次同步的草稿，客户端应在作答期间持续调用。
func (s *SessionService) SaveAnswers(token, answers string) error {
	session, err := s.Get(token)
	if err != nil {
		return err
	}
	if session.Status.Terminal() {
		return util.ErrSessionTerminal
	}
	if !session.Status.Active() {
		return util.ErrSessionNotStarted
	}
	ok, err := s.Sessions.SaveAnswers(token, answers)
	if err != nil {
		return err
	}
	if !ok {
		return util.ErrSessionTerminal
	}
	return nil
}

// AutoSubmit 服务端发起的强制交卷（strike 到达预算、到期巡检）。
// 当前已存的答案原样提交，候选人没有继续作答的机会。
func (s *SessionService) AutoSubmit(token, reason string) (*SubmitResult, error) {
	session, err := s.Sessions.FindByToken(token)
	if err != nil {
		return nil, util.ErrSessionNotFound
	}
	return s.closeAndScore(token, session.Answers, reason)
}

// closeAndScore 唯一的 submitted 收口：条件更新抢终止迁移，
// 只有获胜者继续评分落库，其余调用方得到 ErrSessionTerminal。
func (s *SessionService) closeAndScore(token, answers, reason string, testResults ...TestCaseResult) (*SubmitResult, error) {
	now := s.now()
	updates := map[string]interface{}{
		"submitted_at": now,
		"answers":      answers,
	}
	if reason != "" {
		updates["termination_reason"] = reason
	}
	won, err := s.Sessions.Close(token, model.ActiveStatuses(), model.SessionSubmitted, updates)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, util.ErrSessionTerminal
	}

	session, err := s.Sessions.FindByToken(token)
	if err != nil {
		return nil, err
	}
	monitoring.SessionsClosed.WithLabelValues(string(model.SessionSubmitted), reason).Inc()
	logger.Log.Info("session submitted",
		zap.String("token", token),
		zap.String("reason", reason),
		zap.Int("violations", session.ViolationCount))

	return s.score(session, testResults)
}

// Terminate 管理方显式作废：任何非终止态直达 terminated，不评分
func (s *SessionService) Terminate(token, reason string) error {
	if reason == "" {
		reason = ReasonRevoked
	}
	won, err := s.Sessions.Close(token, model.NonTerminalStatuses(), model.SessionTerminated,
		map[string]interface{}{"termination_reason": reason})
	if err != nil {
		return err
	}
	if !won {
		return util.ErrSessionTerminal
	}
	monitoring.SessionsClosed.WithLabelValues(string(model.SessionTerminated), reason).Inc()
	return nil
}

// SweepStale 到龄未启动的会话收尾为 expired（后台巡检调用）
func (s *SessionService) SweepStale(maxAge time.Duration) error {
	cutoff := s.now().Add(-maxAge)
	return s.Sessions.DB.Model(&model.AssessmentSession{}).
		Where("status IN ? AND created_at < ?",
			[]model.SessionStatus{model.SessionPending, model.SessionReady}, cutoff).
		Updates(map[string]interface{}{
			"status":             model.SessionExpired,
			"termination_reason": ReasonTimeExpired,
		}).Error
}

// score 合成最终分：简历匹配分 40% + 笔试分 60%，再扣 strike 罚则
func (s *SessionService) score(session *model.AssessmentSession, testResults []TestCaseResult) (*SubmitResult, error) {
	assessment, err := s.Assessments.FindByID(session.AssessmentID)
	if err != nil {
		return nil, err
	}

	evalScores := s.Evaluator.Evaluate(session.Answers, assessment.Language,
		assessment.ProblemStatement, testResults)

	resumeScore := s.resumeScore(session.CandidateID, assessment.JobID)
	final := scoring.Compose(resumeScore, evalScores.AssessmentScore(),
		session.ViolationCount, s.Config.ProctoringPolicy().StrikePenaltyPct)

	result := &model.EvaluationResult{
		SessionID:        session.ID,
		CandidateID:      session.CandidateID,
		AssessmentID:     session.AssessmentID,
		LogicScore:       evalScores.LogicScore,
		SemanticsScore:   evalScores.SemanticsScore,
		Penalty:          evalScores.Penalty,
		Feedback:         evalScores.Feedback,
		Fallback:         evalScores.Fallback,
		ResumeScore:      final.ResumeScore,
		AssessmentScore:  final.AssessmentScore,
		ResumeWeight:     final.ResumeWeight,
		AssessmentWeight: final.AssessmentWeight,
		StrikeCount:      final.StrikeCount,
		StrikePenaltyPct: final.StrikePenaltyPct,
		FinalScore:       final.Value,
	}
	if err := s.Evaluations.CreateResult(result); err != nil {
		logger.Log.Error("failed to persist evaluation result", zap.Error(err))
	}

	return &SubmitResult{
		FinalScore:     final.Value,
		IntegrityScore: session.IntegrityScore,
		Status:         session.Status,
		Fallback:       evalScores.Fallback,
	}, nil
}

// resumeScore 取最近一次匹配报告；没有就现算一份并落库。
// 笔试未关联职位时取中性 50 分，避免简历分量把最终分清零。
func (s *SessionService) resumeScore(candidateID, jobID uint) float64 {
	if jobID == 0 {
		return 50
	}
	if report, err := s.Evaluations.FindLatestMatchReport(candidateID, jobID); err == nil {
		return report.TotalScore
	}

	candidate, err := s.Candidates.FindByID(candidateID)
	if err != nil {
		return 50
	}
	job, err := s.Jobs.FindByID(jobID)
	if err != nil {
		return 50
	}

	result := scoring.ComputeMatchScore(candidate.ResumeText, candidate.SkillList(),
		job.SkillList(), job.Experience, job.Description)
	s.persistMatchReport(candidateID, jobID, result)
	return result.TotalScore
}

func (s *SessionService) persistMatchReport(candidateID, jobID uint, r scoring.MatchScoreResult) {
	report := buildMatchReport(candidateID, jobID, r)
	if err := s.Evaluations.CreateMatchReport(report); err != nil && err != gorm.ErrDuplicatedKey {
		logger.Log.Warn("failed to persist match report", zap.Error(err))
	}
}
