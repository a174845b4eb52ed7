package service

import (
	"talentgate_backend/internal/config"
	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/util"
	"talentgate_backend/pkg/logger"
	"talentgate_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// ProctorService 监考违规跟踪与诚信评分。
// 违规写入走仓储层的原子追加+扣减，同一会话毫秒级并发的两个违规
// （如 visibilitychange 与 window blur 同时触发）都必须被记录。
type ProctorService struct {
	Sessions *repository.SessionRepository
	Runner   *SessionService
	Config   *config.Config
}

func NewProctorService(sessions *repository.SessionRepository, runner *SessionService, cfg *config.Config) *ProctorService {
	return &ProctorService{Sessions: sessions, Runner: runner, Config: cfg}
}

type ViolationResult struct {
	IntegrityScore int                 `json:"integrityScore"`
	ViolationCount int                 `json:"violationCount"`
	Status         model.SessionStatus `json:"status"`
	// 本次违规是否触发了自动交卷
	Terminated bool `json:"terminated"`
}

// RecordViolation 记录一条违规：追加日志、按严重度扣诚信分（下限 0）、
// strike 计数达到预算立即不可逆地自动交卷。
// 少于预算只告警，到达预算必终止——这是业务规则而不是缺陷。
func (s *ProctorService) RecordViolation(token, violationType string, severity model.ViolationSeverity, detail string) (*ViolationResult, error) {
	if !severity.Valid() {
		return nil, util.ErrInvalidSeverity
	}

	session, err := s.Runner.Get(token)
	if err != nil {
		return nil, err
	}
	// 终止态的违规上报必须显式失败，审计日志要能看到事后篡改的企图
	if session.Status.Terminal() {
		logger.Log.Warn("violation reported against closed session",
			zap.String("token", token),
			zap.String("type", violationType))
		return nil, util.ErrSessionTerminal
	}
	// 未启动的会话没有监考，冲突原因要与“已关闭”可区分
	if !session.Status.Active() {
		return nil, util.ErrSessionNotStarted
	}

	policy := s.Config.ProctoringPolicy()

	violation := &model.ProctoringViolation{
		SessionID: session.ID,
		Type:      violationType,
		Severity:  severity,
		Detail:    detail,
	}
	applied, err := s.Sessions.ApplyViolation(session.ID, violation, severity.IntegrityPenalty())
	if err != nil {
		return nil, err
	}
	if !applied {
		// 和上面的快照检查之间另一个调用方抢先终止了会话
		return nil, util.ErrSessionTerminal
	}
	monitoring.ViolationsRecorded.WithLabelValues(string(severity)).Inc()

	session, err = s.Sessions.FindByToken(token)
	if err != nil {
		return nil, err
	}

	// 诚信分跌破阈值 → flagged 软告警（不终止会话）
	if session.Status == model.SessionStarted && session.IntegrityScore < policy.FlagThreshold {
		if err := s.Sessions.Flag(session.ID, policy.FlagThreshold); err != nil {
			return nil, err
		}
		session.Status = model.SessionFlagged
	}

	result := &ViolationResult{
		IntegrityScore: session.IntegrityScore,
		ViolationCount: session.ViolationCount,
		Status:         session.Status,
	}

	// strike 预算用尽：立即自动交卷，当前答案原样提交。
	// 并发违规同时越线时 AutoSubmit 内部的条件更新保证只收尾一次。
	if session.ViolationCount >= policy.StrikeBudget {
		if _, err := s.Runner.AutoSubmit(token, ReasonStrikeLimit); err != nil &&
			err != util.ErrSessionTerminal {
			return nil, err
		}
		closed, err := s.Sessions.FindByToken(token)
		if err != nil {
			return nil, err
		}
		result.Status = closed.Status
		result.Terminated = true
		logger.Log.Info("session auto-submitted on strike budget",
			zap.String("token", token),
			zap.Int("violations", session.ViolationCount))
	}

	return result, nil
}

// Violations 会话违规流水（按发生顺序）与各类型计数
func (s *ProctorService) Violations(token string) ([]model.ProctoringViolation, map[string]int, error) {
	session, err := s.Sessions.FindByToken(token)
	if err != nil {
		return nil, nil, util.ErrSessionNotFound
	}
	list, err := s.Sessions.ListViolations(session.ID)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.Sessions.CountViolationsByType(session.ID)
	if err != nil {
		return nil, nil, err
	}
	return list, counts, nil
}
