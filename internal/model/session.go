package model

import "time"

// SessionStatus 会话状态，封闭枚举。
// 状态图: pending → ready → started → {submitted|terminated|expired}
// flagged 是 started 的软告警态，不终止会话。
type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionReady      SessionStatus = "ready"
	SessionStarted    SessionStatus = "started"
	SessionFlagged    SessionStatus = "flagged"
	SessionSubmitted  SessionStatus = "submitted"
	SessionTerminated SessionStatus = "terminated"
	SessionExpired    SessionStatus = "expired"
)

// sessionTransitions 显式迁移表，任何不在表中的迁移都是非法的
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionPending: {SessionReady, SessionStarted, SessionTerminated, SessionExpired},
	SessionReady:   {SessionStarted, SessionTerminated, SessionExpired},
	SessionStarted: {SessionFlagged, SessionSubmitted, SessionTerminated, SessionExpired},
	SessionFlagged: {SessionSubmitted, SessionTerminated, SessionExpired},
}

func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionSubmitted, SessionTerminated, SessionExpired:
		return true
	}
	return false
}

// Active 会话是否处于计时运行中
func (s SessionStatus) Active() bool {
	return s == SessionStarted || s == SessionFlagged
}

func (s SessionStatus) CanTransition(to SessionStatus) bool {
	for _, next := range sessionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveStatuses 用于 SQL 条件更新的非终止运行态集合
func ActiveStatuses() []SessionStatus {
	return []SessionStatus{SessionStarted, SessionFlagged}
}

// NonTerminalStatuses 全部非终止态
func NonTerminalStatuses() []SessionStatus {
	return []SessionStatus{SessionPending, SessionReady, SessionStarted, SessionFlagged}
}

// AssessmentSession 监考笔试会话
// swagger:model AssessmentSession
type AssessmentSession struct {
	BaseModel
	Token        string      `gorm:"size:64;uniqueIndex;not null" json:"token"`
	CandidateID  uint        `gorm:"index;type:bigint unsigned" json:"candidateId"`
	Candidate    *Candidate  `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	AssessmentID uint        `gorm:"index;type:bigint unsigned" json:"assessmentId"`
	Assessment   *Assessment `gorm:"foreignKey:AssessmentID" json:"assessment,omitempty"`

	Status SessionStatus `gorm:"size:20;default:'pending';index" json:"status"`

	// 时间限制（秒），创建时从 Assessment 快照
	TimeLimit int        `gorm:"default:3600" json:"timeLimit"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	// 到期时间 = StartedAt + TimeLimit，过期检测只比较墙钟，不依赖进程内定时器
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`

	CameraGranted     bool `gorm:"default:false" json:"cameraGranted"`
	MicrophoneGranted bool `gorm:"default:false" json:"microphoneGranted"`

	// 诚信分 0-100，只减不增
	IntegrityScore int `gorm:"default:100" json:"integrityScore"`
	// 违规总次数，同时也是 strike 计数
	ViolationCount    int    `gorm:"default:0" json:"violationCount"`
	TerminationReason string `gorm:"size:255" json:"terminationReason,omitempty"`

	Answers string `gorm:"type:longtext" json:"-"`
}

func (AssessmentSession) TableName() string {
	return "assessment_sessions"
}

// ExpiredNow 会话是否已过墙钟到期时间
func (s *AssessmentSession) ExpiredNow(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// RemainingSeconds 剩余秒数，未开始返回完整时限
func (s *AssessmentSession) RemainingSeconds(now time.Time) int {
	if s.ExpiresAt == nil {
		return s.TimeLimit
	}
	remaining := int(s.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ViolationSeverity 违规严重度档位
type ViolationSeverity string

const (
	SeverityLow      ViolationSeverity = "low"
	SeverityMedium   ViolationSeverity = "medium"
	SeverityHigh     ViolationSeverity = "high"
	SeverityCritical ViolationSeverity = "critical"
)

// IntegrityPenalty 各档位对诚信分的固定扣减
func (v ViolationSeverity) IntegrityPenalty() int {
	switch v {
	case SeverityLow:
		return 2
	case SeverityMedium:
		return 5
	case SeverityHigh:
		return 10
	case SeverityCritical:
		return 20
	}
	return 0
}

func (v ViolationSeverity) Valid() bool {
	switch v {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// ProctoringViolation 会话内的一条违规记录，只追加
type ProctoringViolation struct {
	BaseModel
	SessionID uint              `gorm:"index;type:bigint unsigned" json:"sessionId"`
	Type      string            `gorm:"size:50;not null" json:"type"` // focus_loss, tab_switch, paste, right_click ...
	Severity  ViolationSeverity `gorm:"size:20;not null" json:"severity"`
	Detail    string            `gorm:"type:text" json:"detail"`
}

func (ProctoringViolation) TableName() string {
	return "proctoring_violations"
}
