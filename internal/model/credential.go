package model

import "time"

// AccessCredential 一次性准入凭证，绑定唯一候选人与唯一笔试
// used 置位后任何后续核销必须失败
// swagger:model AccessCredential
type AccessCredential struct {
	BaseModel
	Code         string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	CandidateID  uint       `gorm:"index;type:bigint unsigned" json:"candidateId"`
	Candidate    *Candidate `gorm:"foreignKey:CandidateID" json:"candidate,omitempty"`
	AssessmentID uint       `gorm:"index;type:bigint unsigned" json:"assessmentId"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	Used         bool       `gorm:"default:false" json:"used"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
}

func (AccessCredential) TableName() string {
	return "access_credentials"
}

func (c *AccessCredential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// VerificationAttempt 凭证核销审计日志，只追加不修改
type VerificationAttempt struct {
	BaseModel
	Code           string `gorm:"size:64;index" json:"code"`
	CandidateEmail string `gorm:"size:100" json:"candidateEmail"`
	Outcome        string `gorm:"size:30;not null" json:"outcome"`
	ClientIP       string `gorm:"size:45" json:"clientIp"`
}

func (VerificationAttempt) TableName() string {
	return "verification_attempts"
}
