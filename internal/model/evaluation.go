package model

import "encoding/json"

// EvaluationResult 一次提交的评测结果，写入后不再修改。
// 原始分项、权重与罚则一并落库，最终分可由这些字段重新推导。
// swagger:model EvaluationResult
type EvaluationResult struct {
	BaseModel
	SessionID    uint   `gorm:"uniqueIndex;type:bigint unsigned" json:"sessionId"`
	CandidateID  uint   `gorm:"index;type:bigint unsigned" json:"candidateId"`
	AssessmentID uint   `gorm:"index;type:bigint unsigned" json:"assessmentId"`

	// 外部评测能力返回的分项
	LogicScore     float64 `json:"logicScore"`     // ≤50
	SemanticsScore float64 `json:"semanticsScore"` // ≤50
	Penalty        float64 `json:"penalty"`        // ≤0
	Feedback       string  `gorm:"type:text" json:"feedback"`
	// 评测能力不可用时置位，分数来自确定性的兜底算法
	Fallback bool `gorm:"default:false" json:"fallback"`

	// 合成输入与权重快照
	ResumeScore      float64 `json:"resumeScore"`
	AssessmentScore  float64 `json:"assessmentScore"`
	ResumeWeight     float64 `json:"resumeWeight"`
	AssessmentWeight float64 `json:"assessmentWeight"`
	StrikeCount      int     `json:"strikeCount"`
	StrikePenaltyPct float64 `json:"strikePenaltyPct"`

	FinalScore float64 `json:"finalScore"`
}

func (EvaluationResult) TableName() string {
	return "evaluation_results"
}

// MatchReport 简历-职位匹配报告落库形态，分项与证据可审计
// swagger:model MatchReport
type MatchReport struct {
	BaseModel
	CandidateID uint `gorm:"index;type:bigint unsigned" json:"candidateId"`
	JobID       uint `gorm:"index;type:bigint unsigned" json:"jobId"`

	TotalScore       float64 `json:"totalScore"`
	SkillScore       float64 `json:"skillScore"`
	ExperienceScore  float64 `json:"experienceScore"`
	DepartmentScore  float64 `json:"departmentScore"`
	ProjectScore     float64 `json:"projectScore"`
	DescriptionScore float64 `json:"descriptionScore"`

	MatchedSkills json.RawMessage `gorm:"type:json" json:"matchedSkills"`
	MissingSkills json.RawMessage `gorm:"type:json" json:"missingSkills"`
	Explanation   string          `gorm:"type:text" json:"explanation"`
}

func (MatchReport) TableName() string {
	return "match_reports"
}
