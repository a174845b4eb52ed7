package model

// swagger:model Assessment
type Assessment struct {
	BaseModel
	JobID       uint   `gorm:"index;type:bigint unsigned" json:"jobId"`
	Job         *Job   `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// 题目/问题描述，提交时连同代码一起交给评测能力
	ProblemStatement string `gorm:"type:text" json:"problemStatement"`
	Language         string `gorm:"size:30" json:"language"`
	// 时间限制（秒）
	TimeLimit   int  `gorm:"default:3600" json:"timeLimit"`
	IsPublished bool `gorm:"default:false" json:"isPublished"`
}

func (Assessment) TableName() string {
	return "assessments"
}
