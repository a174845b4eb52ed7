package model

import "encoding/json"

// swagger:model Job
type Job struct {
	BaseModel
	Title       string          `gorm:"size:255;not null" json:"title"`
	Department  string          `gorm:"size:100" json:"department"`
	Description string          `gorm:"type:text" json:"description"`
	// 所需技能，按重要性排序（排在前面的一半视为核心技能）
	RequiredSkills json.RawMessage `gorm:"type:json" json:"requiredSkills"`
	// 经验要求原文，例如 "3+ years of backend development"
	Experience string `gorm:"size:255" json:"experience"`
	IsOpen     bool   `gorm:"default:true" json:"isOpen"`
	CreatorID  uint   `gorm:"index;type:bigint unsigned" json:"creatorId"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) SkillList() []string {
	var skills []string
	if len(j.RequiredSkills) > 0 {
		_ = json.Unmarshal(j.RequiredSkills, &skills)
	}
	return skills
}
