package model

import "encoding/json"

// swagger:model Candidate
type Candidate struct {
	BaseModel
	Name       string          `gorm:"size:100;not null" json:"name"`
	Email      string          `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone      string          `gorm:"size:30" json:"phone"`
	ResumeText string          `gorm:"type:longtext" json:"resumeText"`
	// 从简历中抽取出的规范化技能
	Skills    json.RawMessage `gorm:"type:json" json:"skills"`
	ResumeURL string          `gorm:"size:255" json:"resumeUrl"`
}

func (Candidate) TableName() string {
	return "candidates"
}

func (c *Candidate) SkillList() []string {
	var skills []string
	if len(c.Skills) > 0 {
		_ = json.Unmarshal(c.Skills, &skills)
	}
	return skills
}
