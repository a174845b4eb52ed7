package repository

import (
	"talentgate_backend/internal/model"

	"gorm.io/gorm"
)

type CandidateRepository struct {
	DB *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{DB: db}
}

func (r *CandidateRepository) Create(c *model.Candidate) error {
	return r.DB.Create(c).Error
}

func (r *CandidateRepository) FindByID(id uint) (*model.Candidate, error) {
	var c model.Candidate
	err := r.DB.First(&c, id).Error
	return &c, err
}

func (r *CandidateRepository) FindByEmail(email string) (*model.Candidate, error) {
	var c model.Candidate
	err := r.DB.Where("email = ?", email).First(&c).Error
	return &c, err
}

func (r *CandidateRepository) List(page, limit int) ([]model.Candidate, int64, error) {
	var cs []model.Candidate
	var total int64
	query := r.DB.Model(&model.Candidate{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&cs).Error
	return cs, total, err
}

func (r *CandidateRepository) Update(c *model.Candidate) error {
	return r.DB.Save(c).Error
}

func (r *CandidateRepository) UpdateResumeURL(id uint, url string) error {
	return r.DB.Model(&model.Candidate{}).Where("id = ?", id).
		Update("resume_url", url).Error
}
