package repository

import (
	"talentgate_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

func (r *AssessmentRepository) Create(a *model.Assessment) error {
	return r.DB.Create(a).Error
}

func (r *AssessmentRepository) FindByID(id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.First(&a, id).Error
	return &a, err
}

func (r *AssessmentRepository) List(page, limit int) ([]model.Assessment, int64, error) {
	var as []model.Assessment
	var total int64
	query := r.DB.Model(&model.Assessment{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&as).Error
	return as, total, err
}

func (r *AssessmentRepository) Update(a *model.Assessment) error {
	return r.DB.Save(a).Error
}
