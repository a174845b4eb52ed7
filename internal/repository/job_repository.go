package repository

import (
	"talentgate_backend/internal/model"

	"gorm.io/gorm"
)

type JobRepository struct {
	DB *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{DB: db}
}

func (r *JobRepository) Create(job *model.Job) error {
	return r.DB.Create(job).Error
}

func (r *JobRepository) FindByID(id uint) (*model.Job, error) {
	var j model.Job
	err := r.DB.First(&j, id).Error
	return &j, err
}

func (r *JobRepository) List(page, limit int) ([]model.Job, int64, error) {
	var jobs []model.Job
	var total int64
	query := r.DB.Model(&model.Job{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&jobs).Error
	return jobs, total, err
}

func (r *JobRepository) Update(job *model.Job) error {
	return r.DB.Save(job).Error
}
