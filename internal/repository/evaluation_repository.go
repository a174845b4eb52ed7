package repository

import (
	"talentgate_backend/internal/model"

	"gorm.io/gorm"
)

type EvaluationRepository struct {
	DB *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{DB: db}
}

// CreateResult 评测结果一次写入；SessionID 唯一索引保证一次提交只评一次
func (r *EvaluationRepository) CreateResult(e *model.EvaluationResult) error {
	return r.DB.Create(e).Error
}

func (r *EvaluationRepository) FindBySessionID(sessionID uint) (*model.EvaluationResult, error) {
	var e model.EvaluationResult
	err := r.DB.Where("session_id = ?", sessionID).First(&e).Error
	return &e, err
}

func (r *EvaluationRepository) ListByAssessment(assessmentID uint, page, limit int) ([]model.EvaluationResult, int64, error) {
	var es []model.EvaluationResult
	var total int64
	query := r.DB.Model(&model.EvaluationResult{}).Where("assessment_id = ?", assessmentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("final_score desc").Offset(offset).Limit(limit).Find(&es).Error
	return es, total, err
}

func (r *EvaluationRepository) CreateMatchReport(m *model.MatchReport) error {
	return r.DB.Create(m).Error
}

func (r *EvaluationRepository) FindLatestMatchReport(candidateID, jobID uint) (*model.MatchReport, error) {
	var m model.MatchReport
	err := r.DB.Where("candidate_id = ? AND job_id = ?", candidateID, jobID).
		Order("created_at desc").First(&m).Error
	return &m, err
}
