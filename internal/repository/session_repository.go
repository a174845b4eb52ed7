package repository

import (
	"time"

	"talentgate_backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{DB: db}
}

func (r *SessionRepository) Create(s *model.AssessmentSession) error {
	return r.DB.Create(s).Error
}

func (r *SessionRepository) FindByToken(token string) (*model.AssessmentSession, error) {
	var s model.AssessmentSession
	err := r.DB.Where("token = ?", token).First(&s).Error
	return &s, err
}

func (r *SessionRepository) FindByID(id uint) (*model.AssessmentSession, error) {
	var s model.AssessmentSession
	err := r.DB.First(&s, id).Error
	return &s, err
}

// FindLiveByCandidateAndAssessment 返回同一候选人+笔试的非终止会话（若存在），用于复用
func (r *SessionRepository) FindLiveByCandidateAndAssessment(candidateID, assessmentID uint) (*model.AssessmentSession, error) {
	var s model.AssessmentSession
	err := r.DB.Where("candidate_id = ? AND assessment_id = ? AND status IN ?",
		candidateID, assessmentID, model.NonTerminalStatuses()).
		Order("created_at desc").First(&s).Error
	return &s, err
}

// HasCompletedSubmission 该候选人+笔试是否已有完成的提交
func (r *SessionRepository) HasCompletedSubmission(candidateID, assessmentID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.AssessmentSession{}).
		Where("candidate_id = ? AND assessment_id = ? AND status = ?",
			candidateID, assessmentID, model.SessionSubmitted).
		Count(&count).Error
	return count > 0, err
}

func (r *SessionRepository) ListByAssessment(assessmentID uint, page, limit int) ([]model.AssessmentSession, int64, error) {
	var ss []model.AssessmentSession
	var total int64
	query := r.DB.Model(&model.AssessmentSession{}).Where("assessment_id = ?", assessmentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("created_at desc").Offset(offset).Limit(limit).
		Preload("Candidate").Find(&ss).Error
	return ss, total, err
}

// UpdatePermissions 仅在非终止态更新授权位；pending 且两项齐备时推进到 ready
func (r *SessionRepository) UpdatePermissions(token string, camera, microphone bool) (bool, error) {
	res := r.DB.Model(&model.AssessmentSession{}).
		Where("token = ? AND status IN ?", token, model.NonTerminalStatuses()).
		Updates(map[string]interface{}{
			"camera_granted":     camera,
			"microphone_granted": microphone,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if camera && microphone {
		err := r.DB.Model(&model.AssessmentSession{}).
			Where("token = ? AND status = ?", token, model.SessionPending).
			Update("status", model.SessionReady).Error
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Start 条件更新启动会话：status IN (pending, ready) 的那一次调用生效并写入起止时间。
// 已启动的会话不受影响（RowsAffected == 0），调用方据此返回剩余时间而不是重置计时。
func (r *SessionRepository) Start(token string, startedAt, expiresAt time.Time) (bool, error) {
	res := r.DB.Model(&model.AssessmentSession{}).
		Where("token = ? AND status IN ?", token,
			[]model.SessionStatus{model.SessionPending, model.SessionReady}).
		Updates(map[string]interface{}{
			"status":     model.SessionStarted,
			"started_at": startedAt,
			"expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SaveAnswers 同步计时运行中会话的答案草稿；终止态与未启动态不接受写入。
// 强制交卷（strike 到达预算、到期）提交的就是最近一次同步的草稿。
func (r *SessionRepository) SaveAnswers(token, answers string) (bool, error) {
	res := r.DB.Model(&model.AssessmentSession{}).
		Where("token = ? AND status IN ?", token, model.ActiveStatuses()).
		Update("answers", answers)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ApplyViolation 单事务内追加违规记录并原子更新诚信分与违规计数。
// 诚信分扣减在 SQL 里完成（带 0 下限），绝不走读-改-写，
// 毫秒级并发的两个违规事件都必须被记录且都反映在最终诚信分里。
func (r *SessionRepository) ApplyViolation(sessionID uint, v *model.ProctoringViolation, penalty int) (bool, error) {
	applied := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.AssessmentSession{}).
			Where("id = ? AND status IN ?", sessionID, model.ActiveStatuses()).
			Updates(map[string]interface{}{
				"integrity_score": gorm.Expr(
					"CASE WHEN integrity_score - ? < 0 THEN 0 ELSE integrity_score - ? END",
					penalty, penalty),
				"violation_count": gorm.Expr("violation_count + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// 会话已终止或不存在，违规不落库
			return nil
		}
		applied = true
		return tx.Create(v).Error
	})
	return applied, err
}

// Flag started → flagged 软告警，仅当诚信分已低于阈值
func (r *SessionRepository) Flag(sessionID uint, threshold int) error {
	return r.DB.Model(&model.AssessmentSession{}).
		Where("id = ? AND status = ? AND integrity_score < ?",
			sessionID, model.SessionStarted, threshold).
		Update("status", model.SessionFlagged).Error
}

// Close 终止迁移的唯一入口：status 仍在 from 集合中的那一次调用获胜。
// 并发的人工提交与到期自动提交只会有一个生效。
func (r *SessionRepository) Close(token string, from []model.SessionStatus, to model.SessionStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to
	res := r.DB.Model(&model.AssessmentSession{}).
		Where("token = ? AND status IN ?", token, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *SessionRepository) ListViolations(sessionID uint) ([]model.ProctoringViolation, error) {
	var vs []model.ProctoringViolation
	err := r.DB.Where("session_id = ?", sessionID).Order("created_at asc, id asc").Find(&vs).Error
	return vs, err
}

// CountViolationsByType 会话内各违规类型的计数
func (r *SessionRepository) CountViolationsByType(sessionID uint) (map[string]int, error) {
	type row struct {
		Type  string
		Count int
	}
	var rows []row
	err := r.DB.Model(&model.ProctoringViolation{}).
		Select("type, count(*) as count").
		Where("session_id = ?", sessionID).
		Group("type").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}
