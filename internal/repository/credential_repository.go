package repository

import (
	"time"

	"talentgate_backend/internal/model"

	"gorm.io/gorm"
)

type CredentialRepository struct {
	DB *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{DB: db}
}

func (r *CredentialRepository) Create(c *model.AccessCredential) error {
	return r.DB.Create(c).Error
}

func (r *CredentialRepository) FindByCode(code string) (*model.AccessCredential, error) {
	var c model.AccessCredential
	err := r.DB.Where("code = ?", code).First(&c).Error
	return &c, err
}

// MarkUsed 条件更新：只有 used 仍为 false 的那一次调用能成功。
// 并发核销同一凭证时恰好一个调用方拿到 true，其余观察到“已使用”。
func (r *CredentialRepository) MarkUsed(code string, now time.Time) (bool, error) {
	res := r.DB.Model(&model.AccessCredential{}).
		Where("code = ? AND used = ?", code, false).
		Updates(map[string]interface{}{"used": true, "used_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// AppendAttempt 核销审计日志只追加，成功失败都要记录
func (r *CredentialRepository) AppendAttempt(a *model.VerificationAttempt) error {
	return r.DB.Create(a).Error
}

func (r *CredentialRepository) ListAttempts(code string, limit int) ([]model.VerificationAttempt, error) {
	var as []model.VerificationAttempt
	err := r.DB.Where("code = ?", code).Order("created_at desc").Limit(limit).Find(&as).Error
	return as, err
}
