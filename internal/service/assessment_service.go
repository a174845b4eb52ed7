package service

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
)

// AssessmentService 笔试定义与准入凭证签发（招聘方管理面）
type AssessmentService struct {
	Assessments *repository.AssessmentRepository
	Credentials *repository.CredentialRepository
	Sessions    *repository.SessionRepository
	Candidates  *repository.CandidateRepository
}

func NewAssessmentService(
	assessments *repository.AssessmentRepository,
	credentials *repository.CredentialRepository,
	sessions *repository.SessionRepository,
	candidates *repository.CandidateRepository,
) *AssessmentService {
	return &AssessmentService{
		Assessments: assessments,
		Credentials: credentials,
		Sessions:    sessions,
		Candidates:  candidates,
	}
}

type AssessmentRequest struct {
	JobID            uint   `json:"jobId"`
	Title            string `json:"title" binding:"required"`
	Description      string `json:"description"`
	ProblemStatement string `json:"problemStatement" binding:"required"`
	Language         string `json:"language"`
	TimeLimit        int    `json:"timeLimit"`
}

func (s *AssessmentService) Create(req AssessmentRequest) (*model.Assessment, error) {
	a := &model.Assessment{
		JobID:            req.JobID,
		Title:            req.Title,
		Description:      req.Description,
		ProblemStatement: req.ProblemStatement,
		Language:         req.Language,
		TimeLimit:        req.TimeLimit,
	}
	if a.TimeLimit <= 0 {
		a.TimeLimit = 3600
	}
	if err := s.Assessments.Create(a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AssessmentService) Get(id uint) (*model.Assessment, error) {
	return s.Assessments.FindByID(id)
}

func (s *AssessmentService) List(page, limit int) ([]model.Assessment, int64, error) {
	return s.Assessments.List(page, limit)
}

type IssueCredentialRequest struct {
	CandidateID  uint `json:"candidateId" binding:"required"`
	AssessmentID uint `json:"assessmentId" binding:"required"`
	// 有效期（小时），默认 72
	ValidHours int `json:"validHours"`
}

// IssueCredential 为候选人签发一次性准入码，绑定唯一候选人与唯一笔试
func (s *AssessmentService) IssueCredential(req IssueCredentialRequest) (*model.AccessCredential, error) {
	if _, err := s.Candidates.FindByID(req.CandidateID); err != nil {
		return nil, err
	}
	if _, err := s.Assessments.FindByID(req.AssessmentID); err != nil {
		return nil, err
	}

	validHours := req.ValidHours
	if validHours <= 0 {
		validHours = 72
	}

	cred := &model.AccessCredential{
		Code:         generateAccessCode(),
		CandidateID:  req.CandidateID,
		AssessmentID: req.AssessmentID,
		ExpiresAt:    time.Now().Add(time.Duration(validHours) * time.Hour),
	}
	if err := s.Credentials.Create(cred); err != nil {
		return nil, err
	}
	return cred, nil
}

func (s *AssessmentService) ListSessions(assessmentID uint, page, limit int) ([]model.AssessmentSession, int64, error) {
	return s.Sessions.ListByAssessment(assessmentID, page, limit)
}

func (s *AssessmentService) VerificationLog(code string, limit int) ([]model.VerificationAttempt, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Credentials.ListAttempts(code, limit)
}

// generateAccessCode 128 位随机准入码
func generateAccessCode() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
