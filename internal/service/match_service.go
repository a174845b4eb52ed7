package service

import (
	"encoding/json"

	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/scoring"
)

// MatchService 简历-职位匹配评分的服务入口
type MatchService struct {
	Candidates  *repository.CandidateRepository
	Jobs        *repository.JobRepository
	Evaluations *repository.EvaluationRepository
}

func NewMatchService(
	candidates *repository.CandidateRepository,
	jobs *repository.JobRepository,
	evaluations *repository.EvaluationRepository,
) *MatchService {
	return &MatchService{Candidates: candidates, Jobs: jobs, Evaluations: evaluations}
}

type MatchScoreRequest struct {
	ResumeText     string   `json:"resumeText" binding:"required"`
	ResumeSkills   []string `json:"resumeSkills"`
	JobSkills      []string `json:"jobSkills" binding:"required"`
	JobExperience  string   `json:"jobExperience"`
	JobDescription string   `json:"jobDescription"`
}

// ComputeMatchScore 纯打分，不落库（ad hoc 评分接口用）
func (s *MatchService) ComputeMatchScore(req MatchScoreRequest) scoring.MatchScoreResult {
	resumeSkills := req.ResumeSkills
	if len(resumeSkills) == 0 {
		// 未提供抽取结果时从简历全文现场抽取
		resumeSkills = scoring.Default().Extract(req.ResumeText)
	}
	return scoring.ComputeMatchScore(req.ResumeText, resumeSkills, req.JobSkills,
		req.JobExperience, req.JobDescription)
}

// ScoreCandidateForJob 对存量候选人与职位打分并落库为匹配报告
func (s *MatchService) ScoreCandidateForJob(candidateID, jobID uint) (*model.MatchReport, error) {
	candidate, err := s.Candidates.FindByID(candidateID)
	if err != nil {
		return nil, err
	}
	job, err := s.Jobs.FindByID(jobID)
	if err != nil {
		return nil, err
	}

	skills := candidate.SkillList()
	if len(skills) == 0 {
		skills = scoring.Default().Extract(candidate.ResumeText)
	}

	result := scoring.ComputeMatchScore(candidate.ResumeText, skills, job.SkillList(),
		job.Experience, job.Description)

	report := buildMatchReport(candidateID, jobID, result)
	if err := s.Evaluations.CreateMatchReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

func buildMatchReport(candidateID, jobID uint, r scoring.MatchScoreResult) *model.MatchReport {
	matched, _ := json.Marshal(r.MatchedSkills)
	missing, _ := json.Marshal(r.MissingSkills)
	return &model.MatchReport{
		CandidateID:      candidateID,
		JobID:            jobID,
		TotalScore:       r.TotalScore,
		SkillScore:       r.SkillScore,
		ExperienceScore:  r.ExperienceScore,
		DepartmentScore:  r.DepartmentScore,
		ProjectScore:     r.ProjectScore,
		DescriptionScore: r.DescriptionScore,
		MatchedSkills:    matched,
		MissingSkills:    missing,
		Explanation:      r.Explanation,
	}
}
