package controller

import (
	"strconv"

	"talentgate_backend/internal/service"
	"talentgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type MatchController struct {
	Match *service.MatchService
}

func NewMatchController(match *service.MatchService) *MatchController {
	return &MatchController{Match: match}
}

// Score godoc
// @Summary 即席匹配评分
// @Description 对给定简历文本与职位要求打分，不落库
// @Tags 匹配
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.MatchScoreRequest true "简历与职位要求"
// @Success 200 {object} util.Response{data=scoring.MatchScoreResult} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/match/score [post]
func (c *MatchController) Score(ctx *gin.Context) {
	var req service.MatchScoreRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, c.Match.ComputeMatchScore(req))
}

// ScoreCandidate godoc
// @Summary 候选人-职位匹配报告
// @Description 对存量候选人与职位打分并落库
// @Tags 匹配
// @Produce  json
// @Security ApiKeyAuth
// @Param   candidateId path int true "候选人ID"
// @Param   jobId path int true "职位ID"
// @Success 200 {object} util.Response{data=model.MatchReport} "成功"
// @Failure 404 {object} util.Response "候选人或职位不存在"
// @Router /api/match/candidates/{candidateId}/jobs/{jobId} [post]
func (c *MatchController) ScoreCandidate(ctx *gin.Context) {
	candidateID := util.MustParseUint(ctx.Param("candidateId"))
	jobID := util.MustParseUint(ctx.Param("jobId"))

	report, err := c.Match.ScoreCandidateForJob(candidateID, jobID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, report)
}

// Leaderboard godoc
// @Summary 笔试排行
// @Description 某场笔试的评测结果，按最终合成分降序
// @Tags 匹配
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "笔试ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/assessments/{id}/results [get]
func (c *MatchController) Leaderboard(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	results, total, err := c.Match.Evaluations.ListByAssessment(id, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: results, Total: total, Page: page, Limit: limit})
}
