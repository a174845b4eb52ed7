package controller

import (
	"strconv"

	"talentgate_backend/internal/service"
	"talentgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	Assessments *service.AssessmentService
	Sessions    *service.SessionService
	Evaluations *service.MatchService
}

func NewAssessmentController(assessments *service.AssessmentService, sessions *service.SessionService, match *service.MatchService) *AssessmentController {
	return &AssessmentController{Assessments: assessments, Sessions: sessions, Evaluations: match}
}

// Create godoc
// @Summary 创建笔试
// @Tags 笔试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.AssessmentRequest true "笔试定义"
// @Success 201 {object} util.Response{data=model.Assessment} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/assessments [post]
func (c *AssessmentController) Create(ctx *gin.Context) {
	var req service.AssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	assessment, err := c.Assessments.Create(req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, assessment)
}

// Get godoc
// @Summary 笔试详情
// @Tags 笔试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "笔试ID"
// @Success 200 {object} util.Response{data=model.Assessment} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/assessments/{id} [get]
func (c *AssessmentController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	assessment, err := c.Assessments.Get(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, assessment)
}

// List godoc
// @Summary 笔试列表
// @Tags 笔试
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/assessments [get]
func (c *AssessmentController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	assessments, total, err := c.Assessments.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: assessments, Total: total, Page: page, Limit: limit})
}

// IssueCredential godoc
// @Summary 签发准入码
// @Description 为候选人签发一次性笔试准入码
// @Tags 笔试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.IssueCredentialRequest true "签发信息"
// @Success 201 {object} util.Response{data=model.AccessCredential} "签发成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 404 {object} util.Response "候选人或笔试不存在"
// @Router /api/credentials [post]
func (c *AssessmentController) IssueCredential(ctx *gin.Context) {
	var req service.IssueCredentialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	cred, err := c.Assessments.IssueCredential(req)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Created(ctx, cred)
}

// ListSessions godoc
// @Summary 笔试会话列表
// @Tags 笔试
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "笔试ID"
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/assessments/{id}/sessions [get]
func (c *AssessmentController) ListSessions(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	sessions, total, err := c.Assessments.ListSessions(id, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: sessions, Total: total, Page: page, Limit: limit})
}

// VerificationLog godoc
// @Summary 准入码核销审计日志
// @Tags 笔试
// @Produce  json
// @Security ApiKeyAuth
// @Param   code path string true "准入码"
// @Param   limit query int false "返回条数"
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/credentials/{code}/attempts [get]
func (c *AssessmentController) VerificationLog(ctx *gin.Context) {
	code := ctx.Param("code")
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))

	attempts, err := c.Assessments.VerificationLog(code, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"attempts": attempts})
}

// TerminateSession godoc
// @Summary 作废会话
// @Description 管理方显式终止会话，不评分
// @Tags 笔试
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response "成功"
// @Failure 409 {object} util.Response "会话已关闭"
// @Router /api/sessions/{token}/terminate [post]
func (c *AssessmentController) TerminateSession(ctx *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = ctx.ShouldBindJSON(&req)

	if err := c.Sessions.Terminate(ctx.Param("token"), req.Reason); err != nil {
		util.Conflict(ctx, util.ReasonSessionClosed)
		return
	}
	util.Success(ctx, gin.H{"terminated": true})
}
