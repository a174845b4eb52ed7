package controller

import (
	"errors"

	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/service"
	"talentgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionController 候选人侧接口：凭准入码进入，凭会话令牌操作，不走JWT
type SessionController struct {
	Verify      *service.VerifyService
	Sessions    *service.SessionService
	Proctor     *service.ProctorService
	Evaluations *repository.EvaluationRepository
}

func NewSessionController(verify *service.VerifyService, sessions *service.SessionService, proctor *service.ProctorService, evaluations *repository.EvaluationRepository) *SessionController {
	return &SessionController{Verify: verify, Sessions: sessions, Proctor: proctor, Evaluations: evaluations}
}

// VerifyRequest 准入码核销载荷
// swagger:model VerifyRequest
type VerifyRequest struct {
	Code  string `json:"code" binding:"required"`
	Email string `json:"email"`
}

// VerifyAccess godoc
// @Summary 核销准入码
// @Description 校验一次性准入码并返回可用会话；失败返回稳定原因码
// @Tags 会话
// @Accept  json
// @Produce  json
// @Param   body body VerifyRequest true "准入码与邮箱"
// @Success 200 {object} util.Response{data=model.AssessmentSession} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "核销失败，message 为原因码"
// @Failure 429 {object} util.Response "尝试次数过多"
// @Router /api/access/verify [post]
func (c *SessionController) VerifyAccess(ctx *gin.Context) {
	var req VerifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.Verify.Verify(req.Code, req.Email, ctx.ClientIP())
	if err != nil {
		if errors.Is(err, util.ErrTooManyAttempts) {
			util.Error(ctx, 429, util.ReasonTooManyAttempts)
			return
		}
		if reason := util.VerifyReason(err); reason != "" {
			util.Conflict(ctx, reason)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Get godoc
// @Summary 会话状态
// @Description 会话轮询接口，顺带做服务端到期判定
// @Tags 会话
// @Produce  json
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response{data=model.AssessmentSession} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/sessions/{token} [get]
func (c *SessionController) Get(ctx *gin.Context) {
	session, err := c.Sessions.Get(ctx.Param("token"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, session)
}

// PermissionsRequest 摄像头/麦克风授权上报
// swagger:model PermissionsRequest
type PermissionsRequest struct {
	Camera     bool `json:"camera"`
	Microphone bool `json:"microphone"`
}

// UpdatePermissions godoc
// @Summary 上报监考授权
// @Description 两项授权齐备时会话进入 ready
// @Tags 会话
// @Accept  json
// @Produce  json
// @Param   token path string true "会话令牌"
// @Param   body body PermissionsRequest true "授权状态"
// @Success 200 {object} util.Response{data=model.AssessmentSession} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Failure 409 {object} util.Response "会话已关闭"
// @Router /api/sessions/{token}/permissions [post]
func (c *SessionController) UpdatePermissions(ctx *gin.Context) {
	var req PermissionsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.Sessions.UpdatePermissions(ctx.Param("token"), req.Camera, req.Microphone)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Start godoc
// @Summary 启动计时
// @Description 幂等：重复调用返回剩余时间，不重置计时器
// @Tags 会话
// @Produce  json
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response{data=service.StartResult} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Failure 409 {object} util.Response "会话已关闭"
// @Router /api/sessions/{token}/start [post]
func (c *SessionController) Start(ctx *gin.Context) {
	result, err := c.Sessions.Start(ctx.Param("token"))
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Submit godoc
// @Summary 交卷
// @Tags 会话
// @Accept  json
// @Produce  json
// @Param   token path string true "会话令牌"
// @Param   body body service.SubmitRequest true "答案与测试点结果"
// @Success 200 {object} util.Response{data=service.SubmitResult} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Failure 409 {object} util.Response "会话已关闭或未启动"
// @Router /api/sessions/{token}/submit [post]
func (c *SessionController) Submit(ctx *gin.Context) {
	var req service.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Sessions.Submit(ctx.Param("token"), req)
	if err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// AnswersRequest 答案草稿同步载荷
// swagger:model AnswersRequest
type AnswersRequest struct {
	Answers string `json:"answers" binding:"required"`
}

// SaveAnswers godoc
// @Summary 同步答案草稿
// @Description 计时运行中随时同步；强制交卷（strike、到期）提交的是最近一次同步的草稿
// @Tags 会话
// @Accept  json
// @Produce  json
// @Param   token path string true "会话令牌"
// @Param   body body AnswersRequest true "当前答案"
// @Success 200 {object} util.Response "成功"
// @Failure 404 {object} util.Response "不存在"
// @Failure 409 {object} util.Response "会话已关闭或未启动"
// @Router /api/sessions/{token}/answers [put]
func (c *SessionController) SaveAnswers(ctx *gin.Context) {
	var req AnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Sessions.SaveAnswers(ctx.Param("token"), req.Answers); err != nil {
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"saved": true})
}

// ViolationRequest 监考违规上报载荷。
// Answers 可选：随违规同步当前答案，该违规触发自动交卷时提交的就是这份草稿。
// swagger:model ViolationRequest
type ViolationRequest struct {
	Type     string `json:"type" binding:"required"`
	Severity string `json:"severity" binding:"required"`
	Detail   string `json:"detail"`
	Answers  string `json:"answers"`
}

// ReportViolation godoc
// @Summary 上报监考违规
// @Description 记录违规并按严重度扣减诚信分；达到 strike 预算自动交卷
// @Tags 会话
// @Accept  json
// @Produce  json
// @Param   token path string true "会话令牌"
// @Param   body body ViolationRequest true "违规信息"
// @Success 200 {object} util.Response{data=service.ViolationResult} "成功"
// @Failure 400 {object} util.Response "严重度非法"
// @Failure 409 {object} util.Response "会话已关闭"
// @Router /api/sessions/{token}/violations [post]
func (c *SessionController) ReportViolation(ctx *gin.Context) {
	var req ViolationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	// 先落盘草稿再记违规：这条违规可能就是触发自动交卷的那一条
	if req.Answers != "" {
		if err := c.Sessions.SaveAnswers(ctx.Param("token"), req.Answers); err != nil {
			c.sessionError(ctx, err)
			return
		}
	}

	result, err := c.Proctor.RecordViolation(ctx.Param("token"), req.Type,
		model.ViolationSeverity(req.Severity), req.Detail)
	if err != nil {
		if errors.Is(err, util.ErrInvalidSeverity) {
			util.BadRequest(ctx, err.Error())
			return
		}
		c.sessionError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListViolations godoc
// @Summary 会话违规流水
// @Tags 会话
// @Produce  json
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/sessions/{token}/violations [get]
func (c *SessionController) ListViolations(ctx *gin.Context) {
	violations, counts, err := c.Proctor.Violations(ctx.Param("token"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{"violations": violations, "counts": counts})
}

// GetResult godoc
// @Summary 会话评测结果
// @Description 最终合成分与各分项，仅提交后可用
// @Tags 会话
// @Produce  json
// @Param   token path string true "会话令牌"
// @Success 200 {object} util.Response{data=model.EvaluationResult} "成功"
// @Failure 404 {object} util.Response "不存在或尚未评分"
// @Router /api/sessions/{token}/result [get]
func (c *SessionController) GetResult(ctx *gin.Context) {
	session, err := c.Sessions.Get(ctx.Param("token"))
	if err != nil {
		util.NotFound(ctx)
		return
	}
	result, err := c.Evaluations.FindBySessionID(session.ID)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, result)
}

func (c *SessionController) sessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrSessionTerminal):
		util.Conflict(ctx, util.ReasonSessionClosed)
	case errors.Is(err, util.ErrSessionNotStarted):
		util.Error(ctx, 409, "session not started")
	default:
		util.LogInternalError(ctx, err)
	}
}
