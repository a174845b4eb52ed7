package controller

import (
	"encoding/json"
	"strconv"

	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/scoring"
	"talentgate_backend/internal/service"
	"talentgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CandidateController struct {
	Candidates *repository.CandidateRepository
	Storage    *service.StorageService
}

func NewCandidateController(candidates *repository.CandidateRepository, storage *service.StorageService) *CandidateController {
	return &CandidateController{Candidates: candidates, Storage: storage}
}

// CandidateRequest 候选人创建/更新载荷
// swagger:model CandidateRequest
type CandidateRequest struct {
	Name       string   `json:"name" binding:"required"`
	Email      string   `json:"email" binding:"required,email"`
	Phone      string   `json:"phone"`
	ResumeText string   `json:"resumeText"`
	// 省略时从简历全文抽取
	Skills []string `json:"skills"`
}

// Create godoc
// @Summary 录入候选人
// @Description 录入候选人与简历文本；未提供技能时从简历抽取
// @Tags 候选人
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CandidateRequest true "候选人信息"
// @Success 201 {object} util.Response{data=model.Candidate} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/candidates [post]
func (c *CandidateController) Create(ctx *gin.Context) {
	var req CandidateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skills := req.Skills
	if len(skills) == 0 {
		skills = scoring.Default().Extract(req.ResumeText)
	} else {
		skills = scoring.Default().CanonicalizeAll(skills)
	}
	raw, _ := json.Marshal(skills)

	candidate := &model.Candidate{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		ResumeText: req.ResumeText,
		Skills:     raw,
	}
	if err := c.Candidates.Create(candidate); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, candidate)
}

// Get godoc
// @Summary 候选人详情
// @Tags 候选人
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "候选人ID"
// @Success 200 {object} util.Response{data=model.Candidate} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/candidates/{id} [get]
func (c *CandidateController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	candidate, err := c.Candidates.FindByID(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, candidate)
}

// List godoc
// @Summary 候选人列表
// @Tags 候选人
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/candidates [get]
func (c *CandidateController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	candidates, total, err := c.Candidates.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: candidates, Total: total, Page: page, Limit: limit})
}

// UploadResume godoc
// @Summary 上传简历原件
// @Description 归档简历原件并回写访问地址，打分仍以抽取文本为准
// @Tags 候选人
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "候选人ID"
// @Param   file formData file true "简历文件"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "文件类型不支持"
// @Router /api/candidates/{id}/resume [post]
func (c *CandidateController) UploadResume(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if _, err := c.Candidates.FindByID(id); err != nil {
		util.NotFound(ctx)
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	src, err := file.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer src.Close()

	url, err := c.Storage.StoreResume(ctx.Request.Context(), id, file.Filename, src,
		file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.Success(ctx, gin.H{"resumeUrl": url})
}
