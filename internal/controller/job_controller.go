package controller

import (
	"encoding/json"
	"strconv"

	"talentgate_backend/internal/model"
	"talentgate_backend/internal/repository"
	"talentgate_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type JobController struct {
	Jobs *repository.JobRepository
}

func NewJobController(jobs *repository.JobRepository) *JobController {
	return &JobController{Jobs: jobs}
}

// JobRequest 职位创建/更新载荷
// swagger:model JobRequest
type JobRequest struct {
	Title       string   `json:"title" binding:"required"`
	Department  string   `json:"department"`
	Description string   `json:"description"`
	// 按重要性排序，排在前面的一半视为核心技能
	RequiredSkills []string `json:"requiredSkills" binding:"required,min=1"`
	Experience     string   `json:"experience"`
}

// Create godoc
// @Summary 创建职位
// @Tags 职位
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body JobRequest true "职位信息"
// @Success 201 {object} util.Response{data=model.Job} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Router /api/jobs [post]
func (c *JobController) Create(ctx *gin.Context) {
	var req JobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skills, _ := json.Marshal(req.RequiredSkills)
	job := &model.Job{
		Title:          req.Title,
		Department:     req.Department,
		Description:    req.Description,
		RequiredSkills: skills,
		Experience:     req.Experience,
		IsOpen:         true,
	}
	if claims := util.GetUserFromContext(ctx); claims != nil {
		job.CreatorID = claims.UserID
	}

	if err := c.Jobs.Create(job); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, job)
}

// Get godoc
// @Summary 职位详情
// @Tags 职位
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "职位ID"
// @Success 200 {object} util.Response{data=model.Job} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/jobs/{id} [get]
func (c *JobController) Get(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	job, err := c.Jobs.FindByID(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, job)
}

// List godoc
// @Summary 职位列表
// @Tags 职位
// @Produce  json
// @Security ApiKeyAuth
// @Param   page query int false "页码"
// @Param   limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse} "成功"
// @Router /api/jobs [get]
func (c *JobController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	jobs, total, err := c.Jobs.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: jobs, Total: total, Page: page, Limit: limit})
}

// Update godoc
// @Summary 更新职位
// @Tags 职位
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "职位ID"
// @Param   body body JobRequest true "职位信息"
// @Success 200 {object} util.Response{data=model.Job} "成功"
// @Failure 404 {object} util.Response "不存在"
// @Router /api/jobs/{id} [put]
func (c *JobController) Update(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	job, err := c.Jobs.FindByID(id)
	if err != nil {
		util.NotFound(ctx)
		return
	}

	var req JobRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	skills, _ := json.Marshal(req.RequiredSkills)
	job.Title = req.Title
	job.Department = req.Department
	job.Description = req.Description
	job.RequiredSkills = skills
	job.Experience = req.Experience

	if err := c.Jobs.Update(job); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, job)
}
