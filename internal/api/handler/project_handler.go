package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	pkgerrors "capstone-hub/backend/pkg/errors"
	"capstone-hub/backend/pkg/response"
)

// ProjectHandler 项目（选题）模块 HTTP 处理器
type ProjectHandler struct {
	projectSvc service.ProjectService
}

// NewProjectHandler 创建 ProjectHandler
func NewProjectHandler(projectSvc service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectSvc: projectSvc}
}

// Register 学生选题
// POST /api/v1/projects
func (h *ProjectHandler) Register(c *gin.Context) {
	var req dto.RegisterProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.Register(c.Request.Context(), callerID, role, &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.Created(c, project)
}

// Withdraw 退选
// DELETE /api/v1/projects/:id
func (h *ProjectHandler) Withdraw(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	if err := h.projectSvc.Withdraw(c.Request.Context(), callerID, role, id); err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetProject 查询项目
// GET /api/v1/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	project, err := h.projectSvc.GetProject(c.Request.Context(), id)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

// ListProjects 项目列表
// GET /api/v1/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	var req dto.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	projects, total, err := h.projectSvc.ListProjects(c.Request.Context(), &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	response.OKPage(c, projects, total, page, pageSize)
}

// ListMyProjects 我的项目
// GET /api/v1/projects/my
func (h *ProjectHandler) ListMyProjects(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	projects, err := h.projectSvc.ListMyProjects(c.Request.Context(), callerID)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, projects)
}

// UpdateStatus 推进项目状态
// PUT /api/v1/projects/:id/status
func (h *ProjectHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	var req dto.UpdateProjectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.UpdateStatus(c.Request.Context(), callerID, role, id, &req)
	if err != nil {
		h.handleProjectError(c, err)
		return
	}

	response.OK(c, project)
}

func (h *ProjectHandler) handleProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 13001, "项目不存在")
	case errors.Is(err, service.ErrProjectForbidden):
		response.Forbidden(c, 13002, "无权操作该项目")
	case errors.Is(err, service.ErrStudentHasActiveProject):
		response.Conflict(c, 13003, "已有进行中的项目，不能重复选题")
	case errors.Is(err, service.ErrTopicFull):
		response.Conflict(c, 13004, "课题名额已满")
	case errors.Is(err, service.ErrRegistrationDeadline):
		response.Forbidden(c, 13005, "已超过选题截止时间")
	case errors.Is(err, service.ErrInvalidProjectTransition):
		response.Conflict(c, 13006, "项目状态不允许该变更")
	case errors.Is(err, service.ErrProjectNotWithdrawable):
		response.Conflict(c, 13007, "当前状态不允许退选")
	case errors.Is(err, service.ErrStudentIDRequired):
		response.BadRequest(c, 13008, "必须指定学生")
	case errors.Is(err, service.ErrTopicNotFound):
		response.NotFound(c, 12001, "课题不存在")
	case errors.Is(err, service.ErrTopicNotApproved):
		response.Conflict(c, 12006, "课题尚未通过审核")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 11008, "学生不存在")
	case errors.Is(err, pkgerrors.ErrStaleWrite):
		response.Conflict(c, 13009, "项目已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
