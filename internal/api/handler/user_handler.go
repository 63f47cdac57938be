package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	"capstone-hub/backend/pkg/response"
)

// UserHandler 用户管理模块 HTTP 处理器（管理员）
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// CreateUser 创建用户
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.Created(c, user)
}

// GetUser 查询用户
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "用户ID不能为空")
		return
	}

	user, err := h.userSvc.GetUser(c.Request.Context(), id)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "用户ID不能为空")
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.UpdateUser(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "用户ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.DeleteUser(c.Request.Context(), callerID, id); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListUsers 用户列表
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, total, err := h.userSvc.ListUsers(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	response.OKPage(c, users, total, page, pageSize)
}

// ListReviewers 可评阅教师列表
// GET /api/v1/users/reviewers
func (h *UserHandler) ListReviewers(c *gin.Context) {
	reviewers, err := h.userSvc.ListReviewers(c.Request.Context())
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, reviewers)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11001, "用户不存在")
	case errors.Is(err, service.ErrEmailTaken):
		response.Conflict(c, 11002, "邮箱已被注册")
	case errors.Is(err, service.ErrStudentCodeTaken):
		response.Conflict(c, 11003, "学号已被注册")
	case errors.Is(err, service.ErrTeacherCodeTaken):
		response.Conflict(c, 11004, "教师工号已被注册")
	case errors.Is(err, service.ErrProfileRequired):
		response.BadRequest(c, 11005, "缺少对应角色的档案信息")
	case errors.Is(err, service.ErrCannotDisableSelf):
		response.BadRequest(c, 11006, "不能停用自己的账号")
	default:
		response.InternalError(c)
	}
}
