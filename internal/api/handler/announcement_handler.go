package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	"capstone-hub/backend/pkg/response"
)

// AnnouncementHandler 学期公告模块 HTTP 处理器
type AnnouncementHandler struct {
	announcementSvc service.AnnouncementService
}

// NewAnnouncementHandler 创建 AnnouncementHandler
func NewAnnouncementHandler(announcementSvc service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementSvc: announcementSvc}
}

// CreateAnnouncement 创建公告（管理员）
// POST /api/v1/announcements
func (h *AnnouncementHandler) CreateAnnouncement(c *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	announcement, err := h.announcementSvc.CreateAnnouncement(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.Created(c, announcement)
}

// UpdateAnnouncement 更新公告（管理员）
// PUT /api/v1/announcements/:id
func (h *AnnouncementHandler) UpdateAnnouncement(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "公告ID不能为空")
		return
	}

	var req dto.UpdateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	announcement, err := h.announcementSvc.UpdateAnnouncement(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, announcement)
}

// PublishAnnouncement 发布公告（管理员）
// PUT /api/v1/announcements/:id/publish
func (h *AnnouncementHandler) PublishAnnouncement(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "公告ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	announcement, err := h.announcementSvc.PublishAnnouncement(c.Request.Context(), callerID, id)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, announcement)
}

// GetCurrentAnnouncement 查询当前生效公告
// GET /api/v1/announcements/current
func (h *AnnouncementHandler) GetCurrentAnnouncement(c *gin.Context) {
	semester := c.Query("semester")

	announcement, err := h.announcementSvc.GetCurrentAnnouncement(c.Request.Context(), semester)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, announcement)
}

// ListAnnouncements 公告列表
// GET /api/v1/announcements
func (h *AnnouncementHandler) ListAnnouncements(c *gin.Context) {
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	announcements, err := h.announcementSvc.ListAnnouncements(c.Request.Context(), role)
	if err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, announcements)
}

// DeleteAnnouncement 删除公告（管理员）
// DELETE /api/v1/announcements/:id
func (h *AnnouncementHandler) DeleteAnnouncement(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "公告ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.announcementSvc.DeleteAnnouncement(c.Request.Context(), callerID, id); err != nil {
		h.handleAnnouncementError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AnnouncementHandler) handleAnnouncementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnnouncementNotFound):
		response.NotFound(c, 18001, "公告不存在")
	case errors.Is(err, service.ErrDeadlineInvalid):
		response.BadRequest(c, 18002, "截止时间格式无效")
	default:
		response.InternalError(c)
	}
}
