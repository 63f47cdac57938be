package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	pkgerrors "capstone-hub/backend/pkg/errors"
	"capstone-hub/backend/pkg/response"
)

// TopicHandler 课题模块 HTTP 处理器
type TopicHandler struct {
	topicSvc service.TopicService
}

// NewTopicHandler 创建 TopicHandler
func NewTopicHandler(topicSvc service.TopicService) *TopicHandler {
	return &TopicHandler{topicSvc: topicSvc}
}

// CreateTopic 创建课题
// POST /api/v1/topics
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	var req dto.CreateTopicRequest
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

	topic, err := h.topicSvc.CreateTopic(c.Request.Context(), callerID, role, &req)
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.Created(c, topic)
}

// GetTopic 查询课题
// GET /api/v1/topics/:id
func (h *TopicHandler) GetTopic(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课题ID不能为空")
		return
	}

	topic, err := h.topicSvc.GetTopic(c.Request.Context(), id)
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.OK(c, topic)
}

// ListTopics 课题列表
// GET /api/v1/topics
func (h *TopicHandler) ListTopics(c *gin.Context) {
	var req dto.TopicListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	topics, total, err := h.topicSvc.ListTopics(c.Request.Context(), &req)
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	response.OKPage(c, topics, total, page, pageSize)
}

// UpdateTopic 更新课题
// PUT /api/v1/topics/:id
func (h *TopicHandler) UpdateTopic(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课题ID不能为空")
		return
	}

	var req dto.UpdateTopicRequest
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

	topic, err := h.topicSvc.UpdateTopic(c.Request.Context(), callerID, role, id, &req)
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.OK(c, topic)
}

// DeleteTopic 删除课题
// DELETE /api/v1/topics/:id
func (h *TopicHandler) DeleteTopic(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课题ID不能为空")
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

	if err := h.topicSvc.DeleteTopic(c.Request.Context(), callerID, role, id); err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.OK(c, nil)
}

// SetTopicStatus 审核课题（管理员）
// PUT /api/v1/topics/:id/status
func (h *TopicHandler) SetTopicStatus(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课题ID不能为空")
		return
	}

	var req dto.SetTopicStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	topic, err := h.topicSvc.SetTopicStatus(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.OK(c, topic)
}

// AssignReviewer 指定评阅教师（管理员）
// PUT /api/v1/topics/:id/reviewer
func (h *TopicHandler) AssignReviewer(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "课题ID不能为空")
		return
	}

	var req dto.AssignReviewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	topic, err := h.topicSvc.AssignReviewer(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.OK(c, topic)
}

// AutoAssignReviewers 批量分配评阅教师（管理员）
// POST /api/v1/topics/auto-assign-reviewers
func (h *TopicHandler) AutoAssignReviewers(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.topicSvc.AutoAssignReviewers(c.Request.Context(), callerID)
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.OK(c, result)
}

// ResetCounters 冗余计数修复（管理员）
// POST /api/v1/topics/reset-counters
func (h *TopicHandler) ResetCounters(c *gin.Context) {
	result, err := h.topicSvc.ResetCounters(c.Request.Context())
	if err != nil {
		h.handleTopicError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *TopicHandler) handleTopicError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTopicNotFound):
		response.NotFound(c, 12001, "课题不存在")
	case errors.Is(err, service.ErrTopicForbidden):
		response.Forbidden(c, 12002, "无权操作该课题")
	case errors.Is(err, service.ErrInvalidTopicTransition):
		response.Conflict(c, 12003, "课题状态不允许该变更")
	case errors.Is(err, service.ErrTopicHasProjects):
		response.Conflict(c, 12005, "课题下存在进行中的项目，不能删除")
	case errors.Is(err, service.ErrTopicNotApproved):
		response.Conflict(c, 12006, "课题尚未通过审核")
	case errors.Is(err, service.ErrReviewerIsSupervisor):
		response.BadRequest(c, 12007, "评阅教师不能是指导教师本人")
	case errors.Is(err, service.ErrReviewerNotEligible):
		response.BadRequest(c, 12008, "该教师不具备评阅资格")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 11007, "教师不存在")
	case errors.Is(err, pkgerrors.ErrStaleWrite):
		response.Conflict(c, 12010, "课题已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
