package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	"capstone-hub/backend/pkg/response"
)

// ProposalHandler 学生自拟课题模块 HTTP 处理器
type ProposalHandler struct {
	proposalSvc service.ProposalService
}

// NewProposalHandler 创建 ProposalHandler
func NewProposalHandler(proposalSvc service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalSvc: proposalSvc}
}

// CreateProposal 提交自拟课题
// POST /api/v1/topic-proposals
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	var req dto.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	proposal, err := h.proposalSvc.CreateProposal(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleProposalError(c, err)
		return
	}

	response.Created(c, proposal)
}

// GetProposal 查询自拟课题
// GET /api/v1/topic-proposals/:id
func (h *ProposalHandler) GetProposal(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "自拟课题ID不能为空")
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

	proposal, err := h.proposalSvc.GetProposal(c.Request.Context(), callerID, role, id)
	if err != nil {
		h.handleProposalError(c, err)
		return
	}

	response.OK(c, proposal)
}

// ListMyProposals 自拟课题列表
// GET /api/v1/topic-proposals
func (h *ProposalHandler) ListMyProposals(c *gin.Context) {
	var req dto.ProposalListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
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

	proposals, total, err := h.proposalSvc.ListMyProposals(c.Request.Context(), callerID, role, &req)
	if err != nil {
		h.handleProposalError(c, err)
		return
	}

	page, pageSize := normalizePage(req.Page, req.PageSize)
	response.OKPage(c, proposals, total, page, pageSize)
}

// ReviewProposal 审核自拟课题（受邀教师）
// PUT /api/v1/topic-proposals/:id/review
func (h *ProposalHandler) ReviewProposal(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "自拟课题ID不能为空")
		return
	}

	var req dto.ReviewProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.proposalSvc.ReviewProposal(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleProposalError(c, err)
		return
	}

	response.OK(c, result)
}

// DeleteProposal 撤回自拟课题
// DELETE /api/v1/topic-proposals/:id
func (h *ProposalHandler) DeleteProposal(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "自拟课题ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.proposalSvc.DeleteProposal(c.Request.Context(), callerID, id); err != nil {
		h.handleProposalError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ProposalHandler) handleProposalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProposalNotFound):
		response.NotFound(c, 15001, "自拟课题不存在")
	case errors.Is(err, service.ErrProposalForbidden):
		response.Forbidden(c, 15002, "无权操作该自拟课题")
	case errors.Is(err, service.ErrProposalExists):
		response.Conflict(c, 15003, "已有待处理的自拟课题")
	case errors.Is(err, service.ErrProposalDeadline):
		response.Forbidden(c, 15004, "已超过自拟课题提交截止时间")
	case errors.Is(err, service.ErrProposalNotPending):
		response.Conflict(c, 15005, "自拟课题已处理，不能重复操作")
	case errors.Is(err, service.ErrTeacherCannotSupervise):
		response.BadRequest(c, 15006, "该教师不接收指导学生")
	case errors.Is(err, service.ErrFeedbackRequired):
		response.BadRequest(c, 15007, "驳回或要求修改必须填写反馈")
	case errors.Is(err, service.ErrStudentHasActiveProject):
		response.Conflict(c, 13003, "已有进行中的项目，不能重复选题")
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 11007, "教师不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 11008, "学生不存在")
	default:
		response.InternalError(c)
	}
}
