package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	pkgerrors "capstone-hub/backend/pkg/errors"
	"capstone-hub/backend/pkg/response"
)

// EvaluationHandler 评分模块 HTTP 处理器
type EvaluationHandler struct {
	evaluationSvc service.EvaluationService
}

// NewEvaluationHandler 创建 EvaluationHandler
func NewEvaluationHandler(evaluationSvc service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationSvc: evaluationSvc}
}

// SubmitEvaluation 提交评分（指导/评阅教师）
// POST /api/v1/projects/:id/evaluations
func (h *EvaluationHandler) SubmitEvaluation(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	var req dto.SubmitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.evaluationSvc.SubmitEvaluation(c.Request.Context(), callerID, projectID, &req)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.OK(c, result)
}

// SetCouncilScore 录入答辩评分（管理员）
// PUT /api/v1/projects/:id/council-score
func (h *EvaluationHandler) SetCouncilScore(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	var req dto.SetCouncilScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	project, err := h.evaluationSvc.SetCouncilScore(c.Request.Context(), callerID, projectID, &req)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.OK(c, project)
}

// ListEvaluations 查询项目评分明细
// GET /api/v1/projects/:id/evaluations
func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	evaluations, err := h.evaluationSvc.ListEvaluations(c.Request.Context(), projectID)
	if err != nil {
		h.handleEvaluationError(c, err)
		return
	}

	response.OK(c, evaluations)
}

func (h *EvaluationHandler) handleEvaluationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 13001, "项目不存在")
	case errors.Is(err, service.ErrNotProjectEvaluator):
		response.Forbidden(c, 14001, "不是该项目的评分教师")
	case errors.Is(err, service.ErrScoreOutOfRange):
		response.BadRequest(c, 14002, "评分必须在 0 到 10 之间")
	case errors.Is(err, service.ErrUnknownCriterion):
		response.BadRequest(c, 14003, "存在未知的评分项")
	case errors.Is(err, service.ErrProjectNotScorable):
		response.Conflict(c, 14004, "项目当前状态不允许评分")
	case errors.Is(err, pkgerrors.ErrStaleWrite):
		response.Conflict(c, 14005, "评分已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
