package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/dto"
	"capstone-hub/backend/internal/service"
	"capstone-hub/backend/pkg/response"
)

// ReportHandler 周报与论文模块 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// SubmitReport 提交周报（学生）
// POST /api/v1/projects/:id/reports
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.SubmitReport(c.Request.Context(), callerID, projectID, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Created(c, report)
}

// ListReports 查询项目周报
// GET /api/v1/projects/:id/reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
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

	reports, err := h.reportSvc.ListReports(c.Request.Context(), callerID, role, projectID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, reports)
}

// ReviewReport 批阅周报（指导教师）
// PUT /api/v1/reports/:id/review
func (h *ReportHandler) ReviewReport(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周报ID不能为空")
		return
	}

	var req dto.ReviewReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.ReviewReport(c.Request.Context(), callerID, id, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// AttachFile 上传周报附件（学生）
// POST /api/v1/reports/:id/attachment
func (h *ReportHandler) AttachFile(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "周报ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "未找到上传文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, 10001, "读取上传文件失败")
		return
	}
	defer file.Close()

	report, err := h.reportSvc.AttachFile(c.Request.Context(), callerID, id,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// UploadFinalReport 提交论文终稿（学生）
// POST /api/v1/projects/:id/thesis
func (h *ReportHandler) UploadFinalReport(c *gin.Context) {
	projectID := c.Param("id")
	if projectID == "" {
		response.BadRequest(c, 10001, "项目ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "未找到上传文件")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, 10001, "读取上传文件失败")
		return
	}
	defer file.Close()

	project, err := h.reportSvc.UploadFinalReport(c.Request.Context(), callerID, projectID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, project)
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 13101, "周报不存在")
	case errors.Is(err, service.ErrReportForbidden):
		response.Forbidden(c, 13102, "无权操作该周报")
	case errors.Is(err, service.ErrReportWeekExists):
		response.Conflict(c, 13103, "该周已提交过周报")
	case errors.Is(err, service.ErrProjectNotActive):
		response.Conflict(c, 13104, "项目当前状态不允许提交")
	case errors.Is(err, service.ErrReportAlreadyDone):
		response.Conflict(c, 13105, "周报已批阅，不能重复批阅")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 13001, "项目不存在")
	case errors.Is(err, service.ErrProjectForbidden):
		response.Forbidden(c, 13002, "无权操作该项目")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 11008, "学生不存在")
	default:
		response.InternalError(c)
	}
}
