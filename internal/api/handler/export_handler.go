package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"capstone-hub/backend/internal/service"
	"capstone-hub/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 成绩导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportGrades 导出学期成绩单（管理员）
// GET /api/v1/export/grades
func (h *ExportHandler) ExportGrades(c *gin.Context) {
	semester := c.Query("semester")
	if semester == "" {
		response.BadRequest(c, 10001, "semester 参数不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportGrades(c.Request.Context(), semester)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoProjects):
		response.NotFound(c, 17001, "该学期没有可导出的项目")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.Error(c, http.StatusInternalServerError, 17002, "成绩单生成失败")
	default:
		response.InternalError(c)
	}
}
