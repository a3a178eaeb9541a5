package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumex/internal/api/middleware"
	"resumex/internal/render/docx"
	"resumex/internal/resume"
	"resumex/internal/tasks"
)

// PDFRenderer 抽象同步 PDF 渲染，便于在测试中替换无头浏览器。
type PDFRenderer interface {
	Render(record resume.Record) ([]byte, error)
}

// ExportHandler 负责简历的同步导出与异步 PDF 生成。
type ExportHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     ObjectStore
	pdfRenderer PDFRenderer
}

// NewExportHandler 构造导出处理器。
func NewExportHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient ObjectStore, pdfRenderer PDFRenderer) *ExportHandler {
	return &ExportHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
		pdfRenderer: pdfRenderer,
	}
}

// exportName 把显示名变成安全的下载文件名。
func exportName(record resume.Record, ext string) string {
	name := record.DisplayName()
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	return name + ext
}

func (h *ExportHandler) readRecord(c *gin.Context) (resume.Record, bool) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		BadRequest(c, "failed to read request body")
		return resume.Record{}, false
	}
	return resume.ValidateJSON(raw), true
}

// ExportDOCX 把请求体中的记录同步渲染为 DOCX 附件。
// 序列化失败作为用户可见错误返回，不做静默重试。
func (h *ExportHandler) ExportDOCX(c *gin.Context) {
	record, ok := h.readRecord(c)
	if !ok {
		return
	}

	data, err := docx.Render(record)
	if err != nil {
		middleware.LoggerFromContext(c).Error("docx render failed", slog.Any("error", err))
		Internal(c, fmt.Sprintf("failed to generate document: %v", err))
		return
	}

	filename := exportName(record, ".docx")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document", data)
}

// ExportPDF 把请求体中的记录同步渲染为 PDF 附件。
func (h *ExportHandler) ExportPDF(c *gin.Context) {
	record, ok := h.readRecord(c)
	if !ok {
		return
	}

	data, err := h.pdfRenderer.Render(record)
	if err != nil {
		middleware.LoggerFromContext(c).Error("pdf render failed", slog.Any("error", err))
		Internal(c, "failed to generate pdf")
		return
	}

	filename := exportName(record, ".pdf")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}

// EnqueuePDF 将历史记录的 PDF 生成任务入队并立即返回 202。
func (h *ExportHandler) EnqueuePDF(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	record, err := findResumeForUser(c.Request.Context(), h.db, c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidResumeID):
			BadRequest(c, "invalid resume id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "resume not found")
		default:
			Internal(c, "failed to query resume")
		}
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewPDFRenderTask(record.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue pdf generation")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "PDF generation request accepted",
		"task_id": info.ID,
	})
}

// GetDownloadLink 生成历史记录 PDF 的预签名下载链接。
func (h *ExportHandler) GetDownloadLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	record, err := findResumeForUser(c.Request.Context(), h.db, c.Param("id"), userID)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidResumeID):
			BadRequest(c, "invalid resume id")
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "resume not found")
		default:
			Internal(c, "failed to query resume")
		}
		return
	}

	if record.PdfObjectKey == "" {
		Conflict(c, "pdf not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), record.PdfObjectKey, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}
