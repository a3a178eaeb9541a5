package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumex/internal/database"
	"resumex/internal/errcode"
	"resumex/internal/progress"
	"resumex/internal/resume"
	"resumex/internal/storage"
	"resumex/internal/tasks"
)

// PDFRenderer 渲染一份结构化简历为 PDF 字节流。
type PDFRenderer interface {
	Render(record resume.Record) ([]byte, error)
}

// RenderTaskHandler 消费异步 PDF 渲染任务：读历史记录、渲染、
// 上传对象存储并回写下载键。
type RenderTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	renderer    PDFRenderer
	logger      *slog.Logger
}

// NewRenderTaskHandler 创建任务处理器。
func NewRenderTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	renderer PDFRenderer,
	logger *slog.Logger,
) *RenderTaskHandler {
	return &RenderTaskHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		renderer:    renderer,
		logger:      logger,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *RenderTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.PDFRenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("resume_id", int(payload.ResumeID)),
	)
	log.Info("starting pdf render task")

	var row database.ResumeFile
	if err := h.db.WithContext(ctx).First(&row, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume record not found, skipping task")
			return nil
		}
		log.Error("query resume record failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(row.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		h.notifyRender(ctx, row, payload.CorrelationID, progress.StatusFailed, errcode.SystemError, strings.TrimSpace(retErr.Error()))
	}()

	if len(row.RecordData) == 0 {
		log.Warn("resume record has no structured data")
		h.notifyRender(ctx, row, payload.CorrelationID, progress.StatusFailed, errcode.RecordIncomplete, "resume has no structured data to render")
		return nil
	}

	record := resume.ValidateJSON(row.RecordData)
	pdfBytes, err := h.renderer.Render(record)
	if err != nil {
		log.Error("render pdf failed", slog.Any("error", err))
		return err
	}

	objectKey := fmt.Sprintf("generated-resumes/%d/%s.pdf", row.UserID, uuid.NewString())
	if err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(pdfBytes), int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	update := map[string]any{
		"pdf_object_key": objectKey,
		"status":         progress.StatusCompleted,
	}
	if err := h.db.WithContext(ctx).Model(&row).Updates(update).Error; err != nil {
		log.Error("update resume record failed", slog.Any("error", err))
		return err
	}

	h.notifyRender(ctx, row, payload.CorrelationID, progress.StatusCompleted, errcode.OK, "")
	log.Info("pdf render task completed", slog.String("object_key", objectKey))
	return nil
}

func (h *RenderTaskHandler) notifyRender(ctx context.Context, row database.ResumeFile, correlationID, status string, code int, message string) {
	notify := NotifyMessage{
		Type:          "pdf_render",
		Status:        status,
		ResumeID:      row.ID,
		CorrelationID: correlationID,
		ErrorCode:     code,
		ErrorMessage:  message,
	}
	if err := publishNotify(ctx, h.redisClient, row.UserID, notify); err != nil {
		h.logger.Warn("publish render notification failed", slog.Any("error", err))
	}
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
