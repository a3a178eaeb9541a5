package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumex/internal/database"
	"resumex/internal/errcode"
	"resumex/internal/extract"
	"resumex/internal/progress"
	"resumex/internal/resume"
	"resumex/internal/tasks"
)

// 抽取流程依赖的外部服务子集，测试里用内存实现替换。
type objectFetcher interface {
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

type extractEngine interface {
	Submit(ctx context.Context, filename string, file io.Reader) (string, error)
	Await(ctx context.Context, taskID string, onStage func(extract.Status)) (extract.Status, error)
}

type taskStateStore interface {
	SetStage(ctx context.Context, taskID, stage string, reported *int) error
	SetProcessedFiles(ctx context.Context, taskID string, processed int) error
	Complete(ctx context.Context, taskID string, data []byte) error
	Fail(ctx context.Context, taskID, message string) error
}

// ExtractTaskHandler 消费简历抽取任务：把源文件交给外部引擎，
// 转发阶段进度，规范化结果并落库。
type ExtractTaskHandler struct {
	db            *gorm.DB
	storage       objectFetcher
	publisher     notifyPublisher
	progressStore taskStateStore
	extractClient extractEngine
	logger        *slog.Logger
}

// NewExtractTaskHandler 创建任务处理器。
func NewExtractTaskHandler(
	db *gorm.DB,
	storageClient objectFetcher,
	publisher notifyPublisher,
	progressStore taskStateStore,
	extractClient extractEngine,
	logger *slog.Logger,
) *ExtractTaskHandler {
	return &ExtractTaskHandler{
		db:            db,
		storage:       storageClient,
		publisher:     publisher,
		progressStore: progressStore,
		extractClient: extractClient,
		logger:        logger,
	}
}

// extractFailure 是批量结果里失败文件的占位条目，
// 让客户端按文件名对应到失败原因。
type extractFailure struct {
	Filename         string `json:"filename"`
	Error            string `json:"error"`
	ProcessingMethod string `json:"processing_method"`
}

// ProcessTask 实现 asynq.Handler。
// 单文件任务里引擎侧的明确失败（含轮询重试耗尽）写入失败终态后
// 返回 nil，不经 asynq 再重试；批量任务里单个文件的引擎失败只产生
// 一个占位条目，批次继续处理，全部失败才落任务级失败终态。
// 基础设施错误返回 err 交给队列重试，最后一次尝试失败时同样落失败终态。
func (h *ExtractTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	var payload tasks.ResumeExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.String("task_id", payload.TaskID),
		slog.Uint64("user_id", uint64(payload.UserID)),
	)
	log.Info("starting resume extraction task", slog.Int("files", len(payload.ObjectKeys)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}
		message := strings.TrimSpace(retErr.Error())
		if err := h.progressStore.Fail(ctx, payload.TaskID, message); err != nil {
			log.Error("write failed state failed", slog.Any("error", err))
		}
		h.notifyTerminal(ctx, payload, progress.StatusFailed, errcode.SystemError, message)
	}()

	if err := h.progressStore.SetStage(ctx, payload.TaskID, progress.StageProcessing, nil); err != nil {
		return fmt.Errorf("set processing stage: %w", err)
	}

	results := make([]any, 0, len(payload.ObjectKeys))
	failed := 0
	lastFailure := ""
	for i, objectKey := range payload.ObjectKeys {
		filename := payload.Filenames[i]
		fileLog := log.With(slog.String("filename", filename))

		record, err := h.processFile(ctx, payload.TaskID, objectKey, filename)
		if err != nil {
			var engineErr *engineFailure
			if !errors.As(err, &engineErr) {
				fileLog.Error("process file failed", slog.Any("error", err))
				return err
			}

			fileLog.Warn("extraction engine reported failure", slog.String("message", engineErr.message))
			h.recordHistory(ctx, payload, filename, objectKey, fileSize(payload, i), nil, progress.StatusFailed)
			failed++
			lastFailure = engineErr.message

			if len(payload.ObjectKeys) == 1 {
				if failErr := h.progressStore.Fail(ctx, payload.TaskID, engineErr.message); failErr != nil {
					fileLog.Error("write failed state failed", slog.Any("error", failErr))
				}
				h.notifyTerminal(ctx, payload, progress.StatusFailed, errcode.ExtractFailed, engineErr.message)
				return nil
			}

			// 批量任务：失败文件不拖垮整批，占位后继续处理后续文件。
			results = append(results, extractFailure{
				Filename:         filename,
				Error:            engineErr.message,
				ProcessingMethod: "failed",
			})
			if err := h.progressStore.SetProcessedFiles(ctx, payload.TaskID, i+1); err != nil {
				fileLog.Warn("update processed count failed", slog.Any("error", err))
			}
			continue
		}

		record.Filename = filename
		results = append(results, record)
		h.recordHistory(ctx, payload, filename, objectKey, fileSize(payload, i), &record, progress.StatusCompleted)

		if err := h.progressStore.SetProcessedFiles(ctx, payload.TaskID, i+1); err != nil {
			fileLog.Warn("update processed count failed", slog.Any("error", err))
		}
	}

	if failed > 0 && failed == len(payload.ObjectKeys) {
		log.Warn("all files in batch failed extraction")
		if err := h.progressStore.Fail(ctx, payload.TaskID, lastFailure); err != nil {
			log.Error("write failed state failed", slog.Any("error", err))
		}
		h.notifyTerminal(ctx, payload, progress.StatusFailed, errcode.ExtractFailed, lastFailure)
		return nil
	}

	data, err := marshalResults(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := h.progressStore.Complete(ctx, payload.TaskID, data); err != nil {
		return fmt.Errorf("write completed state: %w", err)
	}

	h.notifyTerminal(ctx, payload, progress.StatusCompleted, errcode.OK, "")
	log.Info("resume extraction task completed", slog.Int("failed_files", failed))
	return nil
}

// engineFailure 表示引擎侧的明确失败，不值得按基础设施错误重试。
type engineFailure struct {
	message string
}

func (e *engineFailure) Error() string { return e.message }

func (h *ExtractTaskHandler) processFile(ctx context.Context, taskID, objectKey, filename string) (resume.Record, error) {
	reader, err := h.storage.GetObject(ctx, objectKey)
	if err != nil {
		return resume.Record{}, fmt.Errorf("fetch source file: %w", err)
	}
	defer reader.Close()

	engineTaskID, err := h.extractClient.Submit(ctx, filename, reader)
	if err != nil {
		return resume.Record{}, fmt.Errorf("submit to engine: %w", err)
	}

	status, err := h.extractClient.Await(ctx, engineTaskID, func(s extract.Status) {
		if s.Status != progress.StatusProcessing {
			return
		}
		if stageErr := h.progressStore.SetStage(ctx, taskID, s.Stage, s.Progress); stageErr != nil {
			h.logger.Warn("forward stage failed", slog.Any("error", stageErr))
		}
	})
	if err != nil {
		if errors.Is(err, extract.ErrRetriesExhausted) {
			return resume.Record{}, &engineFailure{message: "extraction service unreachable"}
		}
		return resume.Record{}, err
	}

	if status.Status == progress.StatusFailed {
		message := strings.TrimSpace(status.Error)
		if message == "" {
			message = "extraction failed"
		}
		return resume.Record{}, &engineFailure{message: message}
	}

	return resume.ValidateJSON(status.Data), nil
}

func (h *ExtractTaskHandler) recordHistory(ctx context.Context, payload tasks.ResumeExtractPayload, filename, objectKey string, fileSize int64, record *resume.Record, status string) {
	row := database.ResumeFile{
		Filename:         filename,
		OriginalFileType: strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."),
		FileSize:         fileSize,
		Status:           status,
		SourceObjectKey:  objectKey,
		UserID:           payload.UserID,
	}
	if record != nil {
		if data, err := json.Marshal(record); err == nil {
			row.RecordData = datatypes.JSON(data)
		}
	}
	if err := h.db.WithContext(ctx).Create(&row).Error; err != nil {
		h.logger.Error("create history row failed",
			slog.String("filename", filename),
			slog.Any("error", err),
		)
	}
}

func (h *ExtractTaskHandler) notifyTerminal(ctx context.Context, payload tasks.ResumeExtractPayload, status string, code int, message string) {
	notify := NotifyMessage{
		Type:          "extraction",
		Status:        status,
		TaskID:        payload.TaskID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     code,
		ErrorMessage:  message,
	}
	if err := publishNotify(ctx, h.publisher, payload.UserID, notify); err != nil {
		h.logger.Warn("publish extraction notification failed", slog.Any("error", err))
	}
}

func fileSize(payload tasks.ResumeExtractPayload, i int) int64 {
	if i < len(payload.FileSizes) {
		return payload.FileSizes[i]
	}
	return 0
}

// marshalResults 单文件返回对象，批量返回数组，和进度接口的 data 形态一致。
func marshalResults(results []any) ([]byte, error) {
	if len(results) == 1 {
		return json.Marshal(results[0])
	}
	return json.Marshal(results)
}
