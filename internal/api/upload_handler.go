package api

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumex/internal/api/middleware"
	"resumex/internal/progress"
	"resumex/internal/tasks"
)

// 仅接受简历文档三种格式，校验在任何存储或入队动作之前完成。
var allowedMIMETypes = map[string]string{
	"application/pdf":    ".pdf",
	"application/msword": ".doc",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": ".docx",
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// UploadHandler 处理简历上传并发起抽取任务。
type UploadHandler struct {
	db            *gorm.DB
	asynqClient   *asynq.Client
	storage       ObjectStore
	progressStore *progress.Store
	logger        *slog.Logger
	clamdAddr     string
	maxBytes      int64
}

// NewUploadHandler 构造上传处理器。
func NewUploadHandler(
	db *gorm.DB,
	asynqClient *asynq.Client,
	storageClient ObjectStore,
	progressStore *progress.Store,
	logger *slog.Logger,
	clamdAddr string,
	maxBytes int64,
) *UploadHandler {
	return &UploadHandler{
		db:            db,
		asynqClient:   asynqClient,
		storage:       storageClient,
		progressStore: progressStore,
		logger:        logger,
		clamdAddr:     clamdAddr,
		maxBytes:      maxBytes,
	}
}

// validateResumeFile 做类型与大小前置校验，不合规的文件不会进入存储层。
func (h *UploadHandler) validateResumeFile(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file type %q, allowed: PDF, DOC, DOCX", ext)
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "" {
		if _, ok := allowedMIMETypes[contentType]; !ok {
			return fmt.Errorf("unsupported content type %q, allowed: PDF, DOC, DOCX", contentType)
		}
	}

	if h.maxBytes > 0 && file.Size > h.maxBytes {
		return fmt.Errorf("file %q exceeds the %d byte limit", file.Filename, h.maxBytes)
	}
	return nil
}

// scanFile 在入库前做病毒扫描。
func (h *UploadHandler) scanFile(file *multipart.FileHeader) error {
	if h.clamdAddr == "" {
		return nil
	}

	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		return fmt.Errorf("scan upload: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return fmt.Errorf("malicious file detected in %q", file.Filename)
		}
	}
	return nil
}

func (h *UploadHandler) storeFile(c *gin.Context, userID uint, file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer reader.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	objectKey := fmt.Sprintf("resumes/%d/%s%s", userID, uuid.NewString(), ext)
	if err := h.storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType); err != nil {
		return "", err
	}
	return objectKey, nil
}

// Upload 接受单文件上传，校验通过后入队抽取任务并返回任务号。
func (h *UploadHandler) Upload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	h.acceptFiles(c, userID, []*multipart.FileHeader{file})
}

// UploadMultiple 接受批量上传，任一文件不合规时整批拒绝。
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "invalid multipart form")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		BadRequest(c, "missing files")
		return
	}

	h.acceptFiles(c, userID, files)
}

func (h *UploadHandler) acceptFiles(c *gin.Context, userID uint, files []*multipart.FileHeader) {
	logger := middleware.LoggerFromContext(c)

	for _, file := range files {
		if err := h.validateResumeFile(file); err != nil {
			BadRequest(c, err.Error())
			return
		}
	}

	for _, file := range files {
		if err := h.scanFile(file); err != nil {
			logger.Warn("upload rejected by scanner",
				slog.String("filename", file.Filename),
				slog.Any("error", err),
			)
			BadRequest(c, "malicious file detected")
			return
		}
	}

	objectKeys := make([]string, 0, len(files))
	filenames := make([]string, 0, len(files))
	fileSizes := make([]int64, 0, len(files))
	for _, file := range files {
		objectKey, err := h.storeFile(c, userID, file)
		if err != nil {
			logger.Error("store upload failed",
				slog.String("filename", file.Filename),
				slog.Any("error", err),
			)
			Internal(c, "failed to store file")
			return
		}
		objectKeys = append(objectKeys, objectKey)
		filenames = append(filenames, file.Filename)
		fileSizes = append(fileSizes, file.Size)
	}

	taskID := uuid.NewString()
	ctx := c.Request.Context()
	if err := h.progressStore.Init(ctx, taskID, len(files)); err != nil {
		logger.Error("init task state failed", slog.Any("error", err))
		Internal(c, "failed to create task")
		return
	}

	task, err := tasks.NewResumeExtractTask(tasks.ResumeExtractPayload{
		TaskID:        taskID,
		UserID:        userID,
		ObjectKeys:    objectKeys,
		Filenames:     filenames,
		FileSizes:     fileSizes,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		Internal(c, "failed to create task")
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		logger.Error("enqueue extract task failed", slog.Any("error", err))
		Internal(c, "failed to enqueue task")
		return
	}

	logger.Info("resume upload accepted",
		slog.String("task_id", taskID),
		slog.Int("files", len(files)),
	)

	if len(files) == 1 {
		c.JSON(http.StatusOK, gin.H{"task_id": taskID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "total_files": len(files)})
}
