package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"resumex/internal/api/middleware"
	"resumex/internal/progress"
)

// ProgressHandler 暴露任务进度查询。
type ProgressHandler struct {
	store *progress.Store
}

func NewProgressHandler(store *progress.Store) *ProgressHandler {
	return &ProgressHandler{store: store}
}

type progressResponse struct {
	Status         string          `json:"status"`
	Stage          string          `json:"stage"`
	Progress       int             `json:"progress"`
	Message        string          `json:"message"`
	Data           json.RawMessage `json:"data,omitempty"`
	Error          string          `json:"error,omitempty"`
	TotalFiles     int             `json:"total_files,omitempty"`
	ProcessedFiles int             `json:"processed_files,omitempty"`
}

// GetProgress 返回任务当前状态；data 仅在完成后携带。
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	taskID := c.Param("task_id")
	if taskID == "" {
		BadRequest(c, "missing task id")
		return
	}

	task, err := h.store.Get(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, progress.ErrTaskNotFound) {
			NotFound(c, "task not found")
			return
		}
		middleware.LoggerFromContext(c).Error("read task state failed",
			slog.String("task_id", taskID),
			slog.Any("error", err),
		)
		Internal(c, "failed to read task state")
		return
	}

	resp := progressResponse{
		Status:         task.Status,
		Stage:          task.Stage,
		Progress:       task.Progress,
		Message:        task.Message,
		Error:          task.Error,
		TotalFiles:     task.TotalFiles,
		ProcessedFiles: task.ProcessedFiles,
	}
	if task.Status == progress.StatusCompleted && task.Data != "" {
		resp.Data = json.RawMessage(task.Data)
	}

	c.JSON(http.StatusOK, resp)
}
