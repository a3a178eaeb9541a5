package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumex/internal/api/middleware"
	"resumex/internal/database"
)

// HistoryHandler 管理已解析简历的历史记录。
type HistoryHandler struct {
	db      *gorm.DB
	storage ObjectStore
}

func NewHistoryHandler(db *gorm.DB, storageClient ObjectStore) *HistoryHandler {
	return &HistoryHandler{db: db, storage: storageClient}
}

type historyListItem struct {
	ID               uint      `json:"id"`
	Filename         string    `json:"filename"`
	OriginalFileType string    `json:"original_file_type"`
	FileSize         int64     `json:"file_size"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
}

type historyResponse struct {
	ID               uint           `json:"id"`
	Filename         string         `json:"filename"`
	OriginalFileType string         `json:"original_file_type"`
	FileSize         int64          `json:"file_size"`
	Status           string         `json:"status"`
	Record           datatypes.JSON `json:"record"`
	CreatedAt        time.Time      `json:"created_at"`
}

// List 分页返回用户全部历史记录。
func (h *HistoryHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	skip, err := strconv.Atoi(c.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	var records []database.ResumeFile
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(skip).
		Find(&records).Error; err != nil {
		Internal(c, "failed to list history")
		return
	}

	items := make([]historyListItem, 0, len(records))
	for _, record := range records {
		items = append(items, historyListItem{
			ID:               record.ID,
			Filename:         record.Filename,
			OriginalFileType: record.OriginalFileType,
			FileSize:         record.FileSize,
			Status:           record.Status,
			CreatedAt:        record.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Get 返回单条历史记录及其规范化数据。
func (h *HistoryHandler) Get(c *gin.Context) {
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

	c.JSON(http.StatusOK, historyResponse{
		ID:               record.ID,
		Filename:         record.Filename,
		OriginalFileType: record.OriginalFileType,
		FileSize:         record.FileSize,
		Status:           record.Status,
		Record:           record.RecordData,
		CreatedAt:        record.CreatedAt,
	})
}

// Delete 删除历史记录及其存储的文件。
func (h *HistoryHandler) Delete(c *gin.Context) {
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

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.ResumeFile{}, record.ID).Error; err != nil {
		Internal(c, "failed to delete resume")
		return
	}

	logger := middleware.LoggerFromContext(c)
	if h.storage != nil {
		for _, key := range []string{record.SourceObjectKey, record.PdfObjectKey} {
			if key == "" {
				continue
			}
			if err := h.storage.DeleteObject(ctx, key); err != nil {
				logger.Warn("delete stored object failed",
					slog.String("object_key", key),
					slog.Any("error", err),
				)
			}
		}
	}

	c.Status(http.StatusNoContent)
}
