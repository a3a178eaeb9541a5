package progress

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// taskTTL 之后未被查询的任务状态会自动过期。
const taskTTL = time.Hour

// ErrTaskNotFound 表示任务不存在或已过期。
var ErrTaskNotFound = errors.New("task not found")

// Task 是进度查询接口返回的完整视图。
type Task struct {
	Status         string `json:"status"`
	Stage          string `json:"stage"`
	Progress       int    `json:"progress"`
	Message        string `json:"message"`
	Data           string `json:"data,omitempty"`
	Error          string `json:"error,omitempty"`
	TotalFiles     int    `json:"total_files,omitempty"`
	ProcessedFiles int    `json:"processed_files,omitempty"`
}

// Store 用 Redis Hash 保存任务进度，API 与 Worker 双端共享。
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func taskKey(taskID string) string {
	return "resume_task:" + taskID
}

// Init 建立 pending 态的任务记录。
func (s *Store) Init(ctx context.Context, taskID string, totalFiles int) error {
	fields := map[string]interface{}{
		"status":          StatusPending,
		"stage":           StageUpload,
		"progress":        PercentFor(StageUpload, nil),
		"total_files":     totalFiles,
		"processed_files": 0,
	}
	return s.write(ctx, taskID, fields)
}

// SetStage 记录引擎上报的处理阶段。
func (s *Store) SetStage(ctx context.Context, taskID, stage string, reported *int) error {
	fields := map[string]interface{}{
		"status":   StatusProcessing,
		"stage":    stage,
		"progress": PercentFor(stage, reported),
	}
	return s.write(ctx, taskID, fields)
}

// SetProcessedFiles 更新批量任务的已完成计数。
func (s *Store) SetProcessedFiles(ctx context.Context, taskID string, processed int) error {
	return s.write(ctx, taskID, map[string]interface{}{"processed_files": processed})
}

// Complete 写入终态与结果数据（序列化后的记录列表）。
func (s *Store) Complete(ctx context.Context, taskID string, data []byte) error {
	fields := map[string]interface{}{
		"status":   StatusCompleted,
		"stage":    StageCompleted,
		"progress": 100,
		"data":     string(data),
	}
	return s.write(ctx, taskID, fields)
}

// Fail 写入失败终态，错误信息原样透传给客户端。
func (s *Store) Fail(ctx context.Context, taskID, message string) error {
	fields := map[string]interface{}{
		"status":   StatusFailed,
		"stage":    StageFailed,
		"progress": 0,
		"error":    message,
	}
	return s.write(ctx, taskID, fields)
}

// Get 读取任务全量状态。
func (s *Store) Get(ctx context.Context, taskID string) (Task, error) {
	values, err := s.client.HGetAll(ctx, taskKey(taskID)).Result()
	if err != nil {
		return Task{}, fmt.Errorf("read task %s: %w", taskID, err)
	}
	if len(values) == 0 {
		return Task{}, ErrTaskNotFound
	}

	task := Task{
		Status:         values["status"],
		Stage:          values["stage"],
		Progress:       atoiOr(values["progress"], 0),
		Data:           values["data"],
		Error:          values["error"],
		TotalFiles:     atoiOr(values["total_files"], 0),
		ProcessedFiles: atoiOr(values["processed_files"], 0),
	}
	task.Message = MessageFor(task.Stage)
	return task, nil
}

func (s *Store) write(ctx context.Context, taskID string, fields map[string]interface{}) error {
	key := taskKey(taskID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, taskTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write task %s: %w", taskID, err)
	}
	return nil
}

func atoiOr(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
