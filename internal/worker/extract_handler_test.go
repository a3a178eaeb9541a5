package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumex/internal/database"
	"resumex/internal/errcode"
	"resumex/internal/extract"
	"resumex/internal/progress"
	"resumex/internal/tasks"
)

type stubFetcher struct{}

func (stubFetcher) GetObject(_ context.Context, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("%PDF-1.4")), nil
}

// stubEngine 以文件名作为引擎任务 ID，按文件名返回预置结果。
type stubEngine struct {
	statuses map[string]extract.Status
}

func (e *stubEngine) Submit(_ context.Context, filename string, _ io.Reader) (string, error) {
	return filename, nil
}

func (e *stubEngine) Await(_ context.Context, taskID string, _ func(extract.Status)) (extract.Status, error) {
	return e.statuses[taskID], nil
}

type memStateStore struct {
	stages       []string
	processed    []int
	completeData []byte
	completed    bool
	failMessage  string
	failed       bool
}

func (s *memStateStore) SetStage(_ context.Context, _ string, stage string, _ *int) error {
	s.stages = append(s.stages, stage)
	return nil
}

func (s *memStateStore) SetProcessedFiles(_ context.Context, _ string, processed int) error {
	s.processed = append(s.processed, processed)
	return nil
}

func (s *memStateStore) Complete(_ context.Context, _ string, data []byte) error {
	s.completed = true
	s.completeData = data
	return nil
}

func (s *memStateStore) Fail(_ context.Context, _, message string) error {
	s.failed = true
	s.failMessage = message
	return nil
}

type memPublisher struct {
	messages []NotifyMessage
}

func (p *memPublisher) Publish(_ context.Context, _ string, message interface{}) *redis.IntCmd {
	var notify NotifyMessage
	if data, ok := message.([]byte); ok {
		_ = json.Unmarshal(data, &notify)
	}
	p.messages = append(p.messages, notify)
	return redis.NewIntResult(1, nil)
}

func newExtractTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.ResumeFile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newExtractHandler(t *testing.T, engine *stubEngine) (*ExtractTaskHandler, *memStateStore, *memPublisher, *gorm.DB) {
	t.Helper()
	db := newExtractTestDB(t)
	store := &memStateStore{}
	publisher := &memPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewExtractTaskHandler(db, stubFetcher{}, publisher, store, engine, logger)
	return h, store, publisher, db
}

func runExtractTask(t *testing.T, h *ExtractTaskHandler, payload tasks.ResumeExtractPayload) error {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypeResumeExtract, data))
}

func TestProcessTask_BatchContinuesAfterFileFailure(t *testing.T) {
	engine := &stubEngine{statuses: map[string]extract.Status{
		"one.pdf": {Status: progress.StatusCompleted, Data: json.RawMessage(`{"name":"Jane Doe"}`)},
		"two.pdf": {Status: progress.StatusFailed, Error: "unsupported layout"},
	}}
	h, store, publisher, db := newExtractHandler(t, engine)

	payload := tasks.ResumeExtractPayload{
		TaskID:        "task-batch",
		UserID:        41,
		ObjectKeys:    []string{"uploads/41/one.pdf", "uploads/41/two.pdf"},
		Filenames:     []string{"one.pdf", "two.pdf"},
		FileSizes:     []int64{120, 340},
		CorrelationID: "corr-batch",
	}
	if err := runExtractTask(t, h, payload); err != nil {
		t.Fatalf("ProcessTask returned %v", err)
	}

	if store.failed {
		t.Fatalf("batch with one failed file must not fail the task, got failure %q", store.failMessage)
	}
	if !store.completed {
		t.Fatal("expected task to reach completed state")
	}

	var results []map[string]any
	if err := json.Unmarshal(store.completeData, &results); err != nil {
		t.Fatalf("unmarshal results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 result entries, got %d", len(results))
	}
	if got := results[0]["filename"]; got != "one.pdf" {
		t.Fatalf("first entry filename = %v", got)
	}
	if got := results[1]["processing_method"]; got != "failed" {
		t.Fatalf("failed entry processing_method = %v", got)
	}
	if got := results[1]["error"]; got != "unsupported layout" {
		t.Fatalf("failed entry error = %v", got)
	}

	if len(store.processed) == 0 || store.processed[len(store.processed)-1] != 2 {
		t.Fatalf("processed counter should end at 2, got %v", store.processed)
	}

	var rows []database.ResumeFile
	if err := db.Where("user_id = ?", payload.UserID).Order("id").Find(&rows).Error; err != nil {
		t.Fatalf("query history: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(rows))
	}
	if rows[0].Status != progress.StatusCompleted || rows[1].Status != progress.StatusFailed {
		t.Fatalf("history statuses = %q, %q", rows[0].Status, rows[1].Status)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(publisher.messages))
	}
	notify := publisher.messages[0]
	if notify.Status != progress.StatusCompleted || notify.ErrorCode != errcode.OK {
		t.Fatalf("notification = %+v", notify)
	}
}

func TestProcessTask_SingleFileEngineFailureFailsTask(t *testing.T) {
	engine := &stubEngine{statuses: map[string]extract.Status{
		"only.pdf": {Status: progress.StatusFailed, Error: "corrupt file"},
	}}
	h, store, publisher, db := newExtractHandler(t, engine)

	payload := tasks.ResumeExtractPayload{
		TaskID:        "task-single",
		UserID:        42,
		ObjectKeys:    []string{"uploads/42/only.pdf"},
		Filenames:     []string{"only.pdf"},
		FileSizes:     []int64{88},
		CorrelationID: "corr-single",
	}
	if err := runExtractTask(t, h, payload); err != nil {
		t.Fatalf("engine failure must not trigger queue retry, got %v", err)
	}

	if !store.failed || store.failMessage != "corrupt file" {
		t.Fatalf("expected failed state with engine message, got failed=%v message=%q", store.failed, store.failMessage)
	}
	if store.completed {
		t.Fatal("task must not reach completed state")
	}

	var row database.ResumeFile
	if err := db.Where("user_id = ?", payload.UserID).First(&row).Error; err != nil {
		t.Fatalf("query history: %v", err)
	}
	if row.Status != progress.StatusFailed {
		t.Fatalf("history status = %q", row.Status)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("expected one notification, got %d", len(publisher.messages))
	}
	notify := publisher.messages[0]
	if notify.Status != progress.StatusFailed || notify.ErrorCode != errcode.ExtractFailed {
		t.Fatalf("notification = %+v", notify)
	}
}

func TestProcessTask_AllBatchFilesFailedFailsTask(t *testing.T) {
	engine := &stubEngine{statuses: map[string]extract.Status{
		"a.pdf": {Status: progress.StatusFailed, Error: "first bad"},
		"b.pdf": {Status: progress.StatusFailed, Error: "second bad"},
	}}
	h, store, publisher, _ := newExtractHandler(t, engine)

	payload := tasks.ResumeExtractPayload{
		TaskID:        "task-all-failed",
		UserID:        43,
		ObjectKeys:    []string{"uploads/43/a.pdf", "uploads/43/b.pdf"},
		Filenames:     []string{"a.pdf", "b.pdf"},
		FileSizes:     []int64{10, 20},
		CorrelationID: "corr-all-failed",
	}
	if err := runExtractTask(t, h, payload); err != nil {
		t.Fatalf("ProcessTask returned %v", err)
	}

	if !store.failed || store.failMessage != "second bad" {
		t.Fatalf("expected failure with last engine message, got failed=%v message=%q", store.failed, store.failMessage)
	}
	if store.completed {
		t.Fatal("task must not reach completed state")
	}
	if len(publisher.messages) != 1 || publisher.messages[0].ErrorCode != errcode.ExtractFailed {
		t.Fatalf("notifications = %+v", publisher.messages)
	}
}
