package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// Status 是抽取引擎进度接口的响应。Progress 缺省时由调用方查兜底表。
type Status struct {
	Status         string          `json:"status"`
	Stage          string          `json:"stage"`
	Progress       *int            `json:"progress,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	Error          string          `json:"error,omitempty"`
	TotalFiles     int             `json:"total_files,omitempty"`
	ProcessedFiles int             `json:"processed_files,omitempty"`
}

type uploadResponse struct {
	TaskID string `json:"task_id"`
}

// ErrRetriesExhausted 表示连续网络失败达到上限后放弃轮询。
var ErrRetriesExhausted = errors.New("poll retries exhausted")

// Client 驱动外部抽取引擎：提交文件后按固定间隔串行轮询，
// 上一次请求未返回前绝不发起下一次。
type Client struct {
	http         *resty.Client
	pollInterval time.Duration
	retryDelay   time.Duration
	maxRetries   int
}

func NewClient(baseURL string, pollInterval, retryDelay time.Duration, maxRetries int) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json")
	return &Client{
		http:         httpClient,
		pollInterval: pollInterval,
		retryDelay:   retryDelay,
		maxRetries:   maxRetries,
	}
}

// Submit 把一个文件交给引擎处理，返回引擎侧任务号。
func (c *Client) Submit(ctx context.Context, filename string, file io.Reader) (string, error) {
	var result uploadResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", filename, file).
		SetResult(&result).
		Post("/resume/upload")
	if err != nil {
		return "", fmt.Errorf("submit %s: %w", filename, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("submit %s: engine returned %s", filename, resp.Status())
	}
	if result.TaskID == "" {
		return "", fmt.Errorf("submit %s: engine response missing task_id", filename)
	}
	return result.TaskID, nil
}

// Poll 查询一次引擎侧任务状态。
func (c *Client) Poll(ctx context.Context, taskID string) (Status, error) {
	var status Status
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		Get("/resume/progress/" + taskID)
	if err != nil {
		return Status{}, fmt.Errorf("poll %s: %w", taskID, err)
	}
	if resp.IsError() {
		return Status{}, fmt.Errorf("poll %s: engine returned %s", taskID, resp.Status())
	}
	return status, nil
}

// Await 轮询至终态。每次轮询间隔 pollInterval；网络错误按 retryDelay
// 重试，连续失败 maxRetries 次后放弃。onStage 在每次成功轮询后回调。
func (c *Client) Await(ctx context.Context, taskID string, onStage func(Status)) (Status, error) {
	failures := 0
	for {
		status, err := c.Poll(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return Status{}, ctx.Err()
			}
			failures++
			if failures >= c.maxRetries {
				return Status{}, fmt.Errorf("%w after %d attempts: %v", ErrRetriesExhausted, failures, err)
			}
			if waitErr := sleepCtx(ctx, c.retryDelay); waitErr != nil {
				return Status{}, waitErr
			}
			continue
		}
		failures = 0

		if onStage != nil {
			onStage(status)
		}
		if status.Status == "completed" || status.Status == "failed" {
			return status, nil
		}
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return Status{}, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
