package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeExtract = "resume:extract"
	TypePDFRender     = "pdf:render"
)

// ResumeExtractPayload 描述一次抽取任务：任务号与待处理的源文件。
type ResumeExtractPayload struct {
	TaskID        string   `json:"task_id"`
	UserID        uint     `json:"user_id"`
	ObjectKeys    []string `json:"object_keys"`
	Filenames     []string `json:"filenames"`
	FileSizes     []int64  `json:"file_sizes"`
	CorrelationID string   `json:"correlation_id"`
}

// NewResumeExtractTask 构造一个新的简历抽取任务。
func NewResumeExtractTask(payload ResumeExtractPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeExtract, data), nil
}

// PDFRenderPayload 描述按历史记录生成 PDF 所需的最小信息。
type PDFRenderPayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewPDFRenderTask 构造一个新的简历 PDF 生成任务。
func NewPDFRenderTask(id uint, correlationID string) (*asynq.Task, error) {
	data, err := json.Marshal(PDFRenderPayload{
		ResumeID:      id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePDFRender, data), nil
}
