package api

import (
	"context"
	"io"
	"time"
)

// ObjectStore 是 handler 依赖的对象存储子集，测试里用内存实现替换。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}
