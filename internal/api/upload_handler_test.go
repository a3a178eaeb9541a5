package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
)

func newMultipartUpload(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create form part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newUploadContext(t *testing.T, body *bytes.Buffer, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/v1/resume/upload", body)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Set("userID", uint(1))
	return c, w
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeObjectStore()
	h := NewUploadHandler(newTestDB(t), nil, store, nil, nil, "", 10*1024*1024)

	body, contentType := newMultipartUpload(t, "file", "payload.exe", "application/pdf", []byte("MZ"))
	c, w := newUploadContext(t, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.uploaded) != 0 {
		t.Fatalf("rejected file reached storage: %v", store.uploaded)
	}
}

func TestUpload_RejectsBadContentType(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeObjectStore()
	h := NewUploadHandler(newTestDB(t), nil, store, nil, nil, "", 10*1024*1024)

	body, contentType := newMultipartUpload(t, "file", "cv.pdf", "application/zip", []byte("%PDF-"))
	c, w := newUploadContext(t, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.uploaded) != 0 {
		t.Fatal("rejected file reached storage")
	}
}

func TestUpload_RejectsOversizeFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeObjectStore()
	h := NewUploadHandler(newTestDB(t), nil, store, nil, nil, "", 8)

	body, contentType := newMultipartUpload(t, "file", "cv.pdf", "application/pdf", []byte("%PDF- far too large"))
	c, w := newUploadContext(t, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.uploaded) != 0 {
		t.Fatal("rejected file reached storage")
	}
}

func TestUpload_MissingFileField(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewUploadHandler(newTestDB(t), nil, newFakeObjectStore(), nil, nil, "", 10*1024*1024)

	body, contentType := newMultipartUpload(t, "attachment", "cv.pdf", "application/pdf", []byte("%PDF-"))
	c, w := newUploadContext(t, body, contentType)

	h.Upload(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUploadMultiple_RejectsWholeBatchOnOneBadFile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := newFakeObjectStore()
	h := NewUploadHandler(newTestDB(t), nil, store, nil, nil, "", 10*1024*1024)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range []string{"good.pdf", "bad.txt"} {
		part, err := writer.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte("content")); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	c, w := newUploadContext(t, body, writer.FormDataContentType())

	h.UploadMultiple(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
	if len(store.uploaded) != 0 {
		t.Fatalf("batch partially stored: %v", store.uploaded)
	}
}
