package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"resumex/internal/database"
	"resumex/internal/resume"
)

type fakeObjectStore struct {
	uploaded map[string][]byte
	deleted  []string
	presign  map[string]string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		uploaded: map[string][]byte{},
		presign:  map[string]string{},
	}
}

func (s *fakeObjectStore) UploadFile(_ context.Context, objectKey string, reader io.Reader, _ int64, _ string) error {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectKey] = b
	return nil
}

func (s *fakeObjectStore) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	if v, ok := s.presign[objectKey]; ok {
		return v, nil
	}
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeObjectStore) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type fakePDFRenderer struct {
	output []byte
	calls  int
}

func (r *fakePDFRenderer) Render(_ resume.Record) ([]byte, error) {
	r.calls++
	return r.output, nil
}

func newTestDB(t *testing.T) *gorm.DB {
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

func newJSONPost(t *testing.T, target string, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestExportDOCX_ReturnsAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewExportHandler(newTestDB(t), nil, newFakeObjectStore(), &fakePDFRenderer{})

	body := `{"name":"Jane Doe","summary":"Engineer","experienceData":[{"company":"Acme","role":"Dev","responsibilities":["Built things"]}]}`
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newJSONPost(t, "/v1/resume/export/docx", body)

	h.ExportDOCX(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); !strings.Contains(got, "wordprocessingml") {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "Jane Doe.docx") {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Fatal("response is not a zip package")
	}
}

func TestExportDOCX_SanitizesFilename(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewExportHandler(newTestDB(t), nil, newFakeObjectStore(), &fakePDFRenderer{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newJSONPost(t, "/v1/resume/export/docx", `{"name":"a/b\\c:d"}`)

	h.ExportDOCX(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "a_b_c_d.docx") {
		t.Fatalf("filename not sanitized: %q", disposition)
	}
}

func TestExportPDF_UsesRenderer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	renderer := &fakePDFRenderer{output: []byte("%PDF-1.4 fake")}
	h := NewExportHandler(newTestDB(t), nil, newFakeObjectStore(), renderer)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = newJSONPost(t, "/v1/resume/export/pdf", `{"name":"Jane"}`)

	h.ExportPDF(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if renderer.calls != 1 {
		t.Fatalf("renderer called %d times", renderer.calls)
	}
	if w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("unexpected content type %q", w.Header().Get("Content-Type"))
	}
	if !bytes.Equal(w.Body.Bytes(), renderer.output) {
		t.Fatal("response body does not match renderer output")
	}
}

func TestGetDownloadLink_PdfNotReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	row := database.ResumeFile{Filename: "cv.pdf", Status: "completed", UserID: 1}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	h := NewExportHandler(db, nil, newFakeObjectStore(), &fakePDFRenderer{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/resume/history/"+strconv.Itoa(int(row.ID))+"/download-link", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(row.ID))}}
	c.Set("userID", uint(1))

	h.GetDownloadLink(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetDownloadLink_ReturnsPresignedURL(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	row := database.ResumeFile{
		Filename:     "cv.pdf",
		Status:       "completed",
		PdfObjectKey: "generated-resumes/1/abc.pdf",
		UserID:       1,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	store := newFakeObjectStore()
	store.presign[row.PdfObjectKey] = "https://signed.example/abc.pdf"
	h := NewExportHandler(db, nil, store, &fakePDFRenderer{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/resume/history/"+strconv.Itoa(int(row.ID))+"/download-link", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(row.ID))}}
	c.Set("userID", uint(1))

	h.GetDownloadLink(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["url"] != "https://signed.example/abc.pdf" {
		t.Fatalf("unexpected url %q", resp["url"])
	}
}

func TestGetDownloadLink_OtherUsersRecord(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := newTestDB(t)
	row := database.ResumeFile{Filename: "cv.pdf", PdfObjectKey: "k", UserID: 2}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}

	h := NewExportHandler(db, nil, newFakeObjectStore(), &fakePDFRenderer{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/resume/history/"+strconv.Itoa(int(row.ID))+"/download-link", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(row.ID))}}
	c.Set("userID", uint(1))

	h.GetDownloadLink(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
