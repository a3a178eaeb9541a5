package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, time.Millisecond, time.Millisecond, 10)
}

func TestSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/resume/upload" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer file.Close()
		if header.Filename != "cv.pdf" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"task_id": "t-123"}`)
	}))
	defer server.Close()

	taskID, err := newTestClient(server.URL).Submit(context.Background(), "cv.pdf", strings.NewReader("%PDF-"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if taskID != "t-123" {
		t.Fatalf("unexpected task id %q", taskID)
	}
}

func TestSubmitEngineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).Submit(context.Background(), "cv.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestAwaitFailedAfterExactPollCount(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n < 10 {
			fmt.Fprint(w, `{"status": "processing", "stage": "parsing"}`)
			return
		}
		fmt.Fprint(w, `{"status": "failed", "error": "x"}`)
	}))
	defer server.Close()

	status, err := newTestClient(server.URL).Await(context.Background(), "t-1", nil)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if status.Status != "failed" || status.Error != "x" {
		t.Fatalf("unexpected terminal status %+v", status)
	}
	if got := calls.Load(); got != 10 {
		t.Fatalf("expected exactly 10 polls, got %d", got)
	}
}

func TestAwaitCompleted(t *testing.T) {
	var calls atomic.Int32
	stages := []string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch n {
		case 1:
			fmt.Fprint(w, `{"status": "processing", "stage": "extraction", "progress": 50}`)
		case 2:
			fmt.Fprint(w, `{"status": "processing", "stage": "parsing"}`)
		default:
			fmt.Fprint(w, `{"status": "completed", "stage": "completed", "data": {"name": "Jane"}}`)
		}
	}))
	defer server.Close()

	status, err := newTestClient(server.URL).Await(context.Background(), "t-2", func(s Status) {
		stages = append(stages, s.Stage)
	})
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if status.Status != "completed" {
		t.Fatalf("unexpected status %+v", status)
	}

	var payload map[string]string
	if err := json.Unmarshal(status.Data, &payload); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if payload["name"] != "Jane" {
		t.Fatalf("unexpected data %v", payload)
	}

	if len(stages) != 3 || stages[0] != "extraction" || stages[2] != "completed" {
		t.Fatalf("unexpected stage callbacks %v", stages)
	}
}

func TestAwaitGivesUpAfterNetworkRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Millisecond, time.Millisecond, 3)
	_, err := client.Await(context.Background(), "t-3", nil)
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
}

func TestAwaitNetworkFailureCounterResets(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n%2 == 1 && n < 6 {
			// 断开连接制造一次瞬时网络错误
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("hijacking unsupported")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack: %v", err)
				return
			}
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if n < 7 {
			fmt.Fprint(w, `{"status": "processing", "stage": "parsing"}`)
			return
		}
		fmt.Fprint(w, `{"status": "completed", "stage": "completed"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Millisecond, time.Millisecond, 2)
	status, err := client.Await(context.Background(), "t-4", nil)
	if err != nil {
		t.Fatalf("await: %v", err)
	}
	if status.Status != "completed" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestAwaitHonoursContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status": "processing", "stage": "parsing"}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(server.URL, time.Hour, time.Hour, 10)

	done := make(chan error, 1)
	go func() {
		_, err := client.Await(ctx, "t-5", nil)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("await did not stop on cancellation")
	}
}
