package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/mshojaei77/tsetmc-go/common"
)

func TestGetTextSendsBrowserHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent header")
		}
		if r.Header.Get("Accept-Language") != "fa,en;q=0.9" {
			t.Errorf("Accept-Language = %q", r.Header.Get("Accept-Language"))
		}
		if r.URL.Query().Get("i") != "123" {
			t.Errorf("query i = %q, want 123", r.URL.Query().Get("i"))
		}
		w.Write([]byte("20240320,100,90,95,96,10,1000,95000,92"))
	}))
	defer srv.Close()

	client := NewClient(WithLogger(common.NewSilentLogger()))
	body, err := client.GetText(context.Background(), srv.URL+"/data", url.Values{"i": {"123"}})
	if err != nil {
		t.Fatalf("GetText failed: %v", err)
	}
	if body != "20240320,100,90,95,96,10,1000,95000,92" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(
		WithLogger(common.NewSilentLogger()),
		WithRateLimit(1000),
		WithMaxRetries(5),
	)
	body, err := client.GetText(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("GetText failed after retries: %v", err)
	}
	if body != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("server called %d times, want 3", calls)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(WithLogger(common.NewSilentLogger()), WithRateLimit(1000))
	_, err := client.GetText(context.Background(), srv.URL, nil)
	if err == nil {
		t.Fatal("expected error on 404")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T is not *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", apiErr.StatusCode)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("server called %d times, want 1 (no retry on 4xx)", calls)
	}
}

func TestPostFormEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("skey") != "فولاد" {
			t.Errorf("skey = %q", r.PostForm.Get("skey"))
		}
		w.Write([]byte("result"))
	}))
	defer srv.Close()

	client := NewClient(WithLogger(common.NewSilentLogger()))
	body, err := client.PostForm(context.Background(), srv.URL, url.Values{"skey": {"فولاد"}})
	if err != nil {
		t.Fatalf("PostForm failed: %v", err)
	}
	if body != "result" {
		t.Errorf("body = %q", body)
	}
}

func TestPostJSONReturnsRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		// HTML error page instead of JSON, as the search endpoint does.
		w.Write([]byte("<html>error</html>"))
	}))
	defer srv.Close()

	client := NewClient(WithLogger(common.NewSilentLogger()))
	body, err := client.PostJSON(context.Background(), srv.URL, map[string]string{"searchKey": "x"})
	if err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if body != "<html>error</html>" {
		t.Errorf("body = %q", body)
	}
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithLogger(common.NewSilentLogger()), WithRateLimit(1000))
	if _, err := client.GetText(ctx, srv.URL, nil); err == nil {
		t.Fatal("expected error with cancelled context")
	}
}
