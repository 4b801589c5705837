package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSnippet(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"short text", 100, "short text"},
		{"", 100, ""},
		{"  trimmed  ", 100, "trimmed"},
		{"long text that should be cut", 9, "long text..."},
	}

	for _, tc := range testCases {
		result := snippet([]byte(tc.input), tc.max)
		if result != tc.expected {
			t.Errorf("snippet(%q, %d) = %q, want %q", tc.input, tc.max, result, tc.expected)
		}
	}
}

func TestHTTPError(t *testing.T) {
	err := &HTTPError{
		Method:     "GET",
		URL:        "https://example.com",
		StatusCode: 404,
		Body:       []byte("Not Found"),
	}

	expected := "http error: GET https://example.com status=404 body=Not Found"
	if err.Error() != expected {
		t.Errorf("HTTPError.Error() = %q, want %q", err.Error(), expected)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxAttempts != 5 {
		t.Errorf("Expected MaxAttempts to be 5, got %d", cfg.MaxAttempts)
	}
	if cfg.BaseDelay != 700*time.Millisecond {
		t.Errorf("Expected BaseDelay to be 700ms, got %v", cfg.BaseDelay)
	}
	if !cfg.Retry5xx {
		t.Error("Expected Retry5xx to be true")
	}
	if !cfg.RetryStatuses[http.StatusTooManyRequests] {
		t.Error("Expected 429 to be retryable")
	}
}

func TestDoWithRetryRecoversFrom5xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond

	resp, body, err := DoWithRetry(context.Background(), server.Client(), buildGet(server.URL), cfg)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if string(body) != "ok" {
		t.Errorf("Expected body 'ok', got %q", body)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestDoWithRetryDoesNotRetry4xx(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad input"))
	}))
	defer server.Close()

	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond

	_, _, err := DoWithRetry(context.Background(), server.Client(), buildGet(server.URL), cfg)
	if err == nil {
		t.Fatal("Expected an error for a 400 response")
	}
	herr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if herr.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", herr.StatusCode)
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt for a 4xx, got %d", attempts)
	}
}

func TestNoRetrySingleAttempt(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, _, err := DoWithRetry(context.Background(), server.Client(), buildGet(server.URL), NoRetry())
	if err == nil {
		t.Fatal("Expected an error for a 500 response")
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt with NoRetry, got %d", attempts)
	}
}

func TestDoJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name": "value"}`))
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := DoJSON(context.Background(), server.Client(), buildGet(server.URL), &out, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if out.Name != "value" {
		t.Errorf("Expected name 'value', got %q", out.Name)
	}
}

func TestDoJSONEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var out struct {
		Name string `json:"name"`
	}
	err := DoJSON(context.Background(), server.Client(), buildGet(server.URL), &out, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("Expected no error on 204, got %v", err)
	}
	if out.Name != "" {
		t.Errorf("Expected out to be untouched, got %q", out.Name)
	}
}

func TestParseRetryAfterSeconds(t *testing.T) {
	resp := &http.Response{Header: http.Header{"Retry-After": []string{"7"}}}
	if got := ParseRetryAfter(resp); got != 7*time.Second {
		t.Errorf("Expected 7s, got %v", got)
	}

	resp = &http.Response{Header: http.Header{}}
	if got := ParseRetryAfter(resp); got != 0 {
		t.Errorf("Expected 0 for missing header, got %v", got)
	}

	resp = &http.Response{Header: http.Header{"Retry-After": []string{"garbage"}}}
	if got := ParseRetryAfter(resp); got != 0 {
		t.Errorf("Expected 0 for invalid header, got %v", got)
	}
}

func buildGet(url string) func(context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}
