package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetJSONSendsBrowserHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	c := New(server.Client(), "https://feedback.example.com/", testLogger())
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if !out.OK {
		t.Error("Expected decoded ok=true")
	}

	if got.Get("Accept") != "application/json" {
		t.Errorf("Accept = %q", got.Get("Accept"))
	}
	if got.Get("Accept-Language") != "en-US,en;q=0.9" {
		t.Errorf("Accept-Language = %q", got.Get("Accept-Language"))
	}
	if !strings.Contains(got.Get("User-Agent"), "Chrome/") {
		t.Errorf("User-Agent = %q, want a browser string", got.Get("User-Agent"))
	}
	if got.Get("Dnt") != "1" {
		t.Errorf("Dnt = %q", got.Get("Dnt"))
	}
	if got.Get("Referer") != "https://feedback.example.com/" {
		t.Errorf("Referer = %q", got.Get("Referer"))
	}
}

func TestGetJSONNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	c := New(server.Client(), "https://feedback.example.com/", testLogger())
	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL, &out)
	if err == nil {
		t.Fatal("Expected an error for HTTP 403")
	}

	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if fe.Status != http.StatusForbidden {
		t.Errorf("Status = %d, want 403", fe.Status)
	}
	if !IsFetchError(err) {
		t.Error("IsFetchError should be true")
	}
}

func TestGetJSONBadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte("<html>not json</html>")); err != nil {
			t.Errorf("write response: %v", err)
		}
	}))
	defer server.Close()

	c := New(server.Client(), "https://feedback.example.com/", testLogger())
	var out map[string]any
	err := c.GetJSON(context.Background(), server.URL, &out)
	if !IsFetchError(err) {
		t.Fatalf("Expected a fetch error for an undecodable body, got %v", err)
	}

	var fe *Error
	errors.As(err, &fe)
	if fe.Status != 0 {
		t.Errorf("Status = %d, want 0 for a decode failure", fe.Status)
	}
}

func TestGetJSONTransportFailure(t *testing.T) {
	c := New(&http.Client{}, "https://feedback.example.com/", testLogger())
	var out map[string]any
	err := c.GetJSON(context.Background(), "http://127.0.0.1:1/unreachable", &out)
	if !IsFetchError(err) {
		t.Fatalf("Expected a fetch error for a refused connection, got %v", err)
	}
}

func TestIsFetchErrorNegative(t *testing.T) {
	if IsFetchError(nil) {
		t.Error("IsFetchError(nil) should be false")
	}
	if IsFetchError(errors.New("plain")) {
		t.Error("IsFetchError(plain error) should be false")
	}
}
