package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"shelfcheck/internal/catalog"
	"shelfcheck/internal/probe"
	"shelfcheck/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubChecker struct {
	books []types.BookAvailability
	err   error
	url   string
}

func (s *stubChecker) Check(_ context.Context, wishlistURL string) ([]types.BookAvailability, error) {
	s.url = wishlistURL
	return s.books, s.err
}

func postCheck(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/check-availability", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCheckAvailability(t *testing.T) {
	checker := &stubChecker{books: []types.BookAvailability{
		{Title: "Dune", Author: "Frank Herbert", Library: "City Library", Available: true, Format: types.FormatBook},
	}}
	srv := NewServer(0, checker, testLogger)

	rec := postCheck(t, srv.Handler(), `{"wishlistUrl": "https://www.amazon.com/hz/wishlist/ls/ABC123"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if checker.url != "https://www.amazon.com/hz/wishlist/ls/ABC123" {
		t.Errorf("checker got url %q", checker.url)
	}

	var resp struct {
		Books []types.BookAvailability `json:"books"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Books) != 1 || resp.Books[0].Title != "Dune" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestCheckAvailabilityMissingURL(t *testing.T) {
	srv := NewServer(0, &stubChecker{}, testLogger)

	for _, body := range []string{`{}`, `{"wishlistUrl": ""}`, `not json`} {
		rec := postCheck(t, srv.Handler(), body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
		var resp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode error payload: %v", err)
		}
		if resp.Error != "Wishlist URL is required" {
			t.Errorf("body %q: unexpected error %q", body, resp.Error)
		}
	}
}

func TestCheckAvailabilityPipelineFailure(t *testing.T) {
	checker := &stubChecker{err: errors.New("wishlist page did not load")}
	srv := NewServer(0, checker, testLogger)

	rec := postCheck(t, srv.Handler(), `{"wishlistUrl": "https://www.amazon.com/hz/wishlist/ls/ABC123"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if resp.Error != "Failed to check availability" {
		t.Errorf("unexpected error %q", resp.Error)
	}
	if !strings.Contains(resp.Message, "wishlist page did not load") {
		t.Errorf("expected the cause in the message, got %q", resp.Message)
	}
}

func TestHealth(t *testing.T) {
	srv := NewServer(0, &stubChecker{}, testLogger)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health payload: %s", rec.Body.String())
	}
}

type stubProber struct {
	statuses []probe.SourceStatus
}

func (s *stubProber) Check(_ context.Context, _ []catalog.Source) []probe.SourceStatus {
	return s.statuses
}

func TestSources(t *testing.T) {
	prober := &stubProber{statuses: []probe.SourceStatus{
		{Key: "slcpl", Label: "SLCPL", Reachable: true, Status: http.StatusOK},
		{Key: "slco", Label: "SL County", Reachable: false, Error: "connection refused"},
	}}
	srv := NewServer(0, &stubChecker{}, testLogger).
		WithSources(prober, []catalog.Source{{Key: "slcpl"}, {Key: "slco"}})

	req := httptest.NewRequest(http.MethodGet, "/api/sources", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Sources []probe.SourceStatus `json:"sources"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Sources) != 2 || !resp.Sources[0].Reachable || resp.Sources[1].Reachable {
		t.Fatalf("unexpected payload: %+v", resp.Sources)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := NewServer(0, &stubChecker{}, testLogger)

	req := httptest.NewRequest(http.MethodOptions, "/api/check-availability", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}
