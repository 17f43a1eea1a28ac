package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"autodialer-platform/internal/dialer"
	"autodialer-platform/internal/ledger"
	"autodialer-platform/internal/telephony"

	"github.com/gin-gonic/gin"
)

type stubProvider struct {
	err error
}

func (p stubProvider) Name() string { return "stub" }

func (p stubProvider) InitiateCall(_ context.Context, req telephony.CallRequest) (telephony.CallResult, error) {
	if p.err != nil {
		return telephony.CallResult{}, p.err
	}
	return telephony.CallResult{SID: "SID-" + req.To}, nil
}

func newTestRouter(p telephony.Provider) (*gin.Engine, *dialer.Service) {
	gin.SetMode(gin.TestMode)

	led := ledger.NewLedger()
	svc := dialer.NewService(led, p, dialer.Options{
		FromNumber:        "+15550999",
		VoiceURL:          func(m string) string { return "https://dialer.example.com/voice?message=" + m },
		StatusCallbackURL: "https://dialer.example.com/call-status",
	})

	h := Handlers{Dialer: svc}
	r := gin.New()
	r.POST("/calls", h.DispatchSingle)
	r.POST("/calls/batch", h.DispatchBatch)
	r.POST("/calls/command", h.DispatchFromCommand)
	r.GET("/calls", h.ListCalls)
	r.GET("/calls/stats", h.Stats)
	r.GET("/calls/export", h.ExportCSV)
	r.POST("/uploads/csv", h.UploadCSV)
	return r, svc
}

func postJSON(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json response: %v\n%s", err, w.Body.String())
	}
	return out
}

func TestDispatchSingleEndpoint(t *testing.T) {
	r, _ := newTestRouter(stubProvider{})

	w := postJSON(t, r, "/calls", `{"phone_number": "+15550100", "message": "hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["success"] != true || body["call_sid"] != "SID-+15550100" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDispatchSingleEndpoint_MissingNumber(t *testing.T) {
	r, _ := newTestRouter(stubProvider{})

	w := postJSON(t, r, "/calls", `{"message": "hi"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false || body["error"] != "phone number required" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDispatchSingleEndpoint_ProviderFailureStillOK(t *testing.T) {
	r, svc := newTestRouter(stubProvider{err: telephony.ErrNotConfigured})

	w := postJSON(t, r, "/calls", `{"phone_number": "+15550100"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("dispatch failure is reported in the body, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["success"] != false {
		t.Fatalf("unexpected body: %v", body)
	}
	if len(svc.ListRecords()) != 1 {
		t.Fatalf("failed attempt must be recorded")
	}
}

func TestDispatchBatchEndpoint(t *testing.T) {
	r, _ := newTestRouter(stubProvider{})

	w := postJSON(t, r, "/calls/batch", `{"phone_numbers": ["+15550001", "+15550002"], "message": "hi"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	results, ok := body["results"].([]any)
	if !ok || len(results) != 2 {
		t.Fatalf("expected 2 results: %v", body)
	}
	first := results[0].(map[string]any)
	if first["number"] != "+15550001" || first["success"] != true {
		t.Fatalf("unexpected first result: %v", first)
	}
}

func TestDispatchBatchEndpoint_EmptyList(t *testing.T) {
	r, _ := newTestRouter(stubProvider{})

	w := postJSON(t, r, "/calls/batch", `{"phone_numbers": []}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDispatchCommandEndpoint(t *testing.T) {
	r, _ := newTestRouter(stubProvider{})

	w := postJSON(t, r, "/calls/command", `{"command": "call +91 98765 43210"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["parsed_number"] != "+919876543210" || body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestDispatchCommandEndpoint_Unparseable(t *testing.T) {
	r, svc := newTestRouter(stubProvider{})

	w := postJSON(t, r, "/calls/command", `{"command": "hello world"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if len(svc.ListRecords()) != 0 {
		t.Fatalf("parse miss must not touch the ledger")
	}
}

func TestListAndStatsEndpoints(t *testing.T) {
	r, svc := newTestRouter(stubProvider{})
	if _, err := svc.Dispatch(context.Background(), "+15550100", "hi"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	logs, ok := body["logs"].([]any)
	if !ok || len(logs) != 1 {
		t.Fatalf("expected 1 log: %v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls/stats", nil))
	stats := decodeBody(t, w)
	if stats["total"] != float64(1) || stats["successful"] != float64(1) {
		t.Fatalf("unexpected stats: %v", stats)
	}
}

func TestExportCSVEndpoint(t *testing.T) {
	r, svc := newTestRouter(stubProvider{err: telephony.ErrNotConfigured})
	_, _ = svc.Dispatch(context.Background(), "+15550100", "hi")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/calls/export", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "call_logs_") {
		t.Fatalf("expected attachment filename, got %q", cd)
	}

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Timestamp,Phone Number,Status") {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	// record has no SID, exported as N/A
	if !strings.Contains(lines[1], "N/A") {
		t.Fatalf("expected N/A sid in row: %q", lines[1])
	}
}

func TestUploadCSVEndpoint(t *testing.T) {
	r, _ := newTestRouter(stubProvider{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "numbers.csv")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write([]byte("+15550001,Alice\n+15550002,Bob\n\n , \n"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/uploads/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["count"] != float64(2) {
		t.Fatalf("expected 2 numbers, got %v", body)
	}
}

func TestUploadCSVEndpoint_RejectsNonCSV(t *testing.T) {
	r, _ := newTestRouter(stubProvider{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "numbers.txt")
	_, _ = fw.Write([]byte("+15550001"))
	_ = mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/uploads/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
