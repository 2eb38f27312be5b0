package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/sqlexec"
	"github.com/askdb/askdb/internal/storage"
)

func exportResult() sqlexec.Result {
	return sqlexec.Result{
		Columns:  []string{"id", "name"},
		Rows:     [][]any{{"1", "Widget"}},
		RowCount: 1,
	}
}

func TestExportServesCSVDownload(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Executor: &fakeExecutor{result: exportResult()},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"SELECT id, name FROM products"}`))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Type"); got != "text/csv" {
		t.Fatalf("content type = %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="query_results.csv"` {
		t.Fatalf("content disposition = %q", got)
	}
	if rr.Body.String() != "id,name\n1,Widget\n" {
		t.Fatalf("body = %q", rr.Body.String())
	}
}

func TestExportArchivesWhenConfigured(t *testing.T) {
	archiver := &fakeArchiver{info: storage.ObjectInfo{Key: "2026/08/25/t-query_results.csv"}}
	handler := NewHandler(testConfig(), Dependencies{
		Executor: &fakeExecutor{result: exportResult()},
		Archiver: archiver,
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"SELECT 1"}`)))

	if got := rr.Header().Get("X-Archive-Key"); got != "2026/08/25/t-query_results.csv" {
		t.Fatalf("archive key = %q", got)
	}
	if archiver.file.Name != "query_results.csv" {
		t.Fatalf("archived file = %q", archiver.file.Name)
	}
}

func TestExportArchiveFailureStillServesDownload(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Executor: &fakeExecutor{result: exportResult()},
		Archiver: &fakeArchiver{err: errors.New("bucket unavailable")},
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"SELECT 1"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Archive-Key") != "" {
		t.Fatal("archive key should be absent on failure")
	}
}

func TestExportParquetFormat(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Executor: &fakeExecutor{result: exportResult()},
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"SELECT 1","format":"parquet"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="query_results.parquet"` {
		t.Fatalf("content disposition = %q", got)
	}
	if rr.Body.Len() == 0 {
		t.Fatal("parquet body is empty")
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Executor: &fakeExecutor{result: exportResult()},
	})

	rr, body := doJSON(t, handler, http.MethodPost, "/v1/export", `{"sql":"SELECT 1","format":"xlsx"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["error_code"] != "EXPORT_FAILED" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
}

func TestExportExecutionFailure(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Executor: &fakeExecutor{err: errors.New("permission denied")},
	})

	rr, body := doJSON(t, handler, http.MethodPost, "/v1/export", `{"sql":"SELECT secret FROM vault"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["message"] != "Error executing query" {
		t.Fatalf("message = %v", body["message"])
	}
}
