package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/export"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlexec"
	"github.com/askdb/askdb/internal/storage"
)

type fakeSchema struct {
	description schema.Description
	err         error
}

func (f *fakeSchema) Describe(context.Context) (schema.Description, error) {
	return f.description, f.err
}

type fakeAsker struct {
	out   pipeline.AskOutput
	err   error
	calls []pipeline.AskInput
}

func (f *fakeAsker) Ask(_ context.Context, in pipeline.AskInput) (pipeline.AskOutput, error) {
	f.calls = append(f.calls, in)
	return f.out, f.err
}

type fakeExecutor struct {
	result sqlexec.Result
	err    error
	lastQ  string
}

func (f *fakeExecutor) Execute(_ context.Context, sqlText string) (sqlexec.Result, error) {
	f.lastQ = sqlText
	return f.result, f.err
}

type fakeArchiver struct {
	info storage.ObjectInfo
	err  error
	file export.File
}

func (f *fakeArchiver) Archive(_ context.Context, _ string, file export.File) (storage.ObjectInfo, error) {
	f.file = file
	return f.info, f.err
}

func testConfig() config.Config {
	return config.Config{
		Profile: config.ProfileTest,
		Service: config.ServiceConfig{Name: "askdb-api"},
	}
}

func catalogDescription() schema.Description {
	return schema.Description{Tables: []schema.Table{
		{Name: "orders", Columns: []schema.Column{
			{Name: "id", DataType: "integer"},
			{Name: "total", DataType: "numeric"},
		}},
	}}
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	decoded := map[string]any{}
	if strings.Contains(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rr.Body.String())
		}
	}
	return rr, decoded
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{})

	rr, body := doJSON(t, handler, http.MethodGet, "/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["status"] != "ok" || body["service"] != "askdb-api" {
		t.Fatalf("body = %v", body)
	}
}

func TestReadyWithoutCheckReportsReady(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{})

	rr, body := doJSON(t, handler, http.MethodGet, "/v1/ready", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["status"] != "ready" {
		t.Fatalf("body = %v", body)
	}
}

func TestReadyPropagatesCheckFailure(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Readiness: func(context.Context) error { return fmt.Errorf("connection refused") },
	})

	rr, body := doJSON(t, handler, http.MethodGet, "/v1/ready", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["error_code"] != "NOT_READY" {
		t.Fatalf("body = %v", body)
	}
}

func TestSchemaEndpoint(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Schema: &fakeSchema{description: catalogDescription()},
	})

	rr, body := doJSON(t, handler, http.MethodGet, "/v1/schema", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	text, _ := body["schema_text"].(string)
	if !strings.Contains(text, "Table: orders") || !strings.Contains(text, "id (integer), total (numeric)") {
		t.Fatalf("schema_text = %q", text)
	}
	tables, _ := body["tables"].([]any)
	if len(tables) != 1 {
		t.Fatalf("tables = %v", body["tables"])
	}
}

func TestSchemaEndpointFailure(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Schema: &fakeSchema{err: errors.New("dial tcp: connection refused")},
	})

	rr, body := doJSON(t, handler, http.MethodGet, "/v1/schema", "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if body["error_code"] != "SCHEMA_FETCH_FAILED" {
		t.Fatalf("error_code = %v", body["error_code"])
	}
	if body["message"] != "Error fetching schema" {
		t.Fatalf("message = %v", body["message"])
	}
}

func TestErrorEnvelopeCarriesTraceID(t *testing.T) {
	handler := NewHandler(testConfig(), Dependencies{
		Schema: &fakeSchema{err: errors.New("boom")},
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/schema", nil)
	req.Header.Set("X-Trace-ID", "trace-7")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	body := map[string]any{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["trace_id"] != "trace-7" {
		t.Fatalf("trace_id = %v", body["trace_id"])
	}
}
