package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/export"
	"github.com/askdb/askdb/internal/observability"
)

type exportRequest struct {
	SQL    string `json:"sql"`
	Format string `json:"format,omitempty"`
}

// handleExport re-runs the SQL and streams the rendered file back as a
// download. When an archiver is configured the object key is exposed through
// the X-Archive-Key header; archival failures are logged but do not fail the
// download.
func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Executor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXECUTOR_NOT_CONFIGURED", "query execution is not configured", false, nil)
		return
	}

	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid export request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	result, err := deps.Executor.Execute(r.Context(), req.SQL)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", sqlexecUserMessage, false, map[string]any{"details": err.Error()})
		return
	}

	file, err := export.Render(req.Format, result)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "EXPORT_FAILED", "failed to render export", false, map[string]any{"details": err.Error()})
		return
	}
	format := req.Format
	if format == "" {
		format = export.FormatCSV
	}
	observability.ObserveExport(format)

	if deps.Archiver != nil {
		traceID := observability.TraceIDFromContext(r.Context())
		info, err := deps.Archiver.Archive(r.Context(), traceID, file)
		if err != nil {
			if deps.Logger != nil {
				deps.Logger.ErrorContext(r.Context(), "export archival failed", "error", err)
			}
		} else {
			w.Header().Set("X-Archive-Key", info.Key)
		}
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}
