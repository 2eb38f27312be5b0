package api

import (
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/sqlexec"
)

const sqlexecUserMessage = sqlexec.UserErrorMessage

type queryRequest struct {
	SQL string `json:"sql"`
}

// handleQuery executes caller-provided SQL directly, bypassing translation.
// The executor's read-only gate still applies.
func handleQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Executor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXECUTOR_NOT_CONFIGURED", "query execution is not configured", false, nil)
		return
	}

	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", false, map[string]any{"details": err.Error()})
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

	writeJSON(w, http.StatusOK, result)
}
