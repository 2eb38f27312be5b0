package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/schema"
)

type translateRequest struct {
	Question string `json:"question"`
}

// handleTranslate runs the pipeline up to translation and returns the
// candidate SQL without executing it.
func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", pipeline.ErrTranslatorNotConfigured.Error(), false, nil)
		return
	}

	var req translateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid translation request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	out, err := deps.Pipeline.Ask(r.Context(), pipeline.AskInput{Question: req.Question, Execute: false})
	if err != nil {
		writePipelineError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"question": out.Question,
		"sql":      out.SQL,
		"provider": out.Provider,
		"model":    out.Model,
	})
}

// writePipelineError maps a staged pipeline failure onto the HTTP error
// envelope. Translation failures never reach the executor, so the three cases
// are disjoint.
func writePipelineError(r *http.Request, w http.ResponseWriter, err error) {
	var schemaErr *pipeline.SchemaError
	var translateErr *pipeline.TranslateError
	var execErr *pipeline.ExecError

	switch {
	case errors.Is(err, pipeline.ErrTranslatorNotConfigured):
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", pipeline.ErrTranslatorNotConfigured.Error(), false, nil)
	case errors.As(err, &schemaErr):
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FETCH_FAILED", schema.FetchErrorPlaceholder, true, map[string]any{"details": schemaErr.Err.Error()})
	case errors.As(err, &translateErr):
		writeError(r.Context(), w, http.StatusBadGateway, "TRANSLATE_FAILED", "failed to translate question", true, map[string]any{"details": translateErr.Err.Error()})
	case errors.As(err, &execErr):
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", sqlexecUserMessage, false, map[string]any{"details": execErr.Err.Error()})
	default:
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", err.Error(), true, nil)
	}
}
