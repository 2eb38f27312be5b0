package api

import (
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/pipeline"
)

type askRequest struct {
	Question string `json:"question"`
	// Execute defaults to true; set false to stop after translation.
	Execute *bool `json:"execute,omitempty"`
}

// handleAsk is the one-shot flow: introspect the schema, translate the
// question, run the candidate SQL, and return everything the UI renders.
func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "TRANSLATE_NOT_CONFIGURED", pipeline.ErrTranslatorNotConfigured.Error(), false, nil)
		return
	}

	var req askRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	execute := true
	if req.Execute != nil {
		execute = *req.Execute
	}

	out, err := deps.Pipeline.Ask(r.Context(), pipeline.AskInput{Question: req.Question, Execute: execute})
	if err != nil {
		writePipelineError(r, w, err)
		return
	}

	response := map[string]any{
		"question": out.Question,
		"sql":      out.SQL,
		"provider": out.Provider,
		"model":    out.Model,
		"executed": out.Executed,
	}
	if out.Result != nil {
		response["result"] = out.Result
	}
	writeJSON(w, http.StatusOK, response)
}
