// Package pipeline wires the introspector, translator, and executor into the
// per-request flow: fetch schema, translate the question, run the SQL.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlexec"
)

// ErrTranslatorNotConfigured reports that no translation provider was set up,
// typically because the API key is missing.
var ErrTranslatorNotConfigured = errors.New("query translation is not configured")

type SchemaSource interface {
	Describe(ctx context.Context) (schema.Description, error)
}

type QueryExecutor interface {
	Execute(ctx context.Context, sqlText string) (sqlexec.Result, error)
}

// SchemaError, TranslateError, and ExecError tag a failure with the pipeline
// stage it came from, replacing the old string-prefix convention.
type SchemaError struct{ Err error }

func (e *SchemaError) Error() string { return fmt.Sprintf("fetch schema: %v", e.Err) }
func (e *SchemaError) Unwrap() error { return e.Err }

type TranslateError struct{ Err error }

func (e *TranslateError) Error() string { return fmt.Sprintf("translate question: %v", e.Err) }
func (e *TranslateError) Unwrap() error { return e.Err }

type ExecError struct{ Err error }

func (e *ExecError) Error() string { return fmt.Sprintf("execute query: %v", e.Err) }
func (e *ExecError) Unwrap() error { return e.Err }

type AskInput struct {
	Question string
	// Execute controls whether the translated SQL is run. When false the
	// pipeline stops after translation.
	Execute bool
}

type AskOutput struct {
	Question    string
	SchemaText  string
	SQL         string
	Provider    string
	Model       string
	Executed    bool
	Result      *sqlexec.Result
	TranslateIn time.Duration
	ExecuteIn   time.Duration
}

// Service holds no per-request state; every Ask re-introspects the schema and
// issues a fresh model call.
type Service struct {
	Schema     SchemaSource
	Translator nl2sql.Translator
	Executor   QueryExecutor
	Logger     *slog.Logger
}

func (s *Service) Ask(ctx context.Context, in AskInput) (AskOutput, error) {
	out := AskOutput{Question: in.Question}

	description, err := s.Schema.Describe(ctx)
	observability.ObserveSchemaFetch(err == nil)
	if err != nil {
		s.log(ctx, slog.LevelError, "schema fetch failed", slog.Any("error", err))
		return out, &SchemaError{Err: err}
	}
	out.SchemaText = description.Text()

	if s.Translator == nil {
		return out, &TranslateError{Err: ErrTranslatorNotConfigured}
	}

	translateStart := time.Now()
	translation, err := s.Translator.Translate(ctx, nl2sql.Request{
		Question:   in.Question,
		SchemaText: out.SchemaText,
	})
	out.TranslateIn = time.Since(translateStart)
	observability.ObserveTranslation(translation.Provider, err == nil, out.TranslateIn)
	if err != nil {
		s.log(ctx, slog.LevelError, "translation failed", slog.Any("error", err))
		return out, &TranslateError{Err: err}
	}
	out.SQL = translation.SQL
	out.Provider = translation.Provider
	out.Model = translation.Model

	if !in.Execute {
		return out, nil
	}

	execStart := time.Now()
	result, err := s.Executor.Execute(ctx, translation.SQL)
	out.ExecuteIn = time.Since(execStart)
	observability.ObserveExecution(err == nil, out.ExecuteIn, result.RowCount)
	if err != nil {
		s.log(ctx, slog.LevelError, "query execution failed",
			slog.String("sql", translation.SQL),
			slog.Any("error", err),
		)
		return out, &ExecError{Err: err}
	}
	out.Executed = true
	out.Result = &result

	s.log(ctx, slog.LevelInfo, "question answered",
		slog.String("provider", translation.Provider),
		slog.Int("rows", result.RowCount),
	)
	return out, nil
}

func (s *Service) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Log(ctx, level, msg, args...)
}
