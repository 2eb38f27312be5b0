package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/askdb/askdb/internal/nl2sql"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/sqlexec"
)

func TestAskRunsFullPipeline(t *testing.T) {
	executor := &fakeExecutor{result: sqlexec.Result{
		Columns:  []string{"id", "name"},
		Rows:     [][]any{{int64(1), "Ada"}, {int64(2), "Grace"}, {int64(3), "Edsger"}},
		RowCount: 3,
	}}
	translator := &fakeTranslator{result: nl2sql.Result{
		SQL:      "SELECT id, name FROM customers",
		Provider: "fake",
		Model:    "fake-model",
	}}
	service := &Service{
		Schema:     &fakeSchemaSource{description: customersDescription()},
		Translator: translator,
		Executor:   executor,
	}

	out, err := service.Ask(context.Background(), AskInput{Question: "List all customers", Execute: true})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if !out.Executed || out.Result == nil {
		t.Fatal("expected executed result")
	}
	if out.Result.RowCount != 3 {
		t.Fatalf("RowCount = %d, want 3", out.Result.RowCount)
	}
	if out.SQL != "SELECT id, name FROM customers" {
		t.Fatalf("SQL = %q", out.SQL)
	}
	if len(translator.requests) != 1 {
		t.Fatalf("translator calls = %d", len(translator.requests))
	}
	if translator.requests[0].SchemaText != customersDescription().Text() {
		t.Fatalf("schema text = %q", translator.requests[0].SchemaText)
	}
	if executor.calls != 1 {
		t.Fatalf("executor calls = %d", executor.calls)
	}
}

func TestAskSkipsExecutorOnTranslationFailure(t *testing.T) {
	executor := &fakeExecutor{}
	service := &Service{
		Schema:     &fakeSchemaSource{description: customersDescription()},
		Translator: &fakeTranslator{err: errors.New("provider unavailable")},
		Executor:   executor,
	}

	_, err := service.Ask(context.Background(), AskInput{Question: "q", Execute: true})
	var translateErr *TranslateError
	if !errors.As(err, &translateErr) {
		t.Fatalf("error = %v, want *TranslateError", err)
	}
	if executor.calls != 0 {
		t.Fatalf("executor calls = %d, must be skipped", executor.calls)
	}
}

func TestAskReturnsSchemaError(t *testing.T) {
	service := &Service{
		Schema:     &fakeSchemaSource{err: errors.New("connection refused")},
		Translator: &fakeTranslator{},
		Executor:   &fakeExecutor{},
	}

	_, err := service.Ask(context.Background(), AskInput{Question: "q", Execute: true})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
}

func TestAskReturnsExecError(t *testing.T) {
	service := &Service{
		Schema:     &fakeSchemaSource{description: customersDescription()},
		Translator: &fakeTranslator{result: nl2sql.Result{SQL: "SELECT nope", Provider: "fake"}},
		Executor:   &fakeExecutor{err: errors.New("syntax error")},
	}

	out, err := service.Ask(context.Background(), AskInput{Question: "q", Execute: true})
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("error = %v, want *ExecError", err)
	}
	if out.SQL != "SELECT nope" {
		t.Fatalf("SQL = %q, translation should survive exec failure", out.SQL)
	}
}

func TestAskWithoutExecuteStopsAfterTranslation(t *testing.T) {
	executor := &fakeExecutor{}
	service := &Service{
		Schema:     &fakeSchemaSource{description: customersDescription()},
		Translator: &fakeTranslator{result: nl2sql.Result{SQL: "SELECT 1", Provider: "fake"}},
		Executor:   executor,
	}

	out, err := service.Ask(context.Background(), AskInput{Question: "q", Execute: false})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if out.Executed || out.Result != nil {
		t.Fatal("result should be absent when execute is false")
	}
	if executor.calls != 0 {
		t.Fatalf("executor calls = %d", executor.calls)
	}
}

func TestAskWithoutTranslatorIsTranslateError(t *testing.T) {
	service := &Service{
		Schema:   &fakeSchemaSource{description: customersDescription()},
		Executor: &fakeExecutor{},
	}

	_, err := service.Ask(context.Background(), AskInput{Question: "q", Execute: true})
	var translateErr *TranslateError
	if !errors.As(err, &translateErr) {
		t.Fatalf("error = %v, want *TranslateError", err)
	}
	if !errors.Is(err, ErrTranslatorNotConfigured) {
		t.Fatalf("error = %v, want ErrTranslatorNotConfigured", err)
	}
}

func customersDescription() schema.Description {
	return schema.Description{Tables: []schema.Table{
		{Name: "customers", Columns: []schema.Column{
			{Name: "id", DataType: "integer"},
			{Name: "name", DataType: "text"},
		}},
	}}
}

type fakeSchemaSource struct {
	description schema.Description
	err         error
}

func (f *fakeSchemaSource) Describe(context.Context) (schema.Description, error) {
	if f.err != nil {
		return schema.Description{}, f.err
	}
	return f.description, nil
}

type fakeTranslator struct {
	requests []nl2sql.Request
	result   nl2sql.Result
	err      error
}

func (f *fakeTranslator) Translate(_ context.Context, req nl2sql.Request) (nl2sql.Result, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nl2sql.Result{}, f.err
	}
	return f.result, nil
}

type fakeExecutor struct {
	calls  int
	result sqlexec.Result
	err    error
}

func (f *fakeExecutor) Execute(context.Context, string) (sqlexec.Result, error) {
	f.calls++
	if f.err != nil {
		return sqlexec.Result{}, f.err
	}
	return f.result, nil
}
