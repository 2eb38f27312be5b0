// Package nl2sql turns a natural-language question into a single SQL statement
// by calling a hosted language model with the live schema as grounding context.
package nl2sql

import "context"

type Request struct {
	Question   string `json:"question"`
	SchemaText string `json:"schema_text"`
}

type Result struct {
	SQL      string `json:"sql"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}
