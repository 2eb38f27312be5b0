package nl2sql

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a specialized SQL query generator. " +
	"Convert natural language questions into a single valid PostgreSQL SQL query. " +
	"Return ONLY the SQL query."

// buildUserPrompt embeds the schema text and question verbatim under the fixed
// instruction block. The seven rules are part of the translation contract and
// must stay in this order.
func buildUserPrompt(req Request) string {
	return fmt.Sprintf(`Database Schema:
%s

Natural Language Question:
%s

Rules:
1. Generate ONLY the SQL query without any additional text, explanations, or markdown.
2. Ensure the query is valid PostgreSQL syntax.
3. Use JOINs where appropriate when querying multiple tables.
4. Use column names exactly as they appear in the schema.
5. Keep the query efficient and focused on answering the specific question.
6. When appropriate, include ORDER BY, GROUP BY, or LIMIT clauses to make the results more useful.
7. Do not include any SQL comments in the query.

SQL Query:`,
		req.SchemaText,
		strings.TrimSpace(req.Question),
	)
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}
