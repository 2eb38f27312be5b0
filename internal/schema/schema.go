// Package schema introspects the database catalog and renders the textual
// schema description used to ground query translation.
package schema

import (
	"fmt"
	"strings"
)

// FetchErrorPlaceholder is the legacy text shown in place of a schema when
// introspection fails. Failures propagate as errors; this constant exists only
// for presentation surfaces that still render the old placeholder.
const FetchErrorPlaceholder = "Error fetching schema"

type Column struct {
	Name     string `json:"name"`
	DataType string `json:"data_type"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Description is the request-scoped snapshot of the catalog. Tables and columns
// keep the catalog's returned order.
type Description struct {
	Tables []Table `json:"tables"`
}

// Text renders the description in the exact shape prompt construction expects:
//
//	Table: <name>
//	Columns: <col> (<type>), ...
//
// blocks joined by blank lines.
func (d Description) Text() string {
	blocks := make([]string, 0, len(d.Tables))
	for _, table := range d.Tables {
		cols := make([]string, 0, len(table.Columns))
		for _, col := range table.Columns {
			cols = append(cols, fmt.Sprintf("%s (%s)", col.Name, col.DataType))
		}
		blocks = append(blocks, fmt.Sprintf("Table: %s\nColumns: %s", table.Name, strings.Join(cols, ", ")))
	}
	return strings.Join(blocks, "\n\n")
}
