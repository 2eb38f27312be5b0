package export

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/askdb/askdb/internal/sqlexec"
)

// EncodeParquet writes the result as a parquet file. Result sets have no
// static schema, so every column becomes an optional UTF-8 string and NULL
// cells stay null.
func EncodeParquet(result sqlexec.Result) ([]byte, error) {
	if len(result.Columns) == 0 {
		return nil, fmt.Errorf("result has no columns")
	}

	group := parquet.Group{}
	for _, column := range result.Columns {
		group[column] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("query_results", group)

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[map[string]any](buf, schema)
	for _, row := range result.Rows {
		if len(row) != len(result.Columns) {
			return nil, fmt.Errorf("row has %d cells, expected %d", len(row), len(result.Columns))
		}
		record := make(map[string]any, len(result.Columns))
		for i, cell := range row {
			if cell == nil {
				continue
			}
			record[result.Columns[i]] = cellString(cell)
		}
		if _, err := writer.Write([]map[string]any{record}); err != nil {
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
