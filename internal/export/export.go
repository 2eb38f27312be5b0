// Package export renders query results into downloadable files and
// optionally archives them in an object store.
package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/askdb/askdb/internal/sqlexec"
)

const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"

	// CSVFileName matches the download name users already expect.
	CSVFileName     = "query_results.csv"
	ParquetFileName = "query_results.parquet"
)

// File is a rendered export ready to be served or archived.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render encodes a result in the requested format. An empty format defaults
// to CSV.
func Render(format string, result sqlexec.Result) (File, error) {
	switch format {
	case "", FormatCSV:
		data, err := EncodeCSV(result)
		if err != nil {
			return File{}, err
		}
		return File{Name: CSVFileName, ContentType: "text/csv", Data: data}, nil
	case FormatParquet:
		data, err := EncodeParquet(result)
		if err != nil {
			return File{}, err
		}
		return File{Name: ParquetFileName, ContentType: "application/vnd.apache.parquet", Data: data}, nil
	default:
		return File{}, fmt.Errorf("unsupported export format: %q", format)
	}
}

// cellString flattens a scanned database value into its textual form. NULL
// renders as the empty string.
func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
