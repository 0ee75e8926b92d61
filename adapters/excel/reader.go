package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"abverdict/domain/dataset"
	"abverdict/internal"
	"abverdict/internal/errors"

	"github.com/xuri/excelize/v2"
)

// File types understood by DataReader
const (
	TypeCSV  = "csv"
	TypeXLSX = "xlsx"
)

// DataReader reads CSV and Excel files into a dataset.Table. It implements
// ports.TableReader.
type DataReader struct {
	filePath string
	fileType string
	sheet    string
	source   io.Reader
	logger   *internal.Logger
}

// Option tunes a DataReader
type Option func(*DataReader)

// WithSheet selects a worksheet by name; the first sheet is used otherwise
func WithSheet(name string) Option {
	return func(r *DataReader) { r.sheet = name }
}

// WithLogger attaches a logger
func WithLogger(logger *internal.Logger) Option {
	return func(r *DataReader) { r.logger = logger }
}

// NewDataReader creates a reader for a file on disk. The type follows the extension.
func NewDataReader(filePath string, opts ...Option) *DataReader {
	r := &DataReader{filePath: filePath, fileType: DetectType(filePath)}
	return r.apply(opts)
}

// NewStreamReader reads an already open stream, such as an upload. name only picks
// the file type.
func NewStreamReader(source io.Reader, name string, opts ...Option) *DataReader {
	r := &DataReader{filePath: name, fileType: DetectType(name), source: source}
	return r.apply(opts)
}

func (r *DataReader) apply(opts []Option) *DataReader {
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = internal.NewDiscardLogger()
	}
	return r
}

// DetectType maps a file name to TypeCSV or TypeXLSX; anything but .csv is Excel
func DetectType(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return TypeCSV
	}
	return TypeXLSX
}

// ReadTable reads the whole file. The first row is the header; cells are trimmed and
// short rows leave the missing columns empty.
func (r *DataReader) ReadTable(ctx context.Context) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Cancelled(err)
	}

	src := r.source
	if src == nil {
		f, err := os.Open(r.filePath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Validation("file not found", fmt.Errorf("%s: %w", r.filePath, err))
			}
			return nil, errors.Wrapf(err, "failed to open %s", r.filePath)
		}
		defer f.Close()
		src = f
	}

	start := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch r.fileType {
	case TypeCSV:
		rows, err = readCSV(src)
	default:
		rows, err = r.readExcel(src)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.ValidationError(
			fmt.Sprintf("%s file must have a header row and at least one data row", strings.ToUpper(r.fileType)))
	}

	table := processRows(rows)
	r.logger.Debug("read %s %s in %.2fms (%d columns, %d rows)",
		r.fileType, r.filePath, float64(time.Since(start).Nanoseconds())/1e6, len(table.Headers), len(table.Rows))
	return table, nil
}

func readCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Validation("malformed CSV file", err)
	}
	return rows, nil
}

func (r *DataReader) readExcel(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.Validation("malformed Excel file", err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.ValidationError("Excel file has no worksheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Validation(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return rows, nil
}

// processRows turns raw string rows into a Table keyed by header
func processRows(rows [][]string) *dataset.Table {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	dataRows := make([]dataset.Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rowData := make(dataset.Row, len(headers))
		for j, header := range headers {
			if j < len(row) {
				rowData[header] = strings.TrimSpace(row[j])
			} else {
				rowData[header] = ""
			}
		}
		dataRows = append(dataRows, rowData)
	}

	return &dataset.Table{Headers: headers, Rows: dataRows}
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ReadAllBytes is a convenience for callers holding the whole file in memory
func ReadAllBytes(ctx context.Context, data []byte, name string, opts ...Option) (*dataset.Table, error) {
	return NewStreamReader(bytes.NewReader(data), name, opts...).ReadTable(ctx)
}
