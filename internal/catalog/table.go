package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/suitability-cli/internal/model"
)

// Table is a header row plus data rows read from a tabular file.
type Table struct {
	Header []string
	Rows   [][]string
}

// Options configures ReadTable.
type Options struct {
	SheetName  string // xlsx only
	SheetIndex int    // xlsx only
	Delimiter  rune   // csv only; tsv files default to tab
}

// ReadTable reads a .csv, .tsv or .xlsx file. The first non-empty row is the
// header; header cells are normalized with model.NormalizeKey. Fully blank rows
// are dropped.
func ReadTable(ctx context.Context, path string, opts Options) (*Table, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: open %s", path)
		}
		defer f.Close() //nolint:errcheck

		csvOpts := CSVOptions{Delimiter: opts.Delimiter, LazyQuotes: true, TrimSpace: true}
		if ext == ".tsv" && csvOpts.Delimiter == 0 {
			csvOpts.Delimiter = '\t'
		}
		t, err := readCSVTable(ctx, f, csvOpts)
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: read %s", path)
		}
		return t, nil
	case ".xlsx":
		rows, err := ReadXLSX(path, XLSXOptions{SheetName: opts.SheetName, SheetIndex: opts.SheetIndex})
		if err != nil {
			return nil, eris.Wrapf(err, "catalog: read %s", path)
		}
		return newTable(rows)
	default:
		return nil, eris.Errorf("catalog: unsupported table format %q", ext)
	}
}

// tableBuilder accumulates rows, treating the first non-blank one as the header.
type tableBuilder struct {
	t Table
}

func (b *tableBuilder) add(row []string) {
	if blankRow(row) {
		return
	}
	if b.t.Header == nil {
		b.t.Header = make([]string, len(row))
		for i, h := range row {
			b.t.Header[i] = model.NormalizeKey(h)
		}
		return
	}
	b.t.Rows = append(b.t.Rows, row)
}

func (b *tableBuilder) table() (*Table, error) {
	if b.t.Header == nil {
		return nil, eris.New("catalog: table has no header row")
	}
	return &b.t, nil
}

func newTable(raw [][]string) (*Table, error) {
	var b tableBuilder
	for _, row := range raw {
		b.add(row)
	}
	return b.table()
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Index returns the position of a header column, or -1.
func (t *Table) Index(col string) int {
	col = model.NormalizeKey(col)
	if col == "" {
		return -1
	}
	for i, h := range t.Header {
		if h == col {
			return i
		}
	}
	return -1
}

// Cell returns row[col] trimmed, or "" when the row is short.
func (t *Table) Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Record returns the row as a header-keyed map of non-blank cells.
func (t *Table) Record(row []string) map[string]string {
	rec := make(map[string]string, len(t.Header))
	for i, h := range t.Header {
		if h == "" {
			continue
		}
		if v := t.Cell(row, i); v != "" {
			rec[h] = v
		}
	}
	return rec
}
