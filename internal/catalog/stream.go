// Package catalog reads species catalogs, parameter overrides and farm
// profiles from CSV, TSV, XLSX and YAML files.
package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// CSVOptions configures the streaming delimited-text parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
	SkipBlank  bool // drop rows whose cells are all blank
}

func newCSVReader(r io.Reader, opts CSVOptions) *csv.Reader {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.Comment = opts.Comment
	cr.LazyQuotes = opts.LazyQuotes
	cr.FieldsPerRecord = -1
	return cr
}

// StreamCSV parses delimited rows on a goroutine and delivers them in order.
// The row channel closes when input ends; the error channel then yields at
// most one parse or cancellation error.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rows := make(chan []string, 64)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(rows)
		if err := streamRows(ctx, newCSVReader(r, opts), opts, rows); err != nil {
			errc <- err
		}
	}()
	return rows, errc
}

func streamRows(ctx context.Context, cr *csv.Reader, opts CSVOptions, rows chan<- []string) error {
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "catalog: csv cancelled")
		}
		rec, err := cr.Read()
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return eris.Wrapf(err, "catalog: csv record %d", line)
		}
		if opts.TrimSpace {
			for i := range rec {
				rec[i] = strings.TrimSpace(rec[i])
			}
		}
		if opts.SkipBlank && blankRow(rec) {
			continue
		}
		select {
		case rows <- rec:
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "catalog: csv cancelled")
		}
	}
}

// readCSVTable streams r into a Table, taking the first non-blank row as
// the header.
func readCSVTable(ctx context.Context, r io.Reader, opts CSVOptions) (*Table, error) {
	opts.SkipBlank = true
	rows, errc := StreamCSV(ctx, r, opts)

	var b tableBuilder
	for row := range rows {
		b.add(row)
	}
	if err := <-errc; err != nil {
		return nil, err
	}
	return b.table()
}

// XLSXOptions selects the worksheet to read.
type XLSXOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
}

// ReadXLSX reads a worksheet and returns all rows as string slices.
func ReadXLSX(path string, opts XLSXOptions) ([][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: xlsx open file")
	}

	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		rows = append(rows, rowToStrings(row))
	}
	return rows, nil
}

func getSheet(f *xlsx.File, opts XLSXOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("catalog: xlsx sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex < 0 || opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("catalog: xlsx sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}
	return f.Sheets[opts.SheetIndex], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
