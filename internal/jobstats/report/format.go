package report

import (
	"encoding/csv"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/G-Research/jobstats/internal/common/util"
)

// Format selects how a Table is written out.
type Format string

const (
	FormatCsv   Format = "csv"
	FormatTable Format = "table"
	FormatXlsx  Format = "xlsx"
)

// SheetName is the name of the worksheet holding the report in xlsx output.
const SheetName = "jobs"

var validFormats = map[Format]bool{
	FormatCsv:   true,
	FormatTable: true,
	FormatXlsx:  true,
}

// ParseFormat converts a user supplied string into a Format. The empty string selects csv.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatCsv, nil
	}
	if !validFormats[f] {
		return "", errors.Errorf("unknown report format %q; valid formats are csv, table and xlsx", s)
	}
	return f, nil
}

// Write writes table to out in the given format.
func Write(out io.Writer, table *Table, format Format) error {
	switch format {
	case FormatCsv, "":
		return WriteCSV(out, table)
	case FormatTable:
		return WriteTable(out, table)
	case FormatXlsx:
		return WriteXLSX(out, table)
	default:
		return errors.Errorf("unknown report format %q", format)
	}
}

// WriteCSV writes a header row followed by one record per job.
// Records end in CRLF on Windows and LF elsewhere.
func WriteCSV(out io.Writer, table *Table) error {
	w := csv.NewWriter(out)
	w.UseCRLF = runtime.GOOS == "windows"
	if err := w.Write(table.Header()); err != nil {
		return errors.WithStack(err)
	}
	if err := w.WriteAll(table.Rows); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// WriteTable writes the report as tab aligned columns for reading in a terminal.
func WriteTable(out io.Writer, table *Table) error {
	tsb := util.NewTabbedStringBuilder(1, 1, 2, ' ', 0)
	tsb.Row(table.Header()...)
	for _, r := range table.Rows {
		tsb.Row(r...)
	}
	_, err := io.WriteString(out, tsb.String())
	return errors.WithStack(err)
}

// WriteXLSX writes the report as a workbook with a single sheet. Numeric columns are stored as numbers
// and unset values are left as blank cells.
func WriteXLSX(out io.Writer, table *Table) (err error) {
	f := excelize.NewFile()
	defer closeInto(f, "workbook", &err)

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return errors.WithStack(err)
	}
	header := table.Header()
	headerCells := make([]interface{}, len(header))
	for i, name := range header {
		headerCells[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &headerCells); err != nil {
		return errors.WithStack(err)
	}

	for i, r := range table.Rows {
		for j, value := range r {
			if value == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return errors.WithStack(err)
			}
			if err := f.SetCellValue(SheetName, cell, cellValue(table.Columns[j], value)); err != nil {
				return errors.Wrapf(err, "error writing cell %s", cell)
			}
		}
	}

	if err := f.Write(out); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// closeInto closes c and stores any error in err, unless err already holds an earlier one.
func closeInto(c io.Closer, name string, err *error) {
	if closeErr := c.Close(); closeErr != nil && *err == nil {
		*err = errors.Wrapf(closeErr, "error closing %s", name)
	}
}

func cellValue(column Column, value string) interface{} {
	if !column.Numeric {
		return value
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}
