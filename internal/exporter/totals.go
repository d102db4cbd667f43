package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"faftonnage/pkg/contracts/domain"
)

// Column headers of the totals table
const (
	HeaderName   = domain.ZoneNameColumn
	HeaderImport = domain.ImportColumn
	HeaderExport = domain.ExportColumn
)

var ErrMissingColumn = errors.New("totals table is missing a column")

// TotalsHeaders returns the header row of the totals table. Extra region
// columns sit between the name and the totals.
func TotalsHeaders(extra ...string) []string {
	headers := []string{domain.ZoneKey, HeaderName}
	headers = append(headers, extra...)
	return append(headers, HeaderImport, HeaderExport)
}

// WriteZoneTotals writes the annotated region table as CSV, one row per
// region and no index column.
func (w *CSVWriter) WriteZoneTotals(filePath string, table []domain.ZoneTotals) error {
	extra := domain.ExtraNames(table)

	records := make([][]string, 0, len(table))
	for _, t := range table {
		row := []string{t.Zone, t.Name}
		for _, name := range extra {
			v, _ := domain.AttributeValue(t.Extra, name)
			row = append(row, v)
		}
		records = append(records, append(row,
			formatFloat(t.TotalImport),
			formatFloat(t.TotalExport),
		))
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers: TotalsHeaders(extra...),
		Records: records,
	})
}

// ReadZoneTotals loads a totals table written by WriteZoneTotals. Zone codes
// are kept as strings so their zero padding survives. Columns other than the
// key, name and totals come back as Extra in file order.
func (w *CSVWriter) ReadZoneTotals(filePath string) ([]domain.ZoneTotals, error) {
	f, err := os.Open(w.resolvePath(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open totals table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		header[i] = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		pos[header[i]] = i
	}
	cols := make([]int, 0, 4)
	known := make(map[int]bool, 4)
	for _, name := range TotalsHeaders() {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
		cols = append(cols, i)
		known[i] = true
	}
	var extra []int
	for i, h := range header {
		if !known[i] && h != "" {
			extra = append(extra, i)
		}
	}

	var table []domain.ZoneTotals
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		imp, err := parseFloat(row[cols[2]])
		if err != nil {
			return nil, fmt.Errorf("zone %s: invalid %s: %w", row[cols[0]], HeaderImport, err)
		}
		exp, err := parseFloat(row[cols[3]])
		if err != nil {
			return nil, fmt.Errorf("zone %s: invalid %s: %w", row[cols[0]], HeaderExport, err)
		}

		zt := domain.ZoneTotals{
			Zone:        row[cols[0]],
			Name:        row[cols[1]],
			TotalImport: imp,
			TotalExport: exp,
		}
		for _, i := range extra {
			zt.Extra = append(zt.Extra, domain.Attribute{Name: header[i], Value: row[i]})
		}
		table = append(table, zt)
	}
	return table, nil
}
