package flows

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"faftonnage/pkg/contracts/domain"
)

// Column names of the FAF5 flow table
const (
	OriginColumn      = "dms_orig"
	DestinationColumn = "dms_dest"
	TradeTypeColumn   = "trade_type"
)

var ErrColumnNotFound = errors.New("column not found")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TonsColumn returns the tonnage column name for year, e.g. tons_2020.
func TonsColumn(year int) string {
	return fmt.Sprintf("tons_%d", year)
}

// ReadOptions configures Read
type ReadOptions struct {
	// Year selects the tons_<Year> column.
	Year int
	// Limit stops after this many data rows; zero reads all rows.
	Limit int
	// TradeType keeps only rows whose trade_type equals it when non-empty.
	TradeType string
}

// Read parses the flow table at path into flow records.
func Read(path string, opts ReadOptions) ([]domain.FlowRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow table: %w", err)
	}
	defer f.Close()

	records, err := Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	slog.Debug("Flow table read",
		slog.String("path", path),
		slog.Int("records", len(records)),
		slog.String("tons_column", TonsColumn(opts.Year)))

	return records, nil
}

// Decode parses flow records from r.
func Decode(r io.Reader, opts ReadOptions) ([]domain.FlowRecord, error) {
	cr := newCSVReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	want := []string{OriginColumn, DestinationColumn, TonsColumn(opts.Year)}
	if opts.TradeType != "" {
		want = append(want, TradeTypeColumn)
	}
	idx, err := columnIndexes(header, want)
	if err != nil {
		return nil, err
	}
	origCol, destCol, tonsCol := idx[0], idx[1], idx[2]

	var records []domain.FlowRecord
	for rows := 0; opts.Limit == 0 || rows < opts.Limit; rows++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if opts.TradeType != "" && strings.TrimSpace(row[idx[3]]) != opts.TradeType {
			continue
		}

		tons, err := parseTons(row[tonsCol])
		if err != nil {
			line, _ := cr.FieldPos(tonsCol)
			return nil, fmt.Errorf("line %d: invalid %s value %q: %w", line, want[2], row[tonsCol], err)
		}

		records = append(records, domain.FlowRecord{
			Origin:      strings.TrimSpace(row[origCol]),
			Destination: strings.TrimSpace(row[destCol]),
			Tons:        tons,
		})
	}
	return records, nil
}

// ReadColumns returns the header-filtered table: the named columns, in the
// order given, for every data row.
func ReadColumns(path string, columns []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open flow table: %w", err)
	}
	defer f.Close()

	cr := newCSVReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx, err := columnIndexes(header, columns)
	if err != nil {
		return nil, err
	}

	var out [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		sel := make([]string, len(idx))
		for i, j := range idx {
			sel[i] = row[j]
		}
		out = append(out, sel)
	}
	return out, nil
}

// newCSVReader returns a reader over r with any UTF-8 BOM removed.
func newCSVReader(r io.Reader) *csv.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		br.Discard(len(utf8BOM))
	}
	cr := csv.NewReader(br)
	cr.ReuseRecord = true
	return cr
}

func columnIndexes(header, columns []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}

	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := pos[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, c)
		}
		idx[i] = j
	}
	return idx, nil
}

// parseTons parses a tonnage cell. Empty cells count as zero.
func parseTons(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
