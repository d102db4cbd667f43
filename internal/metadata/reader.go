package metadata

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"faftonnage/pkg/contracts/domain"
)

// Sheet names in the FAF5 metadata workbook
const (
	TradeTypeSheet    = "Trade Type"
	DomesticZoneSheet = "FAF Zone (Domestic)"
)

var (
	ErrSheetNotFound  = errors.New("sheet not found")
	ErrColumnNotFound = errors.New("column not found")
)

// Metadata is the subset of the workbook the pipeline uses.
type Metadata struct {
	TradeTypes []domain.TradeType
	Regions    []domain.Region
}

// HasTradeType reports whether code is a known trade type.
func (m *Metadata) HasTradeType(code string) bool {
	for _, tt := range m.TradeTypes {
		if tt.Code == code {
			return true
		}
	}
	return false
}

// header candidates, matched case-insensitively after trimming
var (
	codeHeaders = []string{"numeric label", "code", "faf_zone"}
	nameHeaders = []string{"short description", "description", "long description", "name"}
)

// Load opens the workbook at path and reads the trade type and domestic zone
// sheets.
func Load(path string) (*Metadata, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata workbook: %w", err)
	}
	defer f.Close()

	tradeRows, err := sheetRows(f, TradeTypeSheet)
	if err != nil {
		return nil, err
	}
	zoneRows, err := sheetRows(f, DomesticZoneSheet)
	if err != nil {
		return nil, err
	}

	tradeTypes, err := parseTradeTypes(tradeRows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", TradeTypeSheet, err)
	}
	regions, err := parseRegions(zoneRows)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", DomesticZoneSheet, err)
	}

	slog.Debug("Metadata loaded",
		slog.String("path", path),
		slog.Int("trade_types", len(tradeTypes)),
		slog.Int("regions", len(regions)))

	return &Metadata{TradeTypes: tradeTypes, Regions: regions}, nil
}

// sheetRows returns the rows of the named sheet, matching the name without
// regard to case or surrounding spaces.
func sheetRows(f *excelize.File, name string) ([][]string, error) {
	for _, sh := range f.GetSheetList() {
		if strings.EqualFold(strings.TrimSpace(sh), name) {
			return f.GetRows(sh)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

func parseTradeTypes(rows [][]string) ([]domain.TradeType, error) {
	header, cols, err := findHeader(rows, codeHeaders, nameHeaders)
	if err != nil {
		return nil, err
	}

	var out []domain.TradeType
	for _, row := range rows[header+1:] {
		code := cell(row, cols[0])
		if code == "" {
			continue
		}
		out = append(out, domain.TradeType{
			Code:        strings.TrimSuffix(code, ".0"),
			Description: cell(row, cols[1]),
		})
	}
	return out, nil
}

func parseRegions(rows [][]string) ([]domain.Region, error) {
	header, cols, err := findHeader(rows, codeHeaders, nameHeaders)
	if err != nil {
		return nil, err
	}

	// every other labelled column rides along with the region
	var extra []int
	for j, h := range rows[header] {
		if j != cols[0] && j != cols[1] && strings.TrimSpace(h) != "" {
			extra = append(extra, j)
		}
	}

	var out []domain.Region
	for _, row := range rows[header+1:] {
		id := cell(row, cols[0])
		if id == "" {
			continue
		}
		region := domain.Region{
			ID:   id,
			Name: cell(row, cols[1]),
		}
		for _, j := range extra {
			region.Extra = append(region.Extra, domain.Attribute{
				Name:  strings.TrimSpace(rows[header][j]),
				Value: cell(row, j),
			})
		}
		out = append(out, region)
	}
	return out, nil
}

// findHeader locates the first row that contains a code column. It returns
// the row index and, for each candidate group, the matched column index. The
// name column falls back to the column after the code column.
func findHeader(rows [][]string, code, name []string) (int, [2]int, error) {
	for i, row := range rows {
		codeCol := matchColumn(row, code)
		if codeCol < 0 {
			continue
		}
		nameCol := matchColumn(row, name)
		if nameCol < 0 {
			nameCol = codeCol + 1
		}
		return i, [2]int{codeCol, nameCol}, nil
	}
	return 0, [2]int{}, fmt.Errorf("%w: expected one of %v", ErrColumnNotFound, code)
}

// matchColumn returns the index of the first header in row matching any
// candidate, honoring candidate priority.
func matchColumn(row []string, candidates []string) int {
	for _, want := range candidates {
		for j, h := range row {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return j
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
