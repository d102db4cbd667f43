package domain

// ZoneKey is the canonical column name shared by the totals table and the
// region boundary shapefile.
const ZoneKey = "FAF_Zone"

// Columns the totals table adds to the region table
const (
	ZoneNameColumn = "Short Description"
	ImportColumn   = "Total Import"
	ExportColumn   = "Total Export"
)

// Region is a domestic FAF zone as listed in the metadata workbook. Extra
// holds the remaining columns of the zone sheet in sheet order.
type Region struct {
	ID    string      `json:"id" validate:"required"`
	Name  string      `json:"name"`
	Extra []Attribute `json:"extra,omitempty"`
}

// Attribute is a named metadata value carried alongside a region.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AttributeValue returns the value of the named attribute.
func AttributeValue(attrs []Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// TradeType is one row of the metadata "Trade Type" sheet.
type TradeType struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ZoneTotals is a region annotated with its aggregate tonnage.
// Zone is always the zero-padded 3 character code.
type ZoneTotals struct {
	Zone        string  `json:"FAF_Zone" csv:"FAF_Zone"`
	Name        string  `json:"name" csv:"Short Description"`
	TotalImport float64 `json:"total_import" csv:"Total Import"`
	TotalExport float64 `json:"total_export" csv:"Total Export"`
	// Extra columns sit between the name and the totals in the table.
	Extra []Attribute `json:"extra,omitempty" csv:"-"`
}

// ExtraNames returns the extra column names of table in first-seen order.
func ExtraNames(table []ZoneTotals) []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range table {
		for _, a := range t.Extra {
			if !seen[a.Name] {
				seen[a.Name] = true
				names = append(names, a.Name)
			}
		}
	}
	return names
}
