package geometry

import (
	"strconv"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"

	"faftonnage/pkg/contracts/domain"
)

// DBF limits
const (
	maxFieldNameLen = 10
	maxCharSize     = 254
	totalsSize      = 24
	totalsPrecision = 6
)

// column is one DBF column of an output shapefile.
type column struct {
	name  string
	field Field
	value func(*Feature) interface{}
}

// cell returns the value of c for ft, with character values cut to the
// field size.
func (c column) cell(ft *Feature) interface{} {
	v := c.value(ft)
	if s, ok := v.(string); ok && c.field.Type == FieldCharacter && c.field.Size > 0 {
		return fitText(s, int(c.field.Size))
	}
	return v
}

func (c column) shpField() shp.Field {
	var f shp.Field
	copy(f.Name[:], c.name)
	f.Fieldtype = c.field.Type
	f.Size = c.field.Size
	f.Precision = c.field.Precision
	return f
}

// dbfColumns lists the source attributes followed, for a merged layer, by
// the joined totals. Names are cut to the DBF limit and made unique.
func dbfColumns(layer *Layer) []column {
	used := make(map[string]bool)
	var cols []column

	for _, f := range layer.Fields {
		name := f.Name
		cols = append(cols, column{
			name:  uniqueName(f.Name, used),
			field: f,
			value: func(ft *Feature) interface{} { return ft.Attributes[name] },
		})
	}

	if layer.JoinKey == "" {
		return cols
	}

	cols = append(cols, column{
		name:  uniqueName(domain.ZoneNameColumn, used),
		field: Field{Name: domain.ZoneNameColumn, Type: FieldCharacter, Size: nameSize(layer)},
		value: func(ft *Feature) interface{} {
			if ft.Totals == nil {
				return ""
			}
			return ft.Totals.Name
		},
	})

	for _, extra := range extraNames(layer) {
		label := extra
		cols = append(cols, column{
			name:  uniqueName(label, used),
			field: Field{Name: label, Type: FieldCharacter, Size: extraSize(layer, label)},
			value: func(ft *Feature) interface{} {
				if ft.Totals == nil {
					return ""
				}
				v, _ := domain.AttributeValue(ft.Totals.Extra, label)
				return v
			},
		})
	}

	cols = append(cols,
		totalsColumn(domain.ImportColumn, used, func(t *domain.ZoneTotals) float64 { return t.TotalImport }),
		totalsColumn(domain.ExportColumn, used, func(t *domain.ZoneTotals) float64 { return t.TotalExport }),
	)
	return cols
}

func totalsColumn(label string, used map[string]bool, get func(*domain.ZoneTotals) float64) column {
	return column{
		name:  uniqueName(label, used),
		field: Field{Name: label, Type: FieldNumeric, Size: totalsSize, Precision: totalsPrecision},
		value: func(ft *Feature) interface{} {
			if ft.Totals == nil {
				return ""
			}
			return get(ft.Totals)
		},
	}
}

// nameSize fits the longest joined zone name.
func nameSize(layer *Layer) uint8 {
	return charSize(layer, func(t *domain.ZoneTotals) string { return t.Name })
}

// extraSize fits the longest value of a joined extra column.
func extraSize(layer *Layer, label string) uint8 {
	return charSize(layer, func(t *domain.ZoneTotals) string {
		v, _ := domain.AttributeValue(t.Extra, label)
		return v
	})
}

func charSize(layer *Layer, get func(*domain.ZoneTotals) string) uint8 {
	size := 1
	for i := range layer.Features {
		if t := layer.Features[i].Totals; t != nil && len(get(t)) > size {
			size = len(get(t))
		}
	}
	if size > maxCharSize {
		size = maxCharSize
	}
	return uint8(size)
}

// extraNames lists the extra columns of the joined totals in first-seen
// order.
func extraNames(layer *Layer) []string {
	var table []domain.ZoneTotals
	for i := range layer.Features {
		if t := layer.Features[i].Totals; t != nil {
			table = append(table, *t)
		}
	}
	return domain.ExtraNames(table)
}

// uniqueName truncates name to the DBF limit, replacing trailing characters
// with a counter on collision.
func uniqueName(name string, used map[string]bool) string {
	base := fitText(name, maxFieldNameLen)
	candidate := base
	for n := 1; used[candidate]; n++ {
		suffix := strconv.Itoa(n)
		candidate = fitText(base, maxFieldNameLen-len(suffix)) + suffix
	}
	used[candidate] = true
	return candidate
}

// fitText cuts s to at most limit bytes without splitting a rune.
func fitText(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// DBFName returns the column name a joined field gets in a shapefile of
// layer.
func DBFName(layer *Layer, label string) string {
	for _, c := range dbfColumns(layer) {
		if c.field.Name == label {
			return c.name
		}
	}
	return ""
}
