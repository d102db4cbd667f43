package geometry

import (
	"github.com/paulmach/orb"

	"faftonnage/pkg/contracts/domain"
)

// DBF field types used by the layer
const (
	FieldCharacter byte = 'C'
	FieldNumeric   byte = 'N'
	FieldFloat     byte = 'F'
)

// Field describes one attribute column.
type Field struct {
	Name      string
	Type      byte
	Size      uint8
	Precision uint8
}

// IsNumeric reports whether values of the field are numbers.
func (f Field) IsNumeric() bool {
	return f.Type == FieldNumeric || f.Type == FieldFloat
}

// Feature is one shapefile record. Totals is set by Merge and stays nil for
// rows without a matching zone.
type Feature struct {
	Attributes map[string]string
	Geometry   orb.Geometry
	Totals     *domain.ZoneTotals
}

// Joined reports whether Merge found zone totals for the feature.
func (f *Feature) Joined() bool {
	return f.Totals != nil
}

// Layer is an in-memory polygon shapefile.
type Layer struct {
	Fields   []Field
	Features []Feature
	// Projection holds the .prj WKT of the source, empty when absent.
	Projection string
	// JoinKey is the attribute Merge joined on, empty before a merge.
	JoinKey string
}

// Len returns the number of features.
func (l *Layer) Len() int {
	return len(l.Features)
}

// HasField reports whether the layer carries an attribute named name.
func (l *Layer) HasField(name string) bool {
	for _, f := range l.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Matched counts features that received totals.
func (l *Layer) Matched() int {
	n := 0
	for i := range l.Features {
		if l.Features[i].Joined() {
			n++
		}
	}
	return n
}
