package geometry

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

// unit square, clockwise
var squareCW = []shp.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 0}, {X: 0, Y: 0}}

// inner square, counter-clockwise
var holeCCW = []shp.Point{{X: 0.25, Y: 0.25}, {X: 0.75, Y: 0.25}, {X: 0.75, Y: 0.75}, {X: 0.25, Y: 0.75}, {X: 0.25, Y: 0.25}}

func offset(pts []shp.Point, dx float64) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[i] = shp.Point{X: p.X + dx, Y: p.Y}
	}
	return out
}

type fixtureRow struct {
	parts  [][]shp.Point
	values []interface{}
}

// writeFixture creates a polygon shapefile named regions.shp under dir.
func writeFixture(t *testing.T, dir string, fields []shp.Field, rows []fixtureRow) string {
	t.Helper()

	path := filepath.Join(dir, "regions.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields(fields))

	for _, r := range rows {
		polygon := shp.Polygon(*shp.NewPolyLine(r.parts))
		n := w.Write(&polygon)
		for j, v := range r.values {
			require.NoError(t, w.WriteAttribute(int(n), j, v))
		}
	}
	w.Close()
	return path
}

func zoneFields() []shp.Field {
	return []shp.Field{
		shp.StringField("FAF_Zone", 3),
		shp.StringField("ShortName", 40),
		shp.NumberField("OBJECTID", 9),
	}
}

func testLayer() *Layer {
	square := orb.Polygon{orb.Ring{{0, 0}, {0, 1}, {1, 1}, {1, 0}, {0, 0}}}
	return &Layer{
		Fields: []Field{
			{Name: "FAF_Zone", Type: FieldCharacter, Size: 3},
			{Name: "ShortName", Type: FieldCharacter, Size: 40},
		},
		Features: []Feature{
			{Attributes: map[string]string{"FAF_Zone": "011", "ShortName": "Birmingham"}, Geometry: square},
			{Attributes: map[string]string{"FAF_Zone": "7", "ShortName": "Seven"}, Geometry: square},
			{Attributes: map[string]string{"FAF_Zone": "999", "ShortName": "Nowhere"}, Geometry: square},
		},
		Projection: `GEOGCS["GCS_WGS_1984"]`,
	}
}
