package geometry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faftonnage/pkg/contracts/domain"
)

func TestFeatureCollection(t *testing.T) {
	layer := testLayer()
	layer.Fields = append(layer.Fields, Field{Name: "OBJECTID", Type: FieldNumeric, Size: 9})
	layer.Features[0].Attributes["OBJECTID"] = "12"

	merged, err := Merge(layer, []domain.ZoneTotals{
		{Zone: "011", Name: "Birmingham AL", TotalImport: 2.5, TotalExport: 1},
	}, domain.ZoneKey)
	require.NoError(t, err)

	fc := FeatureCollection(merged)
	require.Len(t, fc.Features, 3)

	first := fc.Features[0].Properties
	assert.Equal(t, "011", first["FAF_Zone"])
	assert.Equal(t, 12.0, first["OBJECTID"])
	assert.Equal(t, "Birmingham AL", first[domain.ZoneNameColumn])
	assert.Equal(t, 2.5, first[domain.ImportColumn])

	last := fc.Features[2].Properties
	assert.Nil(t, last[domain.ImportColumn])
	assert.Nil(t, last[domain.ExportColumn])
	assert.Nil(t, last["OBJECTID"])
	assert.Contains(t, last, domain.ImportColumn)
}

func TestFeatureCollection_ExtraColumns(t *testing.T) {
	merged, err := Merge(testLayer(), []domain.ZoneTotals{
		{Zone: "011", Name: "Birmingham AL", Extra: []domain.Attribute{
			{Name: "Long Description", Value: "Birmingham-Hoover-Talladega, AL CFS Area"},
		}},
	}, domain.ZoneKey)
	require.NoError(t, err)

	fc := FeatureCollection(merged)
	require.Len(t, fc.Features, 3)
	assert.Equal(t, "Birmingham-Hoover-Talladega, AL CFS Area", fc.Features[0].Properties["Long Description"])
	assert.Contains(t, fc.Features[2].Properties, "Long Description")
	assert.Nil(t, fc.Features[2].Properties["Long Description"])
}

func TestFeatureCollection_Unmerged(t *testing.T) {
	fc := FeatureCollection(testLayer())
	require.Len(t, fc.Features, 3)
	assert.NotContains(t, fc.Features[0].Properties, domain.ImportColumn)
}

func TestWriteGeoJSON(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "web", "regions.geojson")

	merged, err := Merge(testLayer(), []domain.ZoneTotals{{Zone: "011", TotalImport: 4}}, domain.ZoneKey)
	require.NoError(t, err)
	require.NoError(t, WriteGeoJSON(out, merged))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type string `json:"type"`
			} `json:"geometry"`
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 3)
	assert.Equal(t, "Polygon", doc.Features[0].Geometry.Type)
	assert.Equal(t, 4.0, doc.Features[0].Properties[domain.ImportColumn])
	assert.Nil(t, doc.Features[1].Properties[domain.ImportColumn])
}
