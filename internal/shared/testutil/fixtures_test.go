package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteDataset(t *testing.T) {
	base := t.TempDir()
	paths := WriteDataset(t, base)

	assert.Equal(t, base, paths.BaseDir)
	assert.FileExists(t, paths.MetadataFile)
	assert.FileExists(t, paths.FlowsFile)
	assert.FileExists(t, paths.RegionsShapefile)
	assert.FileExists(t, filepath.Join(filepath.Dir(paths.RegionsShapefile), "Freight_Analysis_Framework_(FAF5)_Regions.prj"))

	wb, err := excelize.OpenFile(paths.MetadataFile)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows(DomesticZoneSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 5)

	r, err := shp.Open(paths.RegionsShapefile)
	require.NoError(t, err)
	defer r.Close()

	var zones []string
	for r.Next() {
		n, _ := r.Shape()
		zones = append(zones, r.ReadAttribute(n, 0))
	}
	assert.Equal(t, RegionZones, zones)

	content, err := os.ReadFile(paths.FlowsFile)
	require.NoError(t, err)
	assert.Equal(t, FlowTable, string(content))
}
