package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"faftonnage/internal/config"
)

// Sheet names of the metadata workbook fixture
const (
	TradeTypeSheet    = "Trade Type"
	DomesticZoneSheet = "FAF Zone (Domestic)"
)

// FlowTable is a small flow table. For tons_2020 the expected totals are
//
//	011 import 30.75 export 4.25
//	012 import 3.5   export 30
//	019 import 0     export 4
//	020 import 0     export 0
//
// Destination 451 matches no region.
const FlowTable = `fr_orig,dms_orig,dms_dest,fr_dest,trade_type,tons_2018,tons_2019,tons_2020
,11,12,,1,1.5,2.5,3.5
,12,11,,1,10,20,30
801,11,11,,2,0.25,0.5,0.75
,19,451,,1,1,2,4
`

// MetadataSheets returns the rows of the metadata workbook fixture.
func MetadataSheets() map[string][][]any {
	return map[string][][]any{
		TradeTypeSheet: {
			{"Numeric Label", "Description"},
			{1, "Domestic Only"},
			{2, "Import"},
			{3, "Export"},
		},
		DomesticZoneSheet: {
			{"Numeric Label", "Short Description", "Long Description"},
			{11, "Birmingham AL", "Birmingham-Hoover-Talladega, AL CFS Area"},
			{12, "Mobile AL", "Mobile-Daphne-Fairhope, AL CFS Area"},
			{19, "Rest of AL", "Remainder of Alabama"},
			{20, "Alaska", "Alaska"},
		},
	}
}

// RegionZones are the FAF_Zone values of the shapefile fixture, in order.
// 999 has no totals.
var RegionZones = []string{"011", "012", "019", "020", "999"}

// WriteWorkbook saves a workbook whose sheets hold the given rows.
func WriteWorkbook(t *testing.T, path string, sheets map[string][][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(name, cell, &r))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, f.SaveAs(path))
}

// WriteRegionShapefile writes one unit square per zone, side by side, with
// FAF_Zone and ShortName attributes and a WGS 84 .prj.
func WriteRegionShapefile(t *testing.T, path string, zones []string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)

	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("FAF_Zone", 3),
		shp.StringField("ShortName", 20),
	}))

	for i, zone := range zones {
		x := float64(i)
		polygon := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{
			{X: x, Y: 0}, {X: x, Y: 1}, {X: x + 1, Y: 1}, {X: x + 1, Y: 0}, {X: x, Y: 0},
		}}))
		n := int(w.Write(&polygon))
		require.NoError(t, w.WriteAttribute(n, 0, zone))
		require.NoError(t, w.WriteAttribute(n, 1, "Zone "+zone))
	}
	w.Close()

	prj := path[:len(path)-len(filepath.Ext(path))] + ".prj"
	require.NoError(t, os.WriteFile(prj, []byte(`GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.0174532925199433]]`), 0644))
}

// WriteDataset lays out the metadata workbook, flow table and region
// shapefile fixtures under baseDir at their default locations and returns
// the resolved paths.
func WriteDataset(t *testing.T, baseDir string) *config.Paths {
	t.Helper()

	cfg := config.Default().Paths
	cfg.BaseDir = baseDir
	paths := config.NewPaths(cfg)

	WriteWorkbook(t, paths.MetadataFile, MetadataSheets())

	require.NoError(t, os.MkdirAll(filepath.Dir(paths.FlowsFile), 0755))
	require.NoError(t, os.WriteFile(paths.FlowsFile, []byte(FlowTable), 0644))

	WriteRegionShapefile(t, paths.RegionsShapefile, RegionZones)
	return paths
}
