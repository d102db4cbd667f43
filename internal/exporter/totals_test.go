package exporter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faftonnage/pkg/contracts/domain"
)

func TestWriteZoneTotals(t *testing.T) {
	writer, baseDir := setupTestEnv(t)

	table := []domain.ZoneTotals{
		{Zone: "011", Name: "Birmingham AL", TotalImport: 2.25, TotalExport: 11.5},
		{Zone: "012", Name: "Mobile, AL", TotalImport: 0, TotalExport: 0},
	}

	require.NoError(t, writer.WriteZoneTotals("data/total_tons_short.csv", table))

	content, err := os.ReadFile(filepath.Join(baseDir, "data", "total_tons_short.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"FAF_Zone,Short Description,Total Import,Total Export\n"+
			"011,Birmingham AL,2.25,11.5\n"+
			"012,\"Mobile, AL\",0,0\n",
		string(content))

	back, err := writer.ReadZoneTotals("data/total_tons_short.csv")
	require.NoError(t, err)
	assert.Equal(t, table, back)
}

func TestWriteZoneTotals_ExtraColumns(t *testing.T) {
	writer, baseDir := setupTestEnv(t)

	long := func(v string) []domain.Attribute {
		return []domain.Attribute{{Name: "Long Description", Value: v}}
	}
	table := []domain.ZoneTotals{
		{Zone: "011", Name: "Birmingham AL", TotalImport: 30.75, TotalExport: 4.25,
			Extra: long("Birmingham-Hoover-Talladega, AL CFS Area")},
		{Zone: "020", Name: "Alaska", Extra: long("Alaska")},
	}

	require.NoError(t, writer.WriteZoneTotals("data/total_tons_short.csv", table))

	content, err := os.ReadFile(filepath.Join(baseDir, "data", "total_tons_short.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"FAF_Zone,Short Description,Long Description,Total Import,Total Export\n"+
			"011,Birmingham AL,\"Birmingham-Hoover-Talladega, AL CFS Area\",30.75,4.25\n"+
			"020,Alaska,Alaska,0,0\n",
		string(content))

	back, err := writer.ReadZoneTotals("data/total_tons_short.csv")
	require.NoError(t, err)
	assert.Equal(t, table, back)
}

func TestReadZoneTotals_KeepsPadding(t *testing.T) {
	writer, baseDir := setupTestEnv(t)
	path := filepath.Join(baseDir, "totals.csv")
	content := "\xEF\xBB\xBFTotal Export,FAF_Zone,Total Import,Short Description\n4,007,3,Seven\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := writer.ReadZoneTotals(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.ZoneTotals{
		{Zone: "007", Name: "Seven", TotalImport: 3, TotalExport: 4},
	}, table)
}

func TestReadZoneTotals_Errors(t *testing.T) {
	writer, baseDir := setupTestEnv(t)

	t.Run("missing column", func(t *testing.T) {
		path := filepath.Join(baseDir, "missing.csv")
		require.NoError(t, os.WriteFile(path, []byte("FAF_Zone,Total Import\n011,1\n"), 0644))

		_, err := writer.ReadZoneTotals(path)
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("bad number", func(t *testing.T) {
		path := filepath.Join(baseDir, "bad.csv")
		require.NoError(t, os.WriteFile(path,
			[]byte("FAF_Zone,Short Description,Total Import,Total Export\n011,x,abc,1\n"), 0644))

		_, err := writer.ReadZoneTotals(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := writer.ReadZoneTotals(filepath.Join(baseDir, "nope.csv"))
		assert.Error(t, err)
	})
}
