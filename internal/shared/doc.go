// Package shared holds helpers used across packages. The testutil
// subpackage provides a capturing slog handler and on-disk fixtures of the
// FAF5 inputs: a metadata workbook, a flow table and a region shapefile.
//
// Example usage:
//
//	func TestRun(t *testing.T) {
//	    paths := testutil.WriteDataset(t, t.TempDir())
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
