// Package exporter writes the tabular outputs of a run.
//
// CSVWriter is the core writer: headers, optional UTF-8 BOM for Excel, append
// mode, and creation of the target directory. WriteZoneTotals and
// ReadZoneTotals persist the per-region totals table so a later run can skip
// aggregation and go straight to the geometry join.
//
//	w := exporter.NewCSVWriter(paths)
//	err := w.WriteZoneTotals(paths.TotalsCSV, result.Table)
package exporter
