// Package pipeline runs the regional tonnage workflow end to end:
//
//	metadata -> flows -> aggregate -> totals CSV -> regions -> merge -> shapefile
//
// Each step is a StepState with its own trace span and duration metric. When
// totals reuse is enabled the first four steps are replaced by loading the
// totals CSV written by an earlier run.
//
// The shapefile output path and the presence of every input are checked
// before any step runs, so a bad suffix or a missing file fails the run
// without writing anything.
package pipeline
