// Package validation checks run inputs on disk before the pipeline starts
// reading them, so a missing boundary shapefile is reported before the
// totals table is written.
package validation
