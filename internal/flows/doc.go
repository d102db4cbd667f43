// Package flows reads the FAF origin/destination flow table.
//
// The table is a CSV file with a header row. Columns are resolved by name:
// dms_orig, dms_dest and tons_<year>. Only those columns are parsed, so the
// remaining commodity, mode and value columns cost nothing beyond the read.
package flows
