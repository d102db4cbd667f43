// Package metadata reads the FAF5 metadata workbook.
//
// The workbook holds one sheet per lookup table. Two are used here: "Trade
// Type" and "FAF Zone (Domestic)". Columns are located by their header text,
// so extra or reordered columns are tolerated.
package metadata
