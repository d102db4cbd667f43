// Package geometry reads region boundary shapefiles, left-joins zone totals
// onto them and writes the joined layer back out as a shapefile or GeoJSON.
//
// Polygons are held as github.com/paulmach/orb geometries. Shapefile rings are
// decoded with the ESRI winding convention: clockwise rings are outer shells
// and counter-clockwise rings are holes of the preceding shell.
package geometry
