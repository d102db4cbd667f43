// Package geocode resolves place names to coordinates with a
// Nominatim-compatible search endpoint. Requests are rate limited; the public
// Nominatim service allows one request per second.
package geocode
