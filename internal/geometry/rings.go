package geometry

import (
	"fmt"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// partsToGeometry groups shapefile parts into polygons. A clockwise ring opens
// a new polygon, a counter-clockwise ring is a hole of the current one.
func partsToGeometry(parts []int32, points []shp.Point) orb.Geometry {
	if len(points) == 0 {
		return nil
	}

	var polys orb.MultiPolygon
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || int(end) > len(points) {
			continue
		}

		ring := make(orb.Ring, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, orb.Point{p.X, p.Y})
		}

		// a leading hole has no shell to attach to
		if ring.Orientation() == orb.CW || len(polys) == 0 {
			polys = append(polys, orb.Polygon{ring})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], ring)
	}

	switch len(polys) {
	case 0:
		return nil
	case 1:
		return polys[0]
	default:
		return polys
	}
}

// geometryToParts flattens a polygon geometry into shapefile parts, rewinding
// shells clockwise and holes counter-clockwise. Input rings are not modified.
func geometryToParts(g orb.Geometry) ([][]shp.Point, error) {
	var polys orb.MultiPolygon
	switch v := g.(type) {
	case orb.Polygon:
		polys = orb.MultiPolygon{v}
	case orb.MultiPolygon:
		polys = v
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedShape, g.GeoJSONType())
	}

	var parts [][]shp.Point
	for _, poly := range polys {
		for i, ring := range poly {
			want := orb.CCW
			if i == 0 {
				want = orb.CW
			}
			parts = append(parts, ringPoints(ring, want))
		}
	}
	return parts, nil
}

func ringPoints(ring orb.Ring, want orb.Orientation) []shp.Point {
	pts := make([]shp.Point, len(ring), len(ring)+1)
	reverse := len(ring) > 2 && ring.Orientation() != want
	for i, p := range ring {
		j := i
		if reverse {
			j = len(ring) - 1 - i
		}
		pts[j] = shp.Point{X: p[0], Y: p[1]}
	}
	if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
		pts = append(pts, pts[0])
	}
	return pts
}
