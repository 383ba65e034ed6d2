package render

import (
	"sort"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// RepresentativePoint returns a point guaranteed to lie inside an areal geometry, used to
// anchor labels. The centroid is used when it falls inside; otherwise a horizontal
// scan line through the middle of the largest polygon picks the midpoint of its widest
// interior run.
func RepresentativePoint(g geom.T) (geom.Coord, bool) {
	if g == nil || g.Empty() {
		return nil, false
	}

	var polys []*geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		polys = append(polys, t)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if p := t.Polygon(i); !p.Empty() {
				polys = append(polys, p)
			}
		}
	default:
		return nil, false
	}
	if len(polys) == 0 {
		return nil, false
	}

	if c, err := xy.Centroid(g); err == nil && len(c) >= 2 {
		pt := geom.Coord{c[0], c[1]}
		for _, p := range polys {
			if containsPoint(p, pt) {
				return pt, true
			}
		}
	}

	best := polys[0]
	for _, p := range polys[1:] {
		if p.Area() > best.Area() {
			best = p
		}
	}
	return scanlinePoint(best)
}

func containsPoint(p *geom.Polygon, pt geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(p.Layout(), pt, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), pt, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

func scanlinePoint(p *geom.Polygon) (geom.Coord, bool) {
	b := p.Bounds()
	y := (b.Min(1) + b.Max(1)) / 2
	stride := p.Stride()

	var xs []float64
	for r := 0; r < p.NumLinearRings(); r++ {
		flat := p.LinearRing(r).FlatCoords()
		for i := 0; i+2*stride <= len(flat); i += stride {
			x1, y1 := flat[i], flat[i+1]
			x2, y2 := flat[i+stride], flat[i+stride+1]
			if (y1 > y) != (y2 > y) {
				xs = append(xs, x1+(y-y1)*(x2-x1)/(y2-y1))
			}
		}
	}
	sort.Float64s(xs)

	bestWidth := -1.0
	var mid float64
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > bestWidth {
			bestWidth = w
			mid = (xs[i] + xs[i+1]) / 2
		}
	}
	if bestWidth < 0 {
		flat := p.FlatCoords()
		if len(flat) < 2 {
			return nil, false
		}
		return geom.Coord{flat[0], flat[1]}, true
	}
	return geom.Coord{mid, y}, true
}
