package geojson

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ToWKT converts a geometry to its WKT representation.
// Point, LineString, Polygon, and MultiPolygon are supported.
func ToWKT(g *Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("geometry is nil")
	}

	switch g.Type {
	case "Point":
		p, err := g.Point()
		if err != nil {
			return "", err
		}
		return "POINT(" + formatPosition(p) + ")", nil
	case "LineString":
		line, err := g.LineString()
		if err != nil {
			return "", err
		}
		s, err := formatRing(line)
		if err != nil {
			return "", err
		}
		return "LINESTRING" + s, nil
	case "Polygon":
		rings, err := g.Polygon()
		if err != nil {
			return "", err
		}
		s, err := formatRings(rings)
		if err != nil {
			return "", err
		}
		return "POLYGON" + s, nil
	case "MultiPolygon":
		polys, err := g.MultiPolygon()
		if err != nil {
			return "", err
		}
		parts := make([]string, len(polys))
		for i, rings := range polys {
			s, err := formatRings(rings)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "MULTIPOLYGON(" + strings.Join(parts, ",") + ")", nil
	default:
		return "", fmt.Errorf("unsupported geometry type for WKT conversion: %s", g.Type)
	}
}

func formatPosition(p []float64) string {
	return strconv.FormatFloat(p[0], 'f', -1, 64) + " " + strconv.FormatFloat(p[1], 'f', -1, 64)
}

func formatRing(ring [][]float64) (string, error) {
	points := make([]string, len(ring))
	for i, p := range ring {
		if len(p) < 2 {
			return "", fmt.Errorf("invalid position: expected at least 2 coordinates")
		}
		points[i] = formatPosition(p)
	}
	return "(" + strings.Join(points, ",") + ")", nil
}

func formatRings(rings [][][]float64) (string, error) {
	parts := make([]string, len(rings))
	for i, ring := range rings {
		s, err := formatRing(ring)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, ",") + ")", nil
}

// FromWKT parses a WKT string into a geometry.
// Point, LineString, Polygon, and MultiPolygon are supported.
func FromWKT(wkt string) (*Geometry, error) {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return nil, fmt.Errorf("empty WKT string")
	}

	upper := strings.ToUpper(wkt)
	switch {
	case strings.HasPrefix(upper, "MULTIPOLYGON"):
		body, err := wktBody(wkt)
		if err != nil {
			return nil, err
		}
		var polys [][][][]float64
		for _, part := range splitGroups(body) {
			rings, err := parseRings(part)
			if err != nil {
				return nil, err
			}
			polys = append(polys, rings)
		}
		return newGeometry("MultiPolygon", polys)
	case strings.HasPrefix(upper, "POLYGON"):
		body, err := wktBody(wkt)
		if err != nil {
			return nil, err
		}
		rings, err := parseRings("(" + body + ")")
		if err != nil {
			return nil, err
		}
		return newGeometry("Polygon", rings)
	case strings.HasPrefix(upper, "LINESTRING"):
		body, err := wktBody(wkt)
		if err != nil {
			return nil, err
		}
		ring, err := parseRing(body)
		if err != nil {
			return nil, err
		}
		return newGeometry("LineString", ring)
	case strings.HasPrefix(upper, "POINT"):
		body, err := wktBody(wkt)
		if err != nil {
			return nil, err
		}
		p, err := parsePosition(body)
		if err != nil {
			return nil, err
		}
		return newGeometry("Point", p)
	default:
		return nil, fmt.Errorf("unsupported WKT geometry type")
	}
}

func newGeometry(geomType string, coords any) (*Geometry, error) {
	raw, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s coordinates: %w", geomType, err)
	}
	return &Geometry{Type: geomType, Coordinates: raw}, nil
}

// wktBody returns the text between the outermost parentheses.
func wktBody(wkt string) (string, error) {
	start := strings.Index(wkt, "(")
	end := strings.LastIndex(wkt, ")")
	if start == -1 || end == -1 || start >= end {
		return "", fmt.Errorf("invalid WKT: unbalanced parentheses")
	}
	return strings.TrimSpace(wkt[start+1 : end]), nil
}

// splitGroups splits a WKT body into its top-level parenthesised groups,
// stripping one level of parentheses from each.
func splitGroups(s string) []string {
	var groups []string
	depth, start := 0, -1
	for i, r := range s {
		switch r {
		case '(':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case ')':
			depth--
			if depth == 0 && start >= 0 {
				groups = append(groups, s[start:i])
				start = -1
			}
		}
	}
	return groups
}

func parsePosition(s string) ([]float64, error) {
	var coords []float64
	for _, f := range strings.Fields(s) {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q: %w", f, err)
		}
		coords = append(coords, v)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("position requires at least 2 coordinates, got %d", len(coords))
	}
	return coords, nil
}

func parseRing(s string) ([][]float64, error) {
	var ring [][]float64
	for _, part := range strings.Split(s, ",") {
		p, err := parsePosition(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ring = append(ring, p)
	}
	return ring, nil
}

func parseRings(s string) ([][][]float64, error) {
	var rings [][][]float64
	for _, part := range splitGroups(s) {
		ring, err := parseRing(part)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}
	if len(rings) == 0 {
		return nil, fmt.Errorf("invalid WKT: no rings found")
	}
	return rings, nil
}
