// Package geojson provides a minimal GeoJSON geometry representation
// with bounding-box and WKT conversions.
//
// Coordinates are kept as raw JSON so geometries fetched from upstream
// providers round-trip through the gateway without loss of precision.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
)

// Geometry is a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point decodes the coordinates as a single position.
func (g *Geometry) Point() ([]float64, error) {
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("invalid Point coordinates: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("Point requires at least 2 coordinates, got %d", len(coords))
	}
	return coords, nil
}

// LineString decodes the coordinates as a list of positions.
func (g *Geometry) LineString() ([][]float64, error) {
	var coords [][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("invalid LineString coordinates: %w", err)
	}
	return coords, nil
}

// Polygon decodes the coordinates as a list of rings.
func (g *Geometry) Polygon() ([][][]float64, error) {
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("invalid Polygon coordinates: %w", err)
	}
	return coords, nil
}

// MultiPolygon decodes the coordinates as a list of polygons.
func (g *Geometry) MultiPolygon() ([][][][]float64, error) {
	var coords [][][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("invalid MultiPolygon coordinates: %w", err)
	}
	return coords, nil
}

// ComputeBBox computes the bounding box of a geometry.
// Returns [west, south, east, north].
func ComputeBBox(g *Geometry) ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}

	var positions [][]float64
	switch g.Type {
	case "Point":
		p, err := g.Point()
		if err != nil {
			return nil, err
		}
		positions = append(positions, p)
	case "LineString":
		line, err := g.LineString()
		if err != nil {
			return nil, err
		}
		positions = append(positions, line...)
	case "Polygon":
		rings, err := g.Polygon()
		if err != nil {
			return nil, err
		}
		for _, ring := range rings {
			positions = append(positions, ring...)
		}
	case "MultiPolygon":
		polys, err := g.MultiPolygon()
		if err != nil {
			return nil, err
		}
		for _, poly := range polys {
			for _, ring := range poly {
				positions = append(positions, ring...)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for _, p := range positions {
		if len(p) < 2 {
			continue
		}
		minLon = math.Min(minLon, p[0])
		maxLon = math.Max(maxLon, p[0])
		minLat = math.Min(minLat, p[1])
		maxLat = math.Max(maxLat, p[1])
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}
	return []float64{minLon, minLat, maxLon, maxLat}, nil
}

// NewPolygonFromBBox builds a rectangular polygon covering a bounding box.
// bbox is [west, south, east, north].
func NewPolygonFromBBox(bbox []float64) (*Geometry, error) {
	if len(bbox) != 4 {
		return nil, fmt.Errorf("bbox must have 4 values [west, south, east, north], got %d", len(bbox))
	}

	west, south, east, north := bbox[0], bbox[1], bbox[2], bbox[3]
	ring := [][][]float64{
		{
			{west, south},
			{east, south},
			{east, north},
			{west, north},
			{west, south},
		},
	}

	coords, err := json.Marshal(ring)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon coordinates: %w", err)
	}
	return &Geometry{Type: "Polygon", Coordinates: coords}, nil
}
