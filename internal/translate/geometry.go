package translate

import (
	"encoding/json"
	"fmt"

	"github.com/rkm/fedeo-stac-gateway/pkg/geojson"
)

// BBoxToWKT converts a 2D [west, south, east, north] bounding box into a
// WKT polygon for the federation engine.
func BBoxToWKT(bbox []float64) (string, error) {
	if len(bbox) != 4 {
		return "", fmt.Errorf("%w: bbox must have 4 coordinates, got %d", ErrInvalidGeometry, len(bbox))
	}
	if bbox[0] > bbox[2] || bbox[1] > bbox[3] {
		return "", fmt.Errorf("%w: bbox min coordinates exceed max coordinates", ErrInvalidGeometry)
	}

	poly, err := geojson.NewPolygonFromBBox(bbox)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return geojson.ToWKT(poly)
}

// IntersectsToWKT converts a GeoJSON geometry object from a search request
// into WKT.
func IntersectsToWKT(raw json.RawMessage) (string, error) {
	var geom geojson.Geometry
	if err := json.Unmarshal(raw, &geom); err != nil {
		return "", fmt.Errorf("%w: intersects is not a GeoJSON geometry: %v", ErrInvalidGeometry, err)
	}

	wkt, err := geojson.ToWKT(&geom)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return wkt, nil
}
