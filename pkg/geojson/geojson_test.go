package geojson

import (
	"encoding/json"
	"testing"
)

func mustGeometry(t *testing.T, raw string) *Geometry {
	t.Helper()
	var g Geometry
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("failed to parse geometry: %v", err)
	}
	return &g
}

func TestComputeBBox(t *testing.T) {
	tests := []struct {
		name     string
		geometry string
		want     [4]float64
		wantErr  bool
	}{
		{
			name:     "point",
			geometry: `{"type":"Point","coordinates":[-118.2,34.05]}`,
			want:     [4]float64{-118.2, 34.05, -118.2, 34.05},
		},
		{
			name:     "polygon",
			geometry: `{"type":"Polygon","coordinates":[[[-10,-5],[10,-5],[10,5],[-10,5],[-10,-5]]]}`,
			want:     [4]float64{-10, -5, 10, 5},
		},
		{
			name:     "multipolygon",
			geometry: `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]],[[[2,2],[3,2],[3,3],[2,2]]]]}`,
			want:     [4]float64{0, 0, 3, 3},
		},
		{
			name:     "linestring",
			geometry: `{"type":"LineString","coordinates":[[0,0],[5,10]]}`,
			want:     [4]float64{0, 0, 5, 10},
		},
		{
			name:     "unsupported type",
			geometry: `{"type":"GeometryCollection","coordinates":[]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bbox, err := ComputeBBox(mustGeometry(t, tt.geometry))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := range tt.want {
				if bbox[i] != tt.want[i] {
					t.Errorf("bbox[%d] = %v, want %v", i, bbox[i], tt.want[i])
				}
			}
		})
	}
}

func TestComputeBBoxNil(t *testing.T) {
	if _, err := ComputeBBox(nil); err == nil {
		t.Fatal("expected error for nil geometry")
	}
}

func TestNewPolygonFromBBox(t *testing.T) {
	g, err := NewPolygonFromBBox([]float64{-10, -5, 10, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Type != "Polygon" {
		t.Errorf("type = %q, want Polygon", g.Type)
	}

	rings, err := g.Polygon()
	if err != nil {
		t.Fatalf("failed to decode polygon: %v", err)
	}
	if len(rings) != 1 || len(rings[0]) != 5 {
		t.Fatalf("expected 1 ring with 5 points, got %d rings", len(rings))
	}
	first, last := rings[0][0], rings[0][4]
	if first[0] != last[0] || first[1] != last[1] {
		t.Error("ring is not closed")
	}

	if _, err := NewPolygonFromBBox([]float64{1, 2, 3}); err == nil {
		t.Error("expected error for short bbox")
	}
}
