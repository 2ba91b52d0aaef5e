package translate

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rkm/fedeo-stac-gateway/internal/config"
	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
	"github.com/rkm/fedeo-stac-gateway/internal/stac"
)

func newTestTranslator(t *testing.T) *Translator {
	t.Helper()

	registry := config.NewProductTypeRegistry()
	for _, pt := range []*config.ProductType{
		{ID: "S1_SAR_GRD", Title: "Sentinel-1 GRD", Backends: []string{"peps", "cop_dataspace"}},
		{ID: "S2_MSI_L1C", Title: "Sentinel-2 L1C", Backends: []string{"peps"}},
	} {
		if err := registry.Add(pt); err != nil {
			t.Fatalf("failed to register product type: %v", err)
		}
	}

	return &Translator{
		Registry:     fields.Default(),
		ProductTypes: registry,
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}

func TestTranslateBasics(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(&stac.SearchRequest{
		Collections: []string{"S1_SAR_GRD"},
		BBox:        []float64{-10, 40, 10, 60},
		DateTime:    "2023-01-01T00:00:00Z/..",
		Limit:       10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Args.Collection != "S1_SAR_GRD" {
		t.Errorf("unexpected collection: %s", plan.Args.Collection)
	}
	if plan.Args.ItemsPerPage != 10 {
		t.Errorf("unexpected limit: %d", plan.Args.ItemsPerPage)
	}
	if !strings.HasPrefix(plan.Args.Geometry, "POLYGON((") {
		t.Errorf("expected polygon geometry, got %q", plan.Args.Geometry)
	}
	if plan.Args.Start != "2023-01-01T00:00:00Z" || plan.Args.End != "" {
		t.Errorf("unexpected bounds: %q / %q", plan.Args.Start, plan.Args.End)
	}
}

func TestTranslateFirstCollectionWins(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(&stac.SearchRequest{
		Collections: []string{"S2_MSI_L1C", "S1_SAR_GRD"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Args.Collection != "S2_MSI_L1C" {
		t.Errorf("expected first collection, got %s", plan.Args.Collection)
	}
}

func TestTranslateUnknownCollection(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(&stac.SearchRequest{Collections: []string{"NOPE"}})
	var fe *federation.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected a classified error, got %v", err)
	}
	if fe.Kind != federation.KindNoMatchingCollection {
		t.Errorf("unexpected kind: %s", fe.Kind)
	}
	if fe.Message != "Collection NOPE does not exist." {
		t.Errorf("unexpected message: %q", fe.Message)
	}
}

func TestTranslateMissingCollection(t *testing.T) {
	tr := newTestTranslator(t)

	_, err := tr.Translate(&stac.SearchRequest{})
	var fe *federation.Error
	if !errors.As(err, &fe) || fe.Kind != federation.KindValidation {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestTranslateIDsPlan(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(&stac.SearchRequest{
		Collections: []string{"S1_SAR_GRD"},
		IDs:         []string{"a1", "a2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(plan.IDs, []string{"a1", "a2"}) {
		t.Errorf("unexpected ids: %v", plan.IDs)
	}
}

func TestTranslateTokenPlan(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(&stac.SearchRequest{
		Collections: []string{"S1_SAR_GRD"},
		Token:       "tok",
		Provider:    "peps",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Args.Token != "tok" || plan.Args.Provider != "peps" {
		t.Errorf("token plan not set up: %+v", plan.Args)
	}

	_, err = tr.Translate(&stac.SearchRequest{
		Collections: []string{"S1_SAR_GRD"},
		Token:       "tok",
	})
	if err == nil {
		t.Fatal("expected error for token without provider")
	}
}

func TestTranslateSortby(t *testing.T) {
	tr := newTestTranslator(t)

	tests := []struct {
		name   string
		sortby []stac.SortbyItem
		want   []federation.SortClause
	}{
		{
			name:   "start shorthand",
			sortby: []stac.SortbyItem{{Field: "start", Direction: "desc"}},
			want:   []federation.SortClause{{Field: fields.NativeStartField, Direction: "desc"}},
		},
		{
			name:   "end shorthand",
			sortby: []stac.SortbyItem{{Field: "end", Direction: "asc"}},
			want:   []federation.SortClause{{Field: fields.NativeEndField, Direction: "asc"}},
		},
		{
			name:   "mapped field",
			sortby: []stac.SortbyItem{{Field: "eo:cloud_cover", Direction: "asc"}},
			want:   []federation.SortClause{{Field: "cloudCover", Direction: "asc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := tr.Translate(&stac.SearchRequest{
				Collections: []string{"S1_SAR_GRD"},
				Sortby:      tt.sortby,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(plan.Args.SortBy, tt.want) {
				t.Errorf("got %v, want %v", plan.Args.SortBy, tt.want)
			}
		})
	}
}

func TestTranslateQueryOverridesFilter(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(&stac.SearchRequest{
		Collections: []string{"S1_SAR_GRD"},
		Filter: map[string]any{
			"op":   "=",
			"args": []any{map[string]any{"property": "platform"}, "S1A"},
		},
		Query: map[string]any{"platform": map[string]any{"eq": "S1B"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plan.Args.Query["platformSerialIdentifier"]; got != "S1B" {
		t.Errorf("query extension should win over filter, got %v", got)
	}
}

func TestTranslateConstraintOverridesDatetime(t *testing.T) {
	tr := newTestTranslator(t)

	plan, err := tr.Translate(&stac.SearchRequest{
		Collections: []string{"S1_SAR_GRD"},
		DateTime:    "2023-01-01T00:00:00Z/2023-02-01T00:00:00Z",
		Query: map[string]any{
			"start_datetime": map[string]any{"eq": "2024-01-01T00:00:00Z"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Args.Start != "2024-01-01T00:00:00Z" {
		t.Errorf("constraint should override parsed start, got %q", plan.Args.Start)
	}
	if plan.Args.End != "2023-02-01T00:00:00Z" {
		t.Errorf("end bound should be untouched, got %q", plan.Args.End)
	}
	if _, ok := plan.Args.Query[fields.NativeStartField]; ok {
		t.Error("temporal constraint should be lifted out of the query map")
	}
}

func TestTranslateLimitClamping(t *testing.T) {
	tr := newTestTranslator(t)

	tests := []struct {
		limit int
		want  int
	}{
		{0, 20},
		{50, 50},
		{500, 100},
	}
	for _, tt := range tests {
		plan, err := tr.Translate(&stac.SearchRequest{
			Collections: []string{"S1_SAR_GRD"},
			Limit:       tt.limit,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if plan.Args.ItemsPerPage != tt.want {
			t.Errorf("limit %d: got %d, want %d", tt.limit, plan.Args.ItemsPerPage, tt.want)
		}
	}
}
