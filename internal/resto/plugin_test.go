package resto

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
)

const searchPage = `{
	"type": "FeatureCollection",
	"properties": {"totalResults": 37, "itemsPerPage": 2, "startIndex": 1},
	"features": [
		{
			"type": "Feature",
			"id": "uuid-1",
			"geometry": {"type": "Point", "coordinates": [1.5, 43.5]},
			"properties": {
				"productIdentifier": "S1A_IW_GRDH_001",
				"title": "S1A_IW_GRDH_001",
				"startDate": "2023-06-15T05:00:00Z",
				"completionDate": "2023-06-15T05:00:25Z",
				"platform": "S1A",
				"instrument": "SAR-C",
				"sensorMode": "IW",
				"storage": {"mode": "disk"},
				"services": {"download": {"url": "https://backend.example/dl/001.zip", "mimeType": "application/zip", "size": 100}},
				"links": [
					{"rel": "order", "href": "https://backend.example/order/001"},
					{"rel": "license", "href": "https://backend.example/license"}
				]
			}
		},
		{
			"type": "Feature",
			"id": "uuid-2",
			"geometry": {"type": "Point", "coordinates": [2.5, 44.5]},
			"properties": {
				"productIdentifier": "S1A_IW_GRDH_002",
				"startDate": "2023-06-16T05:00:00Z",
				"completionDate": "2023-06-16T05:00:25Z",
				"storage": {"mode": "tape"},
				"services": {"download": {"url": "https://backend.example/dl/002.zip"}}
			}
		}
	]
}`

func newTestBackend(t *testing.T, handler http.HandlerFunc) (*Backend, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, 5*time.Second)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBackend("peps", client, logger), server
}

func TestSearchMapsProducts(t *testing.T) {
	backend, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(searchPage))
	})

	result, err := backend.Search(context.Background(), federation.SearchArgs{
		Collection:   "S1_SAR_GRD",
		ItemsPerPage: 2,
		Count:        true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(result.Products))
	}
	if result.NumberMatched == nil || *result.NumberMatched != 37 {
		t.Errorf("totalResults not propagated: %v", result.NumberMatched)
	}
	if result.NextPageToken != "2" {
		t.Errorf("full page should yield a continuation token, got %q", result.NextPageToken)
	}

	p := result.Products[0]
	if p.ID != "S1A_IW_GRDH_001" {
		t.Errorf("unexpected id: %q", p.ID)
	}
	if p.Status != fields.StatusOnline {
		t.Errorf("disk storage should be online, got %q", p.Status)
	}
	if p.Properties["sensorMode"] != "IW" {
		t.Errorf("native properties not mapped: %v", p.Properties)
	}
	if p.Properties[fields.NativeStartField] != "2023-06-15T05:00:00Z" {
		t.Errorf("start time not mapped: %v", p.Properties)
	}
	if p.OrderLink() != "https://backend.example/order/001" {
		t.Errorf("order link not extracted: %q", p.OrderLink())
	}
	if p.DownloadLink() != "https://backend.example/dl/001.zip" {
		t.Errorf("download link not extracted: %q", p.DownloadLink())
	}
	if len(p.Links) != 1 || p.Links[0].Rel != "license" {
		t.Errorf("extra links not preserved: %+v", p.Links)
	}
	if asset, ok := p.Assets["product"]; !ok || asset.Type != "application/zip" {
		t.Errorf("product asset not mapped: %+v", p.Assets)
	}

	if result.Products[1].Status != fields.StatusOffline {
		t.Errorf("tape storage should be offline, got %q", result.Products[1].Status)
	}
}

func TestSearchForwardsNativeQuery(t *testing.T) {
	var gotQuery string
	backend, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"type":"FeatureCollection","properties":{},"features":[]}`))
	})

	_, err := backend.Search(context.Background(), federation.SearchArgs{
		Collection: "S1_SAR_GRD",
		Geometry:   "POINT(1.5 2.5)",
		Start:      "2023-01-01T00:00:00Z",
		SortBy:     []federation.SortClause{{Field: "startDate", Direction: "asc"}},
		Query:      map[string]any{"sensorMode": "IW"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"geometry=POINT", "startDate=2023-01-01", "sensorMode=IW", "sortOrder=ascending"} {
		if !strings.Contains(gotQuery, want) {
			t.Errorf("query %q missing %q", gotQuery, want)
		}
	}
}

func TestFetchNextPage(t *testing.T) {
	var gotQuery string
	backend, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"type":"FeatureCollection","properties":{},"features":[]}`))
	})

	_, err := backend.FetchNextPage(context.Background(), "3", federation.SearchArgs{
		Collection: "S1_SAR_GRD",
	})
	if !errors.Is(err, federation.ErrEndOfSequence) {
		t.Fatalf("empty page should end the sequence, got %v", err)
	}
	if !strings.Contains(gotQuery, "page=3") {
		t.Errorf("page not forwarded: %q", gotQuery)
	}
}

func TestFetchNextPageBadToken(t *testing.T) {
	backend, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an invalid token")
	})

	_, err := backend.FetchNextPage(context.Background(), "not-a-page", federation.SearchArgs{})
	var fe *federation.Error
	if !errors.As(err, &fe) || fe.Kind != federation.KindValidation {
		t.Fatalf("expected a validation error, got %v", err)
	}
}

func TestSearchClassifiesAuthFailure(t *testing.T) {
	backend, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := backend.Search(context.Background(), federation.SearchArgs{Collection: "S1_SAR_GRD"})
	var fe *federation.Error
	if !errors.As(err, &fe) || fe.Kind != federation.KindAuthentication {
		t.Fatalf("expected an authentication error, got %v", err)
	}
}

func TestStreamAsset(t *testing.T) {
	var gotPath string
	backend, server := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", "attachment")
		w.Write([]byte("zipbytes"))
	})

	product := &federation.Product{
		ID:         "S1A_IW_GRDH_001",
		Collection: "S1_SAR_GRD",
		Properties: map[string]any{},
		Assets: map[string]federation.Asset{
			"product": {Href: server.URL + "/dl/001.zip"},
		},
	}

	stream, err := backend.Stream(context.Background(), product, "product", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Content.Close()

	data, _ := io.ReadAll(stream.Content)
	if string(data) != "zipbytes" {
		t.Errorf("unexpected stream content: %q", data)
	}
	if stream.MediaType != "application/zip" {
		t.Errorf("unexpected media type: %q", stream.MediaType)
	}
	if stream.Headers.Get("Content-Disposition") != "attachment" {
		t.Errorf("headers not passed through: %v", stream.Headers)
	}
	if gotPath != "/dl/001.zip" {
		t.Errorf("unexpected path: %q", gotPath)
	}
}

func TestStreamStagingProduct(t *testing.T) {
	backend, server := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	product := &federation.Product{
		ID:         "S1A_IW_GRDH_001",
		Properties: map[string]any{},
		Assets: map[string]federation.Asset{
			"product": {Href: server.URL + "/dl/001.zip"},
		},
	}

	_, err := backend.Stream(context.Background(), product, "product", "")
	var fe *federation.Error
	if !errors.As(err, &fe) || fe.Kind != federation.KindNotAvailable {
		t.Fatalf("expected a not-available error, got %v", err)
	}
}

func TestStreamUnknownAsset(t *testing.T) {
	backend, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an unknown asset")
	})

	product := &federation.Product{ID: "p", Properties: map[string]any{}}
	_, err := backend.Stream(context.Background(), product, "nope", "")
	var fe *federation.Error
	if !errors.As(err, &fe) || fe.Kind != federation.KindNotAvailable {
		t.Fatalf("expected a not-available error, got %v", err)
	}
}

func TestOrder(t *testing.T) {
	var gotBody string
	backend, server := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"orderId":"ord-42","status":"pending"}`))
	})

	product := &federation.Product{
		ID:         "S1A_IW_GRDH_001",
		Collection: "S1_SAR_GRD",
		Properties: map[string]any{
			federation.PropOrderLink: server.URL + "/order/001",
		},
	}

	orderID, err := backend.Order(context.Background(), product, map[string]any{"priority": "high"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orderID != "ord-42" {
		t.Errorf("unexpected order id: %q", orderID)
	}
	if !strings.Contains(gotBody, `"priority":"high"`) {
		t.Errorf("order body not forwarded: %q", gotBody)
	}
}

func TestOrderStatus(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		statusCode int
		want       string
	}{
		{"completed", `{"status":"done"}`, http.StatusOK, fields.StatusOnline},
		{"pending", `{"status":"running"}`, http.StatusOK, fields.StatusStaging},
		{"failed", `{"status":"error"}`, http.StatusOK, fields.StatusOffline},
		{"unknown order", ``, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, _ := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.reply))
			})

			product := &federation.Product{ID: "p", Properties: map[string]any{}}
			status, err := backend.OrderStatus(context.Background(), product, "ord-42")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status != tt.want {
				t.Errorf("got %q, want %q", status, tt.want)
			}
		})
	}
}
