package resto

import (
	"github.com/rkm/fedeo-stac-gateway/pkg/geojson"
)

// FeatureCollection is the GeoJSON envelope returned by resto search
// endpoints.
type FeatureCollection struct {
	Type       string               `json:"type"`
	Properties CollectionProperties `json:"properties"`
	Features   []Feature            `json:"features"`
}

// CollectionProperties carries the OpenSearch paging metadata of a result
// page.
type CollectionProperties struct {
	TotalResults *int `json:"totalResults"`
	ItemsPerPage int  `json:"itemsPerPage"`
	StartIndex   int  `json:"startIndex"`
}

// Feature is one product record.
type Feature struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureProperties holds the resto product metadata. Only the fields the
// gateway consumes are typed; everything else rides along in Extra.
type FeatureProperties struct {
	ProductIdentifier string   `json:"productIdentifier"`
	Title             string   `json:"title"`
	Collection        string   `json:"collection"`
	StartDate         string   `json:"startDate"`
	CompletionDate    string   `json:"completionDate"`
	Platform          string   `json:"platform"`
	Instrument        string   `json:"instrument"`
	ProcessingLevel   string   `json:"processingLevel"`
	ProductType       string   `json:"productType"`
	SensorMode        string   `json:"sensorMode"`
	OrbitNumber       *int     `json:"orbitNumber"`
	RelativeOrbit     *int     `json:"relativeOrbitNumber"`
	CloudCover        *float64 `json:"cloudCover"`
	Quicklook         string   `json:"quicklook"`
	Thumbnail         string   `json:"thumbnail"`

	Storage  Storage  `json:"storage"`
	Services Services `json:"services"`
	Links    []Link   `json:"links"`
}

// Storage reports where the product bytes currently live. Mode "disk" is
// immediately downloadable, "staging" is being restored and "tape" needs
// an order.
type Storage struct {
	Mode string `json:"mode"`
}

// Services groups the per-product service endpoints.
type Services struct {
	Download Download `json:"download"`
}

// Download is the product archive download service.
type Download struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Link is a related resource advertised by the backend.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}
