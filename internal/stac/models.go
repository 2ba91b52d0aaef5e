// Package stac provides STAC API types and utilities, wrapping
// planetlabs/go-stac for core catalog types and adding the API-level item
// and link types the gateway needs (computed stac_extensions, alternate
// asset origins, body-bearing pagination links).
package stac

import (
	gostac "github.com/planetlabs/go-stac"

	"github.com/rkm/fedeo-stac-gateway/pkg/geojson"
)

// Re-export core types from planetlabs/go-stac for convenience
type (
	Collection     = gostac.Collection
	Catalog        = gostac.Catalog
	Provider       = gostac.Provider
	Extent         = gostac.Extent
	SpatialExtent  = gostac.SpatialExtent
	TemporalExtent = gostac.TemporalExtent

	// CollectionLink is the link type embedded in go-stac collection and
	// catalog documents. API-level responses use Link instead.
	CollectionLink = gostac.Link
)

// Link is a STAC hyperlink. Body carries the request payload for POST
// pagination links, per the STAC API POST-search convention.
type Link struct {
	Rel    string         `json:"rel"`
	Href   string         `json:"href"`
	Type   string         `json:"type,omitempty"`
	Title  string         `json:"title,omitempty"`
	Method string         `json:"method,omitempty"`
	Body   map[string]any `json:"body,omitempty"`
}

// AssetAlternate preserves the provider origin of a proxied asset.
type AssetAlternate struct {
	Origin *Asset `json:"origin,omitempty"`
}

// Asset is a STAC item asset.
type Asset struct {
	Href      string          `json:"href"`
	Title     string          `json:"title,omitempty"`
	Type      string          `json:"type,omitempty"`
	Roles     []string        `json:"roles,omitempty"`
	Alternate *AssetAlternate `json:"alternate,omitempty"`
}

// Item is a STAC item (GeoJSON Feature). The stac_extensions list is
// computed per item from the populated properties, never declared.
type Item struct {
	Type           string            `json:"type"` // "Feature"
	StacVersion    string            `json:"stac_version"`
	StacExtensions []string          `json:"stac_extensions,omitempty"`
	Id             string            `json:"id"`
	Geometry       *geojson.Geometry `json:"geometry"`
	BBox           []float64         `json:"bbox,omitempty"`
	Collection     string            `json:"collection,omitempty"`
	Properties     map[string]any    `json:"properties"`
	Assets         map[string]*Asset `json:"assets"`
	Links          []*Link           `json:"links"`
}

// NewItem creates a STAC Item skeleton.
func NewItem(id, collection, version string) *Item {
	return &Item{
		Type:        "Feature",
		StacVersion: version,
		Id:          id,
		Collection:  collection,
		Properties:  make(map[string]any),
		Assets:      make(map[string]*Asset),
		Links:       make([]*Link, 0),
	}
}

// ItemCollection represents a STAC ItemCollection (GeoJSON FeatureCollection).
type ItemCollection struct {
	Type           string  `json:"type"` // "FeatureCollection"
	Features       []*Item `json:"features"`
	Links          []*Link `json:"links"`
	NumberMatched  *int    `json:"numberMatched,omitempty"`
	NumberReturned int     `json:"numberReturned"`
}

// NewItemCollection creates a new ItemCollection with the given items.
func NewItemCollection(items []*Item) *ItemCollection {
	return &ItemCollection{
		Type:           "FeatureCollection",
		Features:       items,
		Links:          make([]*Link, 0),
		NumberReturned: len(items),
	}
}

// CollectionsList represents a list of collections response. The counts
// support the collection-search extension's offset paging.
type CollectionsList struct {
	Collections    []*Collection `json:"collections"`
	Links          []*Link       `json:"links"`
	NumberMatched  int           `json:"numberMatched"`
	NumberReturned int           `json:"numberReturned"`
}

// NewCollectionsList creates a new CollectionsList.
func NewCollectionsList(collections []*Collection, matched int) *CollectionsList {
	return &CollectionsList{
		Collections:    collections,
		Links:          make([]*Link, 0),
		NumberMatched:  matched,
		NumberReturned: len(collections),
	}
}

// Conformance represents the conformance classes response.
type Conformance struct {
	ConformsTo []string `json:"conformsTo"`
}

// LandingPage represents the STAC API landing page response.
type LandingPage struct {
	Type        string   `json:"type"` // "Catalog"
	Id          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	StacVersion string   `json:"stac_version"`
	ConformsTo  []string `json:"conformsTo,omitempty"`
	Links       []*Link  `json:"links"`
}

// NewLandingPage creates a new landing page response.
func NewLandingPage(id, title, description, version string, conformsTo []string) *LandingPage {
	return &LandingPage{
		Type:        "Catalog",
		Id:          id,
		Title:       title,
		Description: description,
		StacVersion: version,
		ConformsTo:  conformsTo,
		Links:       make([]*Link, 0),
	}
}

// AddLink adds a link to the landing page.
func (lp *LandingPage) AddLink(rel, href, mediaType string) {
	lp.Links = append(lp.Links, &Link{
		Rel:  rel,
		Href: href,
		Type: mediaType,
	})
}

// SearchError is one normalized per-provider failure in a partial-failure
// response.
type SearchError struct {
	Provider   string `json:"provider"`
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// SearchErrorList is the body of a partial-search-failure response.
type SearchErrorList struct {
	Errors []*SearchError `json:"errors"`
}

// Media types used in link objects.
const (
	MediaTypeJSON    = "application/json"
	MediaTypeGeoJSON = "application/geo+json"
	MediaTypeSchema  = "application/schema+json"
)

// Standard STAC API conformance URIs
const (
	ConformanceCore              = "https://api.stacspec.org/v1.0.0/core"
	ConformanceOGCFeatures       = "https://api.stacspec.org/v1.0.0/ogcapi-features"
	ConformanceItemSearch        = "https://api.stacspec.org/v1.0.0/item-search"
	ConformanceItemSearchQuery   = "https://api.stacspec.org/v1.0.0/item-search#query"
	ConformanceItemSearchSort    = "https://api.stacspec.org/v1.0.0/item-search#sort"
	ConformanceItemSearchFilter  = "https://api.stacspec.org/v1.0.0/item-search#filter"
	ConformanceCollectionSearch  = "https://api.stacspec.org/v1.0.0-rc.1/collection-search"
	ConformanceOGCFeatCore       = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/core"
	ConformanceOGCFeatGeoJSON    = "http://www.opengis.net/spec/ogcapi-features-1/1.0/conf/geojson"
	ConformanceFilterCQL2JSON    = "http://www.opengis.net/spec/cql2/1.0/conf/cql2-json"
	ConformanceFilterBasicCQL2   = "http://www.opengis.net/spec/cql2/1.0/conf/basic-cql2"
	ConformanceOGCFeatFilter     = "http://www.opengis.net/spec/ogcapi-features-3/1.0/conf/filter"
	ConformanceOGCFeatQueryables = "http://www.opengis.net/spec/ogcapi-features-3/1.0/conf/queryables"
)

// DefaultConformance returns the conformance classes advertised by the
// gateway.
func DefaultConformance() []string {
	return []string{
		ConformanceCore,
		ConformanceOGCFeatures,
		ConformanceItemSearch,
		ConformanceItemSearchQuery,
		ConformanceItemSearchSort,
		ConformanceItemSearchFilter,
		ConformanceCollectionSearch,
		ConformanceOGCFeatCore,
		ConformanceOGCFeatGeoJSON,
		ConformanceFilterCQL2JSON,
		ConformanceFilterBasicCQL2,
		ConformanceOGCFeatFilter,
		ConformanceOGCFeatQueryables,
	}
}
