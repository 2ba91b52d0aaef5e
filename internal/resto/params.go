package resto

import (
	"fmt"
	"net/url"
	"strconv"
)

// SearchParams represents the OpenSearch query parameters of a resto
// granule search.
type SearchParams struct {
	// Spatial filters. Geometry is WKT; Box is west,south,east,north.
	Geometry string
	Box      string

	// Temporal filters in ISO 8601.
	StartDate      string
	CompletionDate string

	// Identifier pins the search to a single product.
	Identifier string

	// Pagination. Page is 1-based.
	MaxRecords int
	Page       int

	// Sorting. SortOrder is "ascending" or "descending".
	SortParam string
	SortOrder string

	// Extra carries backend-native filter parameters verbatim, for example
	// sensorMode or cloudCover ranges.
	Extra map[string]any
}

// ToQueryString converts the params to a resto query string.
func (p *SearchParams) ToQueryString() string {
	values := url.Values{}

	if p.Geometry != "" {
		values.Set("geometry", p.Geometry)
	}
	if p.Box != "" {
		values.Set("box", p.Box)
	}
	if p.StartDate != "" {
		values.Set("startDate", p.StartDate)
	}
	if p.CompletionDate != "" {
		values.Set("completionDate", p.CompletionDate)
	}
	if p.Identifier != "" {
		values.Set("identifier", p.Identifier)
	}

	if p.MaxRecords > 0 {
		values.Set("maxRecords", strconv.Itoa(p.MaxRecords))
	}
	if p.Page > 1 {
		values.Set("page", strconv.Itoa(p.Page))
	}

	if p.SortParam != "" {
		values.Set("sortParam", p.SortParam)
		order := p.SortOrder
		if order == "" {
			order = "descending"
		}
		values.Set("sortOrder", order)
	}

	for key, value := range p.Extra {
		values.Set(key, fmt.Sprintf("%v", value))
	}

	return values.Encode()
}
