package stac

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// SortbyItem represents a single sort criterion.
type SortbyItem struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // "asc" or "desc"
}

// SearchRequest represents a STAC search request.
// Standard STAC query parameters are supported directly; extension
// properties (sar:*, eo:*, ...) go through the query map or the CQL2
// filter.
type SearchRequest struct {
	// Core STAC search parameters
	BBox        []float64       `json:"bbox,omitempty"`
	DateTime    string          `json:"datetime,omitempty"`
	Intersects  json.RawMessage `json:"intersects,omitempty"`
	IDs         []string        `json:"ids,omitempty"`
	Collections []string        `json:"collections,omitempty"`
	Limit       int             `json:"limit,omitempty"`

	// Token is the opaque continuation token issued by a federation
	// backend. Provider pins a paged search to the backend that issued
	// the token.
	Token    string `json:"token,omitempty"`
	Provider string `json:"provider,omitempty"`

	// Query extension: property name -> single-entry operator map.
	Query map[string]any `json:"query,omitempty"`

	// Sortby extension
	Sortby []SortbyItem `json:"sortby,omitempty"`

	// Filter extension (CQL2-JSON)
	Filter     map[string]any `json:"filter,omitempty"`
	FilterLang string         `json:"filter-lang,omitempty"`
}

// ParseSearchRequest parses a STAC search request from GET query parameters.
func ParseSearchRequest(r *http.Request) (*SearchRequest, error) {
	query := r.URL.Query()
	req := &SearchRequest{}

	if bboxStr := query.Get("bbox"); bboxStr != "" {
		bbox, err := ParseBBoxParam(bboxStr)
		if err != nil {
			return nil, err
		}
		req.BBox = bbox
	}

	if datetime := query.Get("datetime"); datetime != "" {
		req.DateTime = datetime
	}

	if intersects := query.Get("intersects"); intersects != "" {
		if !json.Valid([]byte(intersects)) {
			return nil, fmt.Errorf("intersects must be valid GeoJSON geometry")
		}
		req.Intersects = json.RawMessage(intersects)
	}

	if ids := query.Get("ids"); ids != "" {
		req.IDs = splitList(ids)
	}

	if collections := query.Get("collections"); collections != "" {
		req.Collections = splitList(collections)
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid limit parameter: %w", err)
		}
		if limit < 0 {
			return nil, fmt.Errorf("limit must be non-negative, got %d", limit)
		}
		req.Limit = limit
	}

	req.Token = query.Get("token")
	req.Provider = query.Get("provider")

	// The query extension value is a URL-encoded JSON object.
	if queryStr := query.Get("query"); queryStr != "" {
		var queryObj map[string]any
		if err := json.Unmarshal([]byte(queryStr), &queryObj); err != nil {
			return nil, fmt.Errorf("query must be a valid JSON object: %w", err)
		}
		req.Query = queryObj
	}

	if sortbyStr := query.Get("sortby"); sortbyStr != "" {
		sortbyItems, err := parseSortbyParam(sortbyStr)
		if err != nil {
			return nil, fmt.Errorf("invalid sortby parameter: %w", err)
		}
		req.Sortby = sortbyItems
	}

	if filter := query.Get("filter"); filter != "" {
		filterLang := query.Get("filter-lang")
		if filterLang != "" && filterLang != "cql2-json" {
			return nil, fmt.Errorf("unsupported filter-lang %q, only cql2-json is supported", filterLang)
		}
		var filterObj map[string]any
		if err := json.Unmarshal([]byte(filter), &filterObj); err != nil {
			return nil, fmt.Errorf("filter must be a valid CQL2 JSON object: %w", err)
		}
		req.Filter = filterObj
		req.FilterLang = "cql2-json"
	}

	return req, nil
}

// ParseBBoxParam parses a comma-separated bbox string with 4 or 6
// coordinates, returning the 2D [west, south, east, north] form.
func ParseBBoxParam(bboxStr string) ([]float64, error) {
	parts := strings.Split(bboxStr, ",")
	if len(parts) != 4 && len(parts) != 6 {
		return nil, fmt.Errorf("bbox must have 4 or 6 coordinates, got %d", len(parts))
	}

	bbox := make([]float64, len(parts))
	for i, part := range parts {
		val, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid bbox coordinate at position %d: %w", i, err)
		}
		bbox[i] = val
	}

	if len(bbox) == 6 {
		// drop the elevation bounds
		bbox = []float64{bbox[0], bbox[1], bbox[3], bbox[4]}
	}
	return bbox, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseSortbyParam parses the sortby query parameter.
// Format: sortby=+datetime or sortby=-datetime (+ is asc, - is desc).
// Multiple sorts: sortby=+datetime,-platform
func parseSortbyParam(sortbyStr string) ([]SortbyItem, error) {
	fields := strings.Split(sortbyStr, ",")
	items := make([]SortbyItem, 0, len(fields))

	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		direction := "asc"
		name := field
		switch {
		case strings.HasPrefix(field, "+"):
			name = field[1:]
		case strings.HasPrefix(field, "-"):
			direction = "desc"
			name = field[1:]
		}

		if name == "" {
			return nil, fmt.Errorf("empty field name in sortby")
		}

		items = append(items, SortbyItem{Field: name, Direction: direction})
	}

	return items, nil
}

// ParseSearchRequestBody parses a STAC search request from a POST JSON
// body. The raw decoded body is returned alongside so pagination links can
// re-emit it.
func ParseSearchRequestBody(body io.Reader) (*SearchRequest, map[string]any, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read search request body: %w", err)
	}

	var req SearchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, nil, fmt.Errorf("failed to parse search request body: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse search request body: %w", err)
	}

	if req.Limit < 0 {
		return nil, nil, fmt.Errorf("limit must be non-negative, got %d", req.Limit)
	}

	return &req, raw, nil
}
