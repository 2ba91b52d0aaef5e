package translate

import (
	"github.com/rkm/fedeo-stac-gateway/internal/config"
	"github.com/rkm/fedeo-stac-gateway/internal/stac"
)

// openInterval is the default temporal extent for collections with no
// declared mission dates.
func openInterval() [][]any {
	return [][]any{{nil, nil}}
}

// worldBBox covers the whole globe, used when a product type declares no
// spatial extent.
var worldBBox = []float64{-180, -90, 180, 90}

// AssembleCollection builds the STAC collection document for a product
// type. external, when non-nil, is the remotely fetched STAC collection
// for this product type; its descriptive fields take precedence over the
// locally configured ones.
func AssembleCollection(pt *config.ProductType, external map[string]any, links *stac.CollectionLinks, version string) *stac.Collection {
	c := &stac.Collection{
		Version:     version,
		Id:          pt.ID,
		Title:       pt.Title,
		Description: pt.Abstract,
		Keywords:    pt.Keywords,
		License:     pt.License,
		Summaries:   map[string]any{},
	}
	if c.License == "" {
		c.License = "proprietary"
	}

	c.Extent = &stac.Extent{
		Spatial:  &stac.SpatialExtent{Bbox: spatialExtent(pt)},
		Temporal: &stac.TemporalExtent{Interval: temporalExtent(pt)},
	}

	if external != nil {
		if title, ok := external["title"].(string); ok && title != "" {
			c.Title = title
		}
		if desc, ok := external["description"].(string); ok && desc != "" {
			c.Description = desc
		}
		if license, ok := external["license"].(string); ok && license != "" {
			c.License = license
		}
		if keywords, ok := external["keywords"].([]any); ok {
			c.Keywords = c.Keywords[:0]
			for _, kw := range keywords {
				if s, ok := kw.(string); ok {
					c.Keywords = append(c.Keywords, s)
				}
			}
		}
		if summaries, ok := external["summaries"].(map[string]any); ok {
			for k, v := range summaries {
				c.Summaries[k] = v
			}
		}
	}

	if pt.Platform != "" {
		c.Summaries["platform"] = []string{pt.Platform}
	}
	if pt.Constellation != "" {
		c.Summaries["constellation"] = []string{pt.Constellation}
	}
	if len(pt.Instruments) > 0 {
		c.Summaries["instruments"] = pt.Instruments
	}
	if pt.ProcessingLevel != "" {
		c.Summaries["processing:level"] = []string{pt.ProcessingLevel}
	}
	c.Summaries["federation:backends"] = pt.Backends

	for _, link := range links.Links() {
		c.Links = append(c.Links, &stac.CollectionLink{
			Rel:  link.Rel,
			Href: link.Href,
			Type: link.Type,
		})
	}

	return c
}

func spatialExtent(pt *config.ProductType) [][]float64 {
	if len(pt.BBox) == 4 {
		return [][]float64{pt.BBox}
	}
	return [][]float64{worldBBox}
}

func temporalExtent(pt *config.ProductType) [][]any {
	if pt.MissionStartDate == "" && pt.MissionEndDate == "" {
		return openInterval()
	}
	interval := []any{nil, nil}
	if pt.MissionStartDate != "" {
		interval[0] = pt.MissionStartDate
	}
	if pt.MissionEndDate != "" {
		interval[1] = pt.MissionEndDate
	}
	return [][]any{interval}
}

// MatchesBBox reports whether a collection's spatial extent intersects the
// given [west, south, east, north] query box.
func MatchesBBox(pt *config.ProductType, query []float64) bool {
	if len(query) != 4 {
		return true
	}
	extent := pt.BBox
	if len(extent) != 4 {
		extent = worldBBox
	}
	return extent[0] <= query[2] && query[0] <= extent[2] &&
		extent[1] <= query[3] && query[1] <= extent[3]
}
