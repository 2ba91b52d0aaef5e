package api

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
)

// queryableTypes declares the JSON schema fragment for each STAC property
// exposed through the queryables endpoints. Properties missing here get a
// plain string schema.
var queryableTypes = map[string]map[string]any{
	"datetime": {
		"description": "Datetime or datetime range",
		"type":        "string",
		"format":      "date-time",
	},
	"start_datetime": {
		"description": "Acquisition start",
		"type":        "string",
		"format":      "date-time",
	},
	"end_datetime": {
		"description": "Acquisition end",
		"type":        "string",
		"format":      "date-time",
	},
	"created": {
		"description": "Record creation time",
		"type":        "string",
		"format":      "date-time",
	},
	"updated": {
		"description": "Record modification time",
		"type":        "string",
		"format":      "date-time",
	},
	"instruments": {
		"description": "Instrument identifiers",
		"type":        "array",
		"items":       map[string]any{"type": "string"},
	},
	"sar:polarizations": {
		"description": "SAR polarization combinations",
		"type":        "array",
		"items":       map[string]any{"type": "string"},
	},
	"sat:relative_orbit": {
		"description": "Relative orbit number",
		"type":        "integer",
	},
	"sat:absolute_orbit": {
		"description": "Absolute orbit number",
		"type":        "integer",
	},
	"eo:cloud_cover": {
		"description": "Cloud cover percentage",
		"type":        "number",
		"minimum":     0,
		"maximum":     100,
	},
	"eo:snow_cover": {
		"description": "Snow cover percentage",
		"type":        "number",
		"minimum":     0,
		"maximum":     100,
	},
	"gsd": {
		"description": "Ground sample distance in meters",
		"type":        "number",
	},
}

// Queryables returns the queryable properties, globally or scoped to one
// collection. Collection-scoped responses carry enum values derived from
// the product type definition.
// GET /queryables
// GET /collections/{collectionId}/queryables
func (h *Handlers) Queryables(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	title := "Queryables for " + h.cfg.STAC.Title
	id := h.cfg.STAC.BaseURL + "/queryables"

	var enums map[string][]string
	if collectionID != "" {
		var err error
		enums, err = h.gateway.ListQueryables(collectionID)
		if err != nil {
			WriteNotFound(w, "Collection "+collectionID+" does not exist.")
			return
		}
		title = "Queryables for " + collectionID
		id = h.cfg.STAC.BaseURL + "/collections/" + collectionID + "/queryables"
	} else {
		enums = h.globalEnums()
	}

	properties := make(map[string]any)
	names := h.registry.StacNames()
	sort.Strings(names)
	for _, name := range names {
		properties[name] = queryableSchema(name)
	}
	properties["federation:backends"] = map[string]any{
		"description": "Federation backends serving the collection",
		"type":        "array",
		"items":       map[string]any{"type": "string"},
	}

	for field, values := range enums {
		prop, ok := properties[field].(map[string]any)
		if !ok || len(values) == 0 {
			continue
		}
		enumValues := make([]any, len(values))
		for i, v := range values {
			enumValues[i] = v
		}
		if items, ok := prop["items"].(map[string]any); ok {
			items["enum"] = enumValues
		} else {
			prop["enum"] = enumValues
		}
	}

	queryables := map[string]any{
		"$schema":              "https://json-schema.org/draft/2019-09/schema",
		"$id":                  id,
		"type":                 "object",
		"title":                title,
		"description":          "Queryable properties for STAC API search",
		"properties":           properties,
		"additionalProperties": true,
	}

	WriteJSON(w, http.StatusOK, queryables)
}

func queryableSchema(name string) map[string]any {
	if schema, ok := queryableTypes[name]; ok {
		// Copy so enum injection never mutates the shared table.
		out := make(map[string]any, len(schema))
		for k, v := range schema {
			if items, ok := v.(map[string]any); ok {
				itemsCopy := make(map[string]any, len(items))
				for ik, iv := range items {
					itemsCopy[ik] = iv
				}
				out[k] = itemsCopy
				continue
			}
			out[k] = v
		}
		return out
	}
	return map[string]any{"type": "string"}
}

// globalEnums aggregates per-collection enum values across every product
// type.
func (h *Handlers) globalEnums() map[string][]string {
	seen := make(map[string]map[string]bool)
	out := make(map[string][]string)

	for _, id := range h.gateway.ProductTypes().IDs() {
		enums, err := h.gateway.ListQueryables(id)
		if err != nil {
			continue
		}
		for field, values := range enums {
			if seen[field] == nil {
				seen[field] = make(map[string]bool)
			}
			for _, v := range values {
				if !seen[field][v] {
					seen[field][v] = true
					out[field] = append(out[field], v)
				}
			}
		}
	}

	return out
}
