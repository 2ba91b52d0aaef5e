package translate

import (
	"github.com/rkm/fedeo-stac-gateway/internal/config"
	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
	"github.com/rkm/fedeo-stac-gateway/internal/stac"
)

// Translator converts parsed STAC search requests into the federation
// engine's native keyword arguments. It is built once at startup and is
// safe for concurrent use.
type Translator struct {
	Registry     *fields.Registry
	ProductTypes *config.ProductTypeRegistry
	DefaultLimit int
	MaxLimit     int
}

// Plan is a translated search. When IDs is non-empty the caller must run
// one native search per id and concatenate the results; when Args.Token
// and Args.Provider are both set the caller must fetch the next page of an
// earlier search instead of starting a fresh one.
type Plan struct {
	Args federation.SearchArgs
	IDs  []string
}

// Translate builds the native search plan for a request. The request must
// name a collection; when several are given the first one wins.
func (t *Translator) Translate(req *stac.SearchRequest) (*Plan, error) {
	collection := ""
	if len(req.Collections) > 0 {
		collection = req.Collections[0]
	}
	if collection == "" {
		return nil, validationErrorf("a collection is required: set the collections parameter")
	}
	if !t.ProductTypes.Has(collection) {
		return nil, federation.NewError(federation.KindNoMatchingCollection,
			"Collection "+collection+" does not exist.")
	}

	args := federation.SearchArgs{
		Collection:   collection,
		ItemsPerPage: t.clampLimit(req.Limit),
	}

	if len(req.IDs) > 0 {
		return &Plan{Args: args, IDs: req.IDs}, nil
	}

	if req.Token != "" {
		if req.Provider == "" {
			return nil, validationErrorf("a provider is required when paging with a token")
		}
		args.Token = req.Token
		args.Provider = req.Provider
		return &Plan{Args: args}, nil
	}

	args.Provider = req.Provider

	switch {
	case len(req.Intersects) > 0:
		wkt, err := IntersectsToWKT(req.Intersects)
		if err != nil {
			return nil, validationErrorf("%v", err)
		}
		args.Geometry = wkt
	case len(req.BBox) > 0:
		wkt, err := BBoxToWKT(req.BBox)
		if err != nil {
			return nil, validationErrorf("%v", err)
		}
		args.Geometry = wkt
	}

	start, end, err := ParseDateTimeInterval(req.DateTime)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}
	args.Start = start
	args.End = end

	sortBy, err := t.translateSortby(req.Sortby)
	if err != nil {
		return nil, err
	}
	args.SortBy = sortBy

	// Constraint precedence on key collision is filter first, then the
	// query extension. The winner also overrides the parsed temporal
	// bounds when it names them directly.
	constraints := make(map[string]any)

	filterArgs, err := TranslateCQL2Filter(req.Filter, t.Registry)
	if err != nil {
		return nil, err
	}
	for k, v := range filterArgs {
		constraints[k] = v
	}

	queryArgs, err := ParseQueryFilter(req.Query, t.Registry)
	if err != nil {
		return nil, err
	}
	for k, v := range queryArgs {
		constraints[k] = v
	}

	if v, ok := constraints[fields.NativeStartField].(string); ok {
		args.Start = v
		delete(constraints, fields.NativeStartField)
	}
	if v, ok := constraints[fields.NativeEndField].(string); ok {
		args.End = v
		delete(constraints, fields.NativeEndField)
	}

	if len(constraints) > 0 {
		args.Query = constraints
	}

	return &Plan{Args: args}, nil
}

// translateSortby maps sort fields to native names. The shorthands "start"
// and "end" address the engine's temporal bounds directly.
func (t *Translator) translateSortby(items []stac.SortbyItem) ([]federation.SortClause, error) {
	if len(items) == 0 {
		return nil, nil
	}

	clauses := make([]federation.SortClause, 0, len(items))
	for _, item := range items {
		var native string
		switch item.Field {
		case "start":
			native = fields.NativeStartField
		case "end":
			native = fields.NativeEndField
		default:
			var err error
			native, err = toNativeField(item.Field, t.Registry)
			if err != nil {
				return nil, err
			}
		}
		clauses = append(clauses, federation.SortClause{Field: native, Direction: item.Direction})
	}
	return clauses, nil
}

func (t *Translator) clampLimit(limit int) int {
	if limit <= 0 {
		return t.DefaultLimit
	}
	if t.MaxLimit > 0 && limit > t.MaxLimit {
		return t.MaxLimit
	}
	return limit
}
