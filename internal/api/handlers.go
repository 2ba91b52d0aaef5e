package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rkm/fedeo-stac-gateway/internal/config"
	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
	"github.com/rkm/fedeo-stac-gateway/internal/stac"
	"github.com/rkm/fedeo-stac-gateway/internal/translate"
)

// Handlers contains all HTTP handlers for the STAC API.
type Handlers struct {
	cfg        *config.Config
	gateway    *federation.Gateway
	translator *translate.Translator
	assembler  *translate.ItemAssembler
	registry   *fields.Registry
	logger     *slog.Logger
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(
	cfg *config.Config,
	gateway *federation.Gateway,
	registry *fields.Registry,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:     cfg,
		gateway: gateway,
		translator: &translate.Translator{
			Registry:     registry,
			ProductTypes: gateway.ProductTypes(),
			DefaultLimit: cfg.Features.DefaultLimit,
			MaxLimit:     cfg.Features.MaxLimit,
		},
		assembler: &translate.ItemAssembler{
			Registry:            registry,
			Download:            cfg.Download,
			DataDownloadEnabled: cfg.Features.EnableDataDownload,
			DownloadBase:        cfg.DownloadBaseURL(),
			StacVersion:         cfg.STAC.Version,
		},
		registry: registry,
		logger:   logger,
	}
}

// baseLinks builds the URL context for the current request.
func (h *Handlers) baseLinks(r *http.Request) stac.BaseLinks {
	return stac.BaseLinks{
		BaseURL:    h.cfg.STAC.BaseURL,
		CurrentURL: h.cfg.STAC.BaseURL + r.URL.RequestURI(),
		Method:     r.Method,
	}
}

// Health returns a simple health check response.
// GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LandingPage returns the STAC API landing page (root catalog).
// GET /
func (h *Handlers) LandingPage(w http.ResponseWriter, r *http.Request) {
	baseURL := h.cfg.STAC.BaseURL

	landing := stac.NewLandingPage(
		"fedeo-stac-gateway",
		h.cfg.STAC.Title,
		h.cfg.STAC.Description,
		h.cfg.STAC.Version,
		stac.DefaultConformance(),
	)

	landing.AddLink("self", baseURL+"/", stac.MediaTypeJSON)
	landing.AddLink("root", baseURL+"/", stac.MediaTypeJSON)
	landing.AddLink("conformance", baseURL+"/conformance", stac.MediaTypeJSON)
	landing.AddLink("data", baseURL+"/collections", stac.MediaTypeJSON)

	for _, method := range []string{"GET", "POST"} {
		landing.Links = append(landing.Links, &stac.Link{
			Rel:    "search",
			Href:   baseURL + "/search",
			Type:   stac.MediaTypeGeoJSON,
			Method: method,
		})
	}

	if h.cfg.Features.EnableQueryables {
		landing.AddLink("http://www.opengis.net/def/rel/ogc/1.0/queryables", baseURL+"/queryables", stac.MediaTypeSchema)
	}

	for _, id := range h.gateway.ProductTypes().IDs() {
		landing.Links = append(landing.Links, &stac.Link{
			Rel:  "child",
			Href: baseURL + "/collections/" + id,
			Type: stac.MediaTypeJSON,
		})
	}

	landing.AddLink("service-desc", baseURL+"/api", "application/vnd.oai.openapi+json;version=3.0")
	landing.AddLink("service-doc", baseURL+"/api.html", "text/html")

	WriteJSON(w, http.StatusOK, landing)
}

// Conformance returns the conformance classes supported by this API.
// GET /conformance
func (h *Handlers) Conformance(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, &stac.Conformance{
		ConformsTo: stac.DefaultConformance(),
	})
}

// Collections returns the list of available collections, filtered by the
// collection-search parameters (bbox, datetime, q, provider) and paged by
// limit/offset.
// GET /collections
func (h *Handlers) Collections(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := h.cfg.Features.DefaultLimit
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			WriteInvalidParameter(w, "limit must be a positive integer")
			return
		}
		if v > h.cfg.Features.MaxLimit {
			v = h.cfg.Features.MaxLimit
		}
		limit = v
	}

	offset := 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			WriteInvalidParameter(w, "offset must be a non-negative integer")
			return
		}
		offset = v
	}

	var bbox []float64
	if s := query.Get("bbox"); s != "" {
		parsed, err := stac.ParseBBoxParam(s)
		if err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
		bbox = parsed
	}

	freeText := query.Get("q")
	datetime := query.Get("datetime")
	start, end := "", ""
	if datetime != "" {
		var err error
		start, end, err = translate.ParseDateTimeInterval(datetime)
		if err != nil {
			WriteInvalidParameter(w, err.Error())
			return
		}
	}

	candidates := h.gateway.ProductTypes().All()
	if provider := query.Get("provider"); provider != "" {
		candidates = h.gateway.ProductTypes().FindByBackend(provider)
	}

	if freeText != "" || datetime != "" {
		guessed := make(map[string]bool)
		for _, id := range h.gateway.GuessCollections(freeText, start, end) {
			guessed[id] = true
		}
		kept := candidates[:0]
		for _, pt := range candidates {
			if guessed[pt.ID] {
				kept = append(kept, pt)
			}
		}
		candidates = kept
	}

	if bbox != nil {
		kept := candidates[:0]
		for _, pt := range candidates {
			if translate.MatchesBBox(pt, bbox) {
				kept = append(kept, pt)
			}
		}
		candidates = kept
	}

	matched := len(candidates)
	if offset > matched {
		offset = matched
	}
	page := candidates[offset:]
	if len(page) > limit {
		page = page[:limit]
	}

	base := h.baseLinks(r)
	collections := make([]*stac.Collection, 0, len(page))
	for _, pt := range page {
		links := &stac.CollectionLinks{BaseLinks: base, CollectionID: pt.ID}
		collections = append(collections, translate.AssembleCollection(
			pt, h.gateway.ExternalCollection(pt.ID), links, h.cfg.STAC.Version))
	}

	list := stac.NewCollectionsList(collections, matched)
	paging := &stac.CollectionSearchPagingLinks{
		BaseLinks: base,
		Offset:    offset,
		Limit:     limit,
		Matched:   matched,
	}
	list.Links = paging.Links()

	WriteJSON(w, http.StatusOK, list)
}

// Collection returns a single collection by ID.
// GET /collections/{collectionId}
func (h *Handlers) Collection(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	pt := h.gateway.ProductTypes().Get(collectionID)
	if pt == nil {
		WriteNotFound(w, "Collection "+collectionID+" does not exist.")
		return
	}

	links := &stac.CollectionLinks{BaseLinks: h.baseLinks(r), CollectionID: collectionID}
	collection := translate.AssembleCollection(
		pt, h.gateway.ExternalCollection(collectionID), links, h.cfg.STAC.Version)

	WriteJSON(w, http.StatusOK, collection)
}

// Items returns the items of a collection.
// GET /collections/{collectionId}/items
func (h *Handlers) Items(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")

	req, err := stac.ParseSearchRequest(r)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	req.Collections = []string{collectionID}

	h.runSearch(w, r, req, nil, collectionID)
}

// Item returns a single item by ID.
// GET /collections/{collectionId}/items/{itemId}
func (h *Handlers) Item(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	itemID, err := url.PathUnescape(chi.URLParam(r, "itemId"))
	if err != nil {
		WriteInvalidParameter(w, "invalid item id")
		return
	}

	req := &stac.SearchRequest{
		Collections: []string{collectionID},
		IDs:         []string{itemID},
		Limit:       1,
	}

	plan, err := h.translator.Translate(req)
	if err != nil {
		h.writeTranslationError(w, err)
		return
	}

	products, errs := h.collectByID(r.Context(), plan)
	if len(products) == 0 {
		if len(errs) > 0 {
			status, list := translate.TranslateSearchErrors(errs, h.registry, h.logger)
			WriteJSON(w, status, list)
			return
		}
		WriteNotFound(w, "Item "+itemID+" does not exist in collection "+collectionID+".")
		return
	}

	item, err := h.assembleOne(products[0], r)
	if err != nil {
		h.writeTranslationError(w, err)
		return
	}
	WriteGeoJSON(w, http.StatusOK, item)
}

// Search handles both GET and POST item searches.
// GET/POST /search
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req *stac.SearchRequest
	var postBody map[string]any
	var err error

	if r.Method == http.MethodPost {
		req, postBody, err = stac.ParseSearchRequestBody(r.Body)
	} else {
		req, err = stac.ParseSearchRequest(r)
	}
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}

	h.runSearch(w, r, req, postBody, "")
}

// runSearch executes a translated search plan and writes the resulting
// ItemCollection. collectionID scopes the response links to an items
// endpoint when non-empty.
func (h *Handlers) runSearch(w http.ResponseWriter, r *http.Request, req *stac.SearchRequest, postBody map[string]any, collectionID string) {
	plan, err := h.translator.Translate(req)
	if err != nil {
		h.writeTranslationError(w, err)
		return
	}

	ctx := r.Context()
	var (
		products      []*federation.Product
		numberMatched *int
		nextToken     string
		provider      string
		provErrs      []federation.ProviderError
	)

	switch {
	case len(plan.IDs) > 0:
		products, provErrs = h.collectByID(ctx, plan)
		count := len(products)
		numberMatched = &count
	default:
		args := h.searchDefaults(plan.Args)
		var rs *federation.ResultSet
		var err error
		if args.Token != "" {
			rs, err = h.gateway.FetchNextPage(ctx, args.Token, args.Provider, args)
		} else {
			rs, err = h.gateway.Search(ctx, args)
		}
		if err != nil {
			h.writeTranslationError(w, err)
			return
		}
		products = rs.Products
		numberMatched = rs.NumberMatched
		nextToken = rs.NextPageToken
		provErrs = rs.Errors
	}

	if len(products) == 0 && len(provErrs) > 0 {
		status, list := translate.TranslateSearchErrors(provErrs, h.registry, h.logger)
		WriteJSON(w, status, list)
		return
	}

	if provider == "" {
		provider = plan.Args.Provider
	}
	if provider == "" && len(products) > 0 {
		provider = products[0].Provider
	}

	items := make([]*stac.Item, 0, len(products))
	for _, p := range products {
		item, err := h.assembleOne(p, r)
		if err != nil {
			h.logger.Warn("skipping product that cannot be represented as an item",
				slog.String("product", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		items = append(items, item)
	}

	ic := stac.NewItemCollection(items)
	ic.NumberMatched = numberMatched

	base := h.baseLinks(r)
	base.PostBody = postBody
	icLinks := &stac.ItemCollectionLinks{BaseLinks: base, CollectionID: collectionID}
	ic.Links = icLinks.Links()

	paging := &stac.PagingLinks{
		BaseLinks: base,
		NextToken: nextToken,
		Provider:  provider,
	}
	if next := paging.Next(); next != nil {
		ic.Links = append(ic.Links, next)
	}

	WriteGeoJSON(w, http.StatusOK, ic)
}

// collectByID runs one native search per requested id and concatenates the
// hits. Providers that cannot serve an id contribute errors, not failures.
func (h *Handlers) collectByID(ctx context.Context, plan *translate.Plan) ([]*federation.Product, []federation.ProviderError) {
	var products []*federation.Product
	var errs []federation.ProviderError

	for _, id := range plan.IDs {
		args := h.searchDefaults(plan.Args)
		args.ID = id
		args.ItemsPerPage = 1

		rs, err := h.gateway.Search(ctx, args)
		if err != nil {
			name := args.Provider
			if name == "" {
				name = "gateway"
			}
			errs = append(errs, federation.ProviderError{Provider: name, Err: err})
			continue
		}
		products = append(products, rs.Products...)
		errs = append(errs, rs.Errors...)
	}

	return products, errs
}

// searchDefaults applies the engine-wide search options from configuration.
func (h *Handlers) searchDefaults(args federation.SearchArgs) federation.SearchArgs {
	out := args.Clone()
	out.Count = h.cfg.Federation.Count
	out.Validate = h.cfg.Federation.ValidateRequests
	return out
}

func (h *Handlers) assembleOne(p *federation.Product, r *http.Request) (*stac.Item, error) {
	links := &stac.ItemLinks{
		BaseLinks:    h.baseLinks(r),
		CollectionID: p.Collection,
		ItemID:       p.ID,
	}
	return h.assembler.Assemble(p, links)
}

// writeTranslationError maps a classified error to its HTTP status and
// writes the STAC error body. Sensitive kinds are redacted.
func (h *Handlers) writeTranslationError(w http.ResponseWriter, err error) {
	status := translate.StatusForError(err)
	message := err.Error()

	var fe *federation.Error
	if errors.As(err, &fe) {
		if fe.Kind == federation.KindAuthentication || fe.Kind == federation.KindMisconfiguration {
			h.logger.Error("redacted error",
				slog.String("kind", string(fe.Kind)),
				slog.String("error", fe.Message),
				slog.String("detail", fe.Detail),
			)
			message = translate.RedactedMessage
		}
	}

	WriteError(w, status, statusCode(status), message)
}
