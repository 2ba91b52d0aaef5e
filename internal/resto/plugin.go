package resto

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
)

// Backend is a federation plugin over one resto catalog. It implements
// both the search and the retrieval capability.
type Backend struct {
	name   string
	client *Client
	logger *slog.Logger
}

// NewBackend creates a federation plugin named after the backend it serves.
func NewBackend(name string, client *Client, logger *slog.Logger) *Backend {
	return &Backend{
		name:   name,
		client: client,
		logger: logger,
	}
}

// Provider returns the federation backend name.
func (b *Backend) Provider() string {
	return b.name
}

// Search runs a fresh query and returns the first page.
func (b *Backend) Search(ctx context.Context, args federation.SearchArgs) (*federation.ResultSet, error) {
	return b.searchPage(ctx, args, 1)
}

// FetchNextPage resumes a search from an opaque continuation token. resto
// pages by number, so the token is the decimal page index.
func (b *Backend) FetchNextPage(ctx context.Context, token string, args federation.SearchArgs) (*federation.ResultSet, error) {
	page, err := strconv.Atoi(token)
	if err != nil || page < 2 {
		return nil, federation.NewError(federation.KindValidation,
			fmt.Sprintf("invalid continuation token %q", token))
	}

	result, err := b.searchPage(ctx, args, page)
	if err != nil {
		return nil, err
	}
	if len(result.Products) == 0 {
		return nil, federation.ErrEndOfSequence
	}
	return result, nil
}

func (b *Backend) searchPage(ctx context.Context, args federation.SearchArgs, page int) (*federation.ResultSet, error) {
	params := b.buildParams(args, page)

	response, err := b.client.Search(ctx, args.Collection, params)
	if err != nil {
		return nil, b.classify(ctx, err)
	}

	products := make([]*federation.Product, 0, len(response.Features))
	for i := range response.Features {
		products = append(products, b.toProduct(&response.Features[i], args.Collection))
	}

	result := &federation.ResultSet{Products: products}
	if args.Count && response.Properties.TotalResults != nil {
		result.NumberMatched = response.Properties.TotalResults
	}
	if params.MaxRecords > 0 && len(products) == params.MaxRecords {
		result.NextPageToken = strconv.Itoa(page + 1)
	}
	return result, nil
}

// buildParams converts the engine's native search args to resto OpenSearch
// parameters.
func (b *Backend) buildParams(args federation.SearchArgs, page int) *SearchParams {
	params := &SearchParams{
		Geometry:       args.Geometry,
		StartDate:      args.Start,
		CompletionDate: args.End,
		Identifier:     args.ID,
		MaxRecords:     args.ItemsPerPage,
		Page:           page,
	}

	if params.MaxRecords <= 0 {
		params.MaxRecords = DefaultMaxRecords
	}
	if params.MaxRecords > MaxRecordsLimit {
		params.MaxRecords = MaxRecordsLimit
	}

	if len(args.SortBy) > 0 {
		params.SortParam = args.SortBy[0].Field
		if args.SortBy[0].Direction == "asc" {
			params.SortOrder = "ascending"
		} else {
			params.SortOrder = "descending"
		}
	}

	if len(args.Query) > 0 {
		params.Extra = make(map[string]any, len(args.Query))
		for key, value := range args.Query {
			params.Extra[key] = value
		}
	}

	return params
}

// toProduct converts one resto feature to the engine's native record.
func (b *Backend) toProduct(f *Feature, collection string) *federation.Product {
	id := f.Properties.ProductIdentifier
	if id == "" {
		id = f.ID
	}

	props := map[string]any{
		fields.NativeStartField: f.Properties.StartDate,
		fields.NativeEndField:   f.Properties.CompletionDate,
	}
	setIfNonEmpty(props, "platform", f.Properties.Platform)
	setIfNonEmpty(props, "instrument", f.Properties.Instrument)
	setIfNonEmpty(props, "processingLevel", f.Properties.ProcessingLevel)
	setIfNonEmpty(props, "sensorMode", f.Properties.SensorMode)
	if f.Properties.OrbitNumber != nil {
		props["orbitNumber"] = *f.Properties.OrbitNumber
	}
	if f.Properties.RelativeOrbit != nil {
		props["relativeOrbitNumber"] = *f.Properties.RelativeOrbit
	}
	if f.Properties.CloudCover != nil {
		props["cloudCover"] = *f.Properties.CloudCover
	}

	assets := make(map[string]federation.Asset)
	if dl := f.Properties.Services.Download; dl.URL != "" {
		mimeType := dl.MimeType
		if mimeType == "" {
			mimeType = "application/zip"
		}
		assets["product"] = federation.Asset{
			Href:  dl.URL,
			Title: f.Properties.Title,
			Type:  mimeType,
			Roles: []string{"data"},
		}
		props[federation.PropDownloadLink] = dl.URL
	}
	if f.Properties.Quicklook != "" {
		assets["quicklook"] = federation.Asset{
			Href:  f.Properties.Quicklook,
			Type:  "image/jpeg",
			Roles: []string{"overview"},
		}
	}
	if f.Properties.Thumbnail != "" {
		assets["thumbnail"] = federation.Asset{
			Href:  f.Properties.Thumbnail,
			Type:  "image/jpeg",
			Roles: []string{"thumbnail"},
		}
	}

	var links []federation.Link
	for _, l := range f.Properties.Links {
		if l.Rel == "order" {
			props[federation.PropOrderLink] = l.Href
			continue
		}
		links = append(links, federation.Link{
			Rel:   l.Rel,
			Href:  l.Href,
			Type:  l.Type,
			Title: l.Title,
		})
	}

	return &federation.Product{
		ID:         id,
		Provider:   b.name,
		Collection: collection,
		Geometry:   f.Geometry,
		Properties: props,
		Assets:     assets,
		Links:      links,
		Status:     storageStatus(f.Properties.Storage.Mode),
	}
}

// storageStatus maps resto storage modes to native retrieval statuses.
func storageStatus(mode string) string {
	switch strings.ToLower(mode) {
	case "", "disk":
		return fields.StatusOnline
	case "staging", "unknown":
		return fields.StatusStaging
	default:
		// tape and anything colder needs an order first.
		return fields.StatusOffline
	}
}

// classify wraps a raw client failure in the engine's error taxonomy.
func (b *Backend) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &federation.Error{
			Kind:    federation.KindTimeout,
			Message: fmt.Sprintf("backend %s did not answer in time", b.name),
			Detail:  err.Error(),
		}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &federation.Error{
				Kind:    federation.KindAuthentication,
				Message: fmt.Sprintf("backend %s rejected the gateway credentials", b.name),
				Detail:  apiErr.Body,
			}
		case http.StatusBadRequest:
			return &federation.Error{
				Kind:    federation.KindValidation,
				Message: fmt.Sprintf("backend %s rejected the search parameters", b.name),
				Detail:  apiErr.Body,
			}
		case http.StatusNotFound:
			return &federation.Error{
				Kind:    federation.KindUnsupportedCollection,
				Message: fmt.Sprintf("backend %s does not serve this collection", b.name),
				Detail:  apiErr.Body,
			}
		}
	}

	return &federation.Error{
		Kind:    federation.KindDownload,
		Message: fmt.Sprintf("backend %s request failed", b.name),
		Detail:  err.Error(),
	}
}

func setIfNonEmpty(props map[string]any, key, value string) {
	if value != "" {
		props[key] = value
	}
}
