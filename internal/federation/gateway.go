package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rkm/fedeo-stac-gateway/internal/config"
)

// Gateway is the process-wide catalog handle: the product type registry,
// the per-provider plugin registry and the external STAC collection cache.
// It is constructed once at startup and passed by reference into request
// handlers; after startup it is read-mostly and safe for concurrent use.
type Gateway struct {
	productTypes *config.ProductTypeRegistry
	plugins      map[string]SearchPlugin
	downloaders  map[string]Downloader
	logger       *slog.Logger

	mu       sync.RWMutex
	external map[string]map[string]any
}

// NewGateway creates a gateway over the given product type registry.
func NewGateway(productTypes *config.ProductTypeRegistry, logger *slog.Logger) *Gateway {
	return &Gateway{
		productTypes: productTypes,
		plugins:      make(map[string]SearchPlugin),
		downloaders:  make(map[string]Downloader),
		external:     make(map[string]map[string]any),
		logger:       logger,
	}
}

// RegisterPlugin registers a provider search plugin.
func (g *Gateway) RegisterPlugin(p SearchPlugin) {
	g.plugins[p.Provider()] = p
}

// RegisterDownloader registers a provider download capability.
func (g *Gateway) RegisterDownloader(provider string, d Downloader) {
	g.downloaders[provider] = d
}

// Plugin returns the search plugin registered for a provider.
func (g *Gateway) Plugin(provider string) (SearchPlugin, error) {
	p, ok := g.plugins[provider]
	if !ok {
		return nil, NewError(KindUnsupportedBackend, fmt.Sprintf("no search plugin registered for federation backend %q", provider))
	}
	return p, nil
}

// Downloader returns the download capability registered for a provider.
func (g *Gateway) Downloader(provider string) (Downloader, error) {
	d, ok := g.downloaders[provider]
	if !ok {
		return nil, NewError(KindUnsupportedBackend, fmt.Sprintf("no downloader registered for federation backend %q", provider))
	}
	return d, nil
}

// ProductTypes returns the live product type registry.
func (g *Gateway) ProductTypes() *config.ProductTypeRegistry {
	return g.productTypes
}

// Providers returns the names of all registered search plugins.
func (g *Gateway) Providers() []string {
	names := make([]string, 0, len(g.plugins))
	for name := range g.plugins {
		names = append(names, name)
	}
	return names
}

// Search runs a federated search. When args.Provider is set the search is
// pinned to that backend; otherwise the product type's backends are tried
// in priority order. Per-provider failures are collected, not raised: the
// first page with products wins, and an all-failed search still returns a
// ResultSet whose Errors field carries every failure.
func (g *Gateway) Search(ctx context.Context, args SearchArgs) (*ResultSet, error) {
	providers, err := g.searchProviders(args)
	if err != nil {
		return nil, err
	}

	aggregate := &ResultSet{}
	for _, provider := range providers {
		plugin, err := g.Plugin(provider)
		if err != nil {
			aggregate.Errors = append(aggregate.Errors, ProviderError{Provider: provider, Err: err})
			continue
		}

		providerArgs := args.Clone()
		providerArgs.Provider = provider

		result, err := plugin.Search(ctx, providerArgs)
		if err != nil {
			g.logger.Warn("federated search failed",
				slog.String("provider", provider),
				slog.String("collection", args.Collection),
				slog.String("error", err.Error()),
			)
			aggregate.Errors = append(aggregate.Errors, ProviderError{Provider: provider, Err: err})
			continue
		}

		if len(result.Products) > 0 {
			result.Errors = append(aggregate.Errors, result.Errors...)
			return result, nil
		}

		aggregate.Errors = append(aggregate.Errors, result.Errors...)
		aggregate.NumberMatched = result.NumberMatched
	}

	return aggregate, nil
}

// FetchNextPage resumes a paged search on the pinned provider. An exhausted
// token yields an empty result set, not an error.
func (g *Gateway) FetchNextPage(ctx context.Context, token, provider string, args SearchArgs) (*ResultSet, error) {
	if token == "" || provider == "" {
		return nil, NewError(KindValidation, "a continuation token and a federation backend are both required for a next page search")
	}

	plugin, err := g.Plugin(provider)
	if err != nil {
		return nil, err
	}

	providerArgs := args.Clone()
	providerArgs.Provider = provider
	providerArgs.Token = ""
	providerArgs.Count = false

	result, err := plugin.FetchNextPage(ctx, token, providerArgs)
	if err != nil {
		if err == ErrEndOfSequence {
			g.logger.Info("continuation token exhausted",
				slog.String("provider", provider),
			)
			return &ResultSet{}, nil
		}
		return nil, err
	}
	return result, nil
}

// searchProviders resolves the backends to query, in priority order.
func (g *Gateway) searchProviders(args SearchArgs) ([]string, error) {
	if args.Provider != "" {
		return []string{args.Provider}, nil
	}

	productType := g.productTypes.Get(args.Collection)
	if productType == nil {
		return nil, NewError(KindNoMatchingCollection, fmt.Sprintf("Collection %s does not exist.", args.Collection))
	}
	return productType.Backends, nil
}

// GuessCollections returns the ids of product types matching a free-text
// phrase and an optional temporal range. Matching is a case-insensitive
// substring test against id, title, abstract and keywords; the temporal
// test is mission-interval overlap.
func (g *Gateway) GuessCollections(freeText, start, end string) []string {
	var ids []string
	needle := strings.ToLower(strings.TrimSpace(freeText))

	for _, productType := range g.productTypes.All() {
		if needle != "" && !matchesFreeText(productType, needle) {
			continue
		}
		if !missionOverlaps(productType, start, end) {
			continue
		}
		ids = append(ids, productType.ID)
	}
	return ids
}

func matchesFreeText(p *config.ProductType, needle string) bool {
	haystacks := []string{p.ID, p.Title, p.Abstract}
	haystacks = append(haystacks, p.Keywords...)
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

func missionOverlaps(p *config.ProductType, start, end string) bool {
	// Open bounds on either side always overlap.
	if end != "" && p.MissionStartDate != "" && end < p.MissionStartDate {
		return false
	}
	if start != "" && p.MissionEndDate != "" && start > p.MissionEndDate {
		return false
	}
	return true
}

// ListQueryables returns collection-specific queryable value enums derived
// from the product type definition, keyed by STAC property name.
func (g *Gateway) ListQueryables(collectionID string) (map[string][]string, error) {
	productType := g.productTypes.Get(collectionID)
	if productType == nil {
		return nil, NewError(KindNoMatchingCollection, fmt.Sprintf("Collection %s does not exist.", collectionID))
	}

	enums := make(map[string][]string)
	if productType.Platform != "" {
		enums["platform"] = []string{productType.Platform}
	}
	if productType.Constellation != "" {
		enums["constellation"] = []string{productType.Constellation}
	}
	if len(productType.Instruments) > 0 {
		enums["instruments"] = productType.Instruments
	}
	if productType.ProcessingLevel != "" {
		enums["processing:level"] = []string{productType.ProcessingLevel}
	}
	enums["federation:backends"] = productType.Backends
	return enums, nil
}

// FetchExternalCollections pre-fetches externally hosted STAC collection
// documents for every product type that declares one. Failures are logged
// and skipped: a missing external document only degrades collection
// metadata.
func (g *Gateway) FetchExternalCollections(ctx context.Context, timeout time.Duration) {
	client := &http.Client{Timeout: timeout}

	for _, productType := range g.productTypes.All() {
		if productType.StacCollectionURL == "" {
			continue
		}

		doc, err := fetchCollectionDoc(ctx, client, productType.StacCollectionURL)
		if err != nil {
			g.logger.Warn("failed to fetch external STAC collection",
				slog.String("collection", productType.ID),
				slog.String("url", productType.StacCollectionURL),
				slog.String("error", err.Error()),
			)
			continue
		}

		g.mu.Lock()
		g.external[productType.ID] = doc
		g.mu.Unlock()

		g.logger.Info("fetched external STAC collection",
			slog.String("collection", productType.ID),
		)
	}
}

func fetchCollectionDoc(ctx context.Context, client *http.Client, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode collection document: %w", err)
	}
	return doc, nil
}

// ExternalCollection returns the pre-fetched external STAC document for a
// collection, or nil when none was fetched.
func (g *Gateway) ExternalCollection(collectionID string) map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.external[collectionID]
}
