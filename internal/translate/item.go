package translate

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/rkm/fedeo-stac-gateway/internal/config"
	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
	"github.com/rkm/fedeo-stac-gateway/internal/stac"
	"github.com/rkm/fedeo-stac-gateway/pkg/geojson"
)

// orderLinkBodyKeys are the query parameter names providers embed the
// order payload under. The first present key wins.
var orderLinkBodyKeys = []string{"request", "inputs", "location"}

// ItemAssembler converts native products into STAC items. It is built
// once at startup from the download configuration and field registry.
type ItemAssembler struct {
	Registry            *fields.Registry
	Download            config.DownloadConfig
	DataDownloadEnabled bool

	// DownloadBase is the absolute URL the asset proxy endpoints hang off.
	DownloadBase string
	StacVersion  string
}

// Assemble builds the STAC item for one native product. links carries the
// request-scoped URL context for the item's hyperlinks.
func (a *ItemAssembler) Assemble(p *federation.Product, links *stac.ItemLinks) (*stac.Item, error) {
	if p.Collection == "" {
		return nil, federation.NewError(federation.KindNotAvailable,
			fmt.Sprintf("Product %s does not belong to any collection", p.ID))
	}

	quotedID := url.PathEscape(p.ID)
	item := stac.NewItem(quotedID, p.Collection, a.StacVersion)
	item.Geometry = p.Geometry
	if p.Geometry != nil {
		if bbox, err := geojson.ComputeBBox(p.Geometry); err == nil {
			item.BBox = bbox
		}
	}

	proxyBase := ""
	if a.DataDownloadEnabled {
		proxyBase = fmt.Sprintf("%s/data/%s/%s/%s", a.DownloadBase, p.Provider, p.Collection, quotedID)
	}

	status := p.Status
	for _, backend := range a.Download.AutoOrderWhitelist {
		if backend == p.Provider {
			status = fields.StatusOnline
			break
		}
	}

	if status != fields.StatusOffline {
		a.assembleAssets(item, p, proxyBase)
	}

	item.Properties = a.assembleProperties(p, status)
	item.StacExtensions = a.Registry.ConformanceClasses(item.Properties)

	orderLink := p.OrderLink()
	orderable := orderLink != "" && status == fields.StatusOffline
	if !orderable {
		item.StacExtensions = removeString(item.StacExtensions, a.Registry.SchemaHref("order:status"))
	}

	var orderBody map[string]any
	if orderable {
		body, err := parseOrderLinkBody(orderLink)
		if err != nil {
			return nil, err
		}
		orderBody = body
	}

	item.Links = links.Links()
	if orderable {
		item.Links = append(item.Links, &stac.Link{
			Rel:    "order",
			Href:   links.OrderHref(p.Provider, p.DatacubeQS()),
			Type:   stac.MediaTypeJSON,
			Method: "POST",
			Body:   orderBody,
		})
	}
	item.Links = append(item.Links, resolveExtraLinks(p.Links, &links.BaseLinks)...)

	return item, nil
}

// assembleAssets copies the product's assets onto the item, rewriting
// hrefs to the asset proxy when it is enabled.
func (a *ItemAssembler) assembleAssets(item *stac.Item, p *federation.Product, proxyBase string) {
	hasZarr := false
	for key, native := range p.Assets {
		asset := &stac.Asset{
			Href:  native.Href,
			Title: native.Title,
			Type:  native.Type,
			Roles: native.Roles,
		}
		if proxyBase != "" {
			asset.Href = proxyBase + "/" + url.PathEscape(key)
			a.preserveOrigin(asset, native.Href)
		}
		if strings.Contains(strings.ToLower(native.Type), "zarr") || strings.HasSuffix(native.Href, ".zarr") {
			hasZarr = true
		}
		item.Assets[key] = asset
	}

	if dl := p.DownloadLink(); dl != "" {
		asset := &stac.Asset{
			Href:  dl,
			Title: "Download link",
			Type:  guessMediaType(dl),
			Roles: []string{"data"},
		}
		if proxyBase != "" {
			asset.Href = proxyBase
			a.preserveOrigin(asset, dl)
		}
		item.Assets["downloadLink"] = asset
	}

	if hasZarr && proxyBase != "" {
		item.Assets["Zarr index"] = &stac.Asset{
			Href:  proxyBase + "/zarr/index",
			Title: "Zarr index",
			Type:  stac.MediaTypeJSON,
			Roles: []string{"metadata"},
		}
	}
}

// preserveOrigin records the backend-origin URL of a proxied asset, unless
// origin preservation is off or the URL matches the prefix blacklist.
func (a *ItemAssembler) preserveOrigin(asset *stac.Asset, origin string) {
	if !a.Download.KeepOriginURL || origin == "" {
		return
	}
	for _, prefix := range a.Download.OriginURLBlacklist {
		if strings.HasPrefix(origin, prefix) {
			return
		}
	}
	asset.Alternate = &stac.AssetAlternate{Origin: &stac.Asset{Href: origin}}
}

// assembleProperties translates native property names to STAC vocabulary,
// drops engine-internal keys and adds the derived status fields.
func (a *ItemAssembler) assembleProperties(p *federation.Product, status string) map[string]any {
	native := make(map[string]any, len(p.Properties))
	for k, v := range p.Properties {
		if strings.HasPrefix(k, federation.InternalPrefix) || k == "qs" {
			continue
		}
		native[k] = v
	}

	props := a.Registry.TranslateProperties(native)
	props["federation:backends"] = []string{p.Provider}
	if status != "" {
		props["order:status"] = fields.StatusToStac(status)
		props["storage:tier"] = status
	}
	return props
}

// parseOrderLinkBody extracts the order payload template embedded in the
// order link's query string. The payload may be double-encoded as a JSON
// string.
func parseOrderLinkBody(orderLink string) (map[string]any, error) {
	u, err := url.Parse(orderLink)
	if err != nil {
		return nil, federation.NewError(federation.KindMisconfiguration,
			fmt.Sprintf("order link is not a valid URL: %s", orderLink))
	}

	query := u.Query()
	for _, key := range orderLinkBodyKeys {
		raw := query.Get(key)
		if raw == "" {
			continue
		}

		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, misconfiguredOrderBody(key)
		}
		if s, ok := value.(string); ok {
			if err := json.Unmarshal([]byte(s), &value); err != nil {
				return nil, misconfiguredOrderBody(key)
			}
		}

		body, ok := value.(map[string]any)
		if !ok {
			return nil, misconfiguredOrderBody(key)
		}
		return body, nil
	}

	return nil, nil
}

func misconfiguredOrderBody(key string) error {
	return federation.NewError(federation.KindMisconfiguration,
		fmt.Sprintf("order link parameter %q must hold a JSON object", key))
}

// removeString returns the slice without the given value. An empty value
// leaves the slice untouched.
func removeString(values []string, value string) []string {
	if value == "" {
		return values
	}
	kept := values[:0]
	for _, v := range values {
		if v != value {
			kept = append(kept, v)
		}
	}
	return kept
}

// resolveExtraLinks converts provider links to absolute URLs and drops
// relations the gateway derives itself.
func resolveExtraLinks(extra []federation.Link, base *stac.BaseLinks) []*stac.Link {
	links := make([]*stac.Link, 0, len(extra))
	for _, l := range extra {
		if stac.InferredLinkRels[l.Rel] {
			continue
		}
		links = append(links, &stac.Link{
			Rel:   l.Rel,
			Href:  base.Resolve(l.Href),
			Type:  l.Type,
			Title: l.Title,
		})
	}
	return links
}

// guessMediaType infers a MIME type from a download URL's file extension.
func guessMediaType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "application/octet-stream"
	}
	if t := mime.TypeByExtension(path.Ext(u.Path)); t != "" {
		return t
	}
	return "application/octet-stream"
}
