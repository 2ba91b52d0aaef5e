package resto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
)

// orderReply is the body resto order endpoints answer with. Deployments
// disagree on the id field name.
type orderReply struct {
	OrderID string `json:"orderId"`
	ID      string `json:"id"`
	Status  string `json:"status"`
}

// Stream opens the byte stream for one asset. filePath addresses a file
// inside container assets and is appended to the asset URL.
func (b *Backend) Stream(ctx context.Context, product *federation.Product, assetKey, filePath string) (*federation.DownloadStream, error) {
	target := b.assetURL(product, assetKey)
	if target == "" {
		// The gateway hands over a bare product reference; resolve the
		// asset URLs by looking the record up again.
		resolved, err := b.resolveProduct(ctx, product)
		if err != nil {
			return nil, err
		}
		target = b.assetURL(resolved, assetKey)
	}
	if target == "" {
		return nil, federation.NewError(federation.KindNotAvailable,
			fmt.Sprintf("product %s has no asset %q", product.ID, assetKey))
	}
	if filePath != "" {
		target = strings.TrimSuffix(target, "/") + "/" + filePath
	}
	if qs := product.DatacubeQS(); qs != "" {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + qs
	}

	resp, err := b.client.Fetch(ctx, target)
	if err != nil {
		return nil, b.classify(ctx, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusAccepted:
		resp.Body.Close()
		return nil, federation.NewError(federation.KindNotAvailable,
			fmt.Sprintf("product %s is still being staged", product.ID))
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, federation.NewError(federation.KindAuthentication,
			fmt.Sprintf("backend %s rejected the gateway credentials", b.name))
	default:
		resp.Body.Close()
		return nil, federation.NewError(federation.KindDownload,
			fmt.Sprintf("backend %s answered status %d for asset %q", b.name, resp.StatusCode, assetKey))
	}

	return &federation.DownloadStream{
		Content:    resp.Body,
		Headers:    passthroughHeaders(resp.Header),
		MediaType:  resp.Header.Get("Content-Type"),
		StatusCode: http.StatusOK,
	}, nil
}

// Order places an asynchronous retrieval order and returns its id.
func (b *Backend) Order(ctx context.Context, product *federation.Product, body map[string]any) (string, error) {
	target := product.OrderLink()
	if target == "" {
		target = fmt.Sprintf("%s/api/collections/%s/orders",
			b.client.baseURL, url.PathEscape(product.Collection))
	}
	if qs := product.DatacubeQS(); qs != "" {
		separator := "?"
		if strings.Contains(target, "?") {
			separator = "&"
		}
		target += separator + qs
	}

	var reply orderReply
	if err := b.client.PostJSON(ctx, target, body, &reply); err != nil {
		return "", b.classify(ctx, err)
	}

	orderID := reply.OrderID
	if orderID == "" {
		orderID = reply.ID
	}
	return orderID, nil
}

// OrderStatus polls an order and returns the product's native retrieval
// status. An unknown order id yields an empty status, not an error.
func (b *Backend) OrderStatus(ctx context.Context, product *federation.Product, orderID string) (string, error) {
	target := fmt.Sprintf("%s/api/orders/%s.json", b.client.baseURL, url.PathEscape(orderID))

	resp, err := b.client.Fetch(ctx, target)
	if err != nil {
		return "", b.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", federation.NewError(federation.KindDownload,
			fmt.Sprintf("backend %s answered status %d for order %s", b.name, resp.StatusCode, orderID))
	}

	var reply orderReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", federation.NewError(federation.KindDownload,
			fmt.Sprintf("backend %s returned an unreadable order status: %v", b.name, err))
	}
	return orderNativeStatus(reply.Status), nil
}

// orderNativeStatus maps resto order states to native retrieval statuses.
func orderNativeStatus(status string) string {
	switch strings.ToLower(status) {
	case "done", "completed", "available":
		return fields.StatusOnline
	case "pending", "running", "staging":
		return fields.StatusStaging
	case "":
		return ""
	default:
		return fields.StatusOffline
	}
}

// resolveProduct re-fetches a product whose assets are not populated.
func (b *Backend) resolveProduct(ctx context.Context, product *federation.Product) (*federation.Product, error) {
	if product.ID == "" || product.Collection == "" {
		return nil, federation.NewError(federation.KindNotAvailable,
			"a product id and collection are required to resolve assets")
	}

	feature, err := b.client.GetFeature(ctx, product.Collection, product.ID)
	if err != nil {
		return nil, b.classify(ctx, err)
	}
	if feature == nil {
		return nil, federation.NewError(federation.KindNotAvailable,
			fmt.Sprintf("product %s not found in collection %s", product.ID, product.Collection))
	}
	return b.toProduct(feature, product.Collection), nil
}

// assetURL resolves the backend URL of one asset key.
func (b *Backend) assetURL(product *federation.Product, assetKey string) string {
	if asset, ok := product.Assets[assetKey]; ok && asset.Href != "" {
		return asset.Href
	}
	if assetKey == "downloadLink" || assetKey == "" {
		return product.DownloadLink()
	}
	return ""
}

// passthroughHeaders keeps the response headers a download client cares
// about.
func passthroughHeaders(h http.Header) http.Header {
	out := http.Header{}
	for _, name := range []string{"Content-Length", "Content-Disposition", "Last-Modified", "ETag", "Accept-Ranges"} {
		if v := h.Get(name); v != "" {
			out.Set(name, v)
		}
	}
	return out
}
