// Package federation defines the contract with the federated
// search-and-retrieval engine and the process-wide catalog handle built on
// top of it. Provider plugins implement the search/download interfaces;
// everything else in the service only sees the Gateway.
package federation

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/rkm/fedeo-stac-gateway/pkg/geojson"
)

// ErrEndOfSequence is returned by a plugin's FetchNextPage when the
// continuation token has no further pages. It signals normal pagination
// termination, not a failure.
var ErrEndOfSequence = errors.New("no more result pages")

// ErrorKind classifies provider failures for HTTP status mapping.
type ErrorKind string

const (
	KindAuthentication        ErrorKind = "AuthenticationError"
	KindMisconfiguration      ErrorKind = "MisconfiguredError"
	KindDownload              ErrorKind = "DownloadError"
	KindNotAvailable          ErrorKind = "NotAvailableError"
	KindNoMatchingCollection  ErrorKind = "NoMatchingCollection"
	KindUnsupportedCollection ErrorKind = "UnsupportedCollection"
	KindUnsupportedBackend    ErrorKind = "UnsupportedBackend"
	KindTimeout               ErrorKind = "TimeOutError"
	KindValidation            ErrorKind = "ValidationError"
)

// Error is a classified provider failure. Parameters lists native field
// names referenced by the message so user-facing text can be rewritten to
// STAC vocabulary.
type Error struct {
	Kind       ErrorKind
	Message    string
	Detail     string
	Parameters []string
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds a classified error.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// SortClause is one (native field, direction) sort criterion.
type SortClause struct {
	Field     string
	Direction string // "asc" or "desc"
}

// SearchArgs is the native keyword-argument form of a search, produced by
// the query translator. Collection and ID are singular: the engine's search
// primitive accepts exactly one collection and at most one id per call.
type SearchArgs struct {
	Collection string
	ID         string

	// Provider pins the search to one federation backend. Required once a
	// continuation token is in play: tokens are not portable across
	// backends.
	Provider string

	Geometry string // WKT
	Start    string // ISO8601, empty for an open lower bound
	End      string // ISO8601, empty for an open upper bound

	SortBy []SortClause

	// Query holds the flat native constraints merged from the free-text
	// query and the CQL2 filter.
	Query map[string]any

	ItemsPerPage int
	Token        string
	Count        bool
	Validate     bool
}

// Clone returns a copy of the args with an independent Query map.
func (a SearchArgs) Clone() SearchArgs {
	out := a
	if a.Query != nil {
		out.Query = make(map[string]any, len(a.Query))
		for k, v := range a.Query {
			out.Query[k] = v
		}
	}
	if a.SortBy != nil {
		out.SortBy = append([]SortClause(nil), a.SortBy...)
	}
	return out
}

// Asset is a native product asset as reported by a provider.
type Asset struct {
	Href  string   `json:"href"`
	Title string   `json:"title,omitempty"`
	Type  string   `json:"type,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Link is an extra hyperlink attached to a native record by its provider.
// Hrefs may be relative; the link builder resolves them.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// Property keys used by the engine for internal metadata. They are carried
// in Product.Properties and stripped before properties reach clients.
const (
	PropOrderLink    = "fed:order_link"
	PropDownloadLink = "fed:download_link"
	PropDatacubeQS   = "fed:dc_qs"
	InternalPrefix   = "fed:"
)

// Product is one native record returned by a provider search.
type Product struct {
	ID         string
	Provider   string
	Collection string
	Geometry   *geojson.Geometry
	Properties map[string]any
	Assets     map[string]Asset
	Links      []Link

	// Status is the native retrieval status (ONLINE, STAGING, OFFLINE).
	Status string
}

// OrderLink returns the provider's order URL for this product, if any.
func (p *Product) OrderLink() string {
	s, _ := p.Properties[PropOrderLink].(string)
	return s
}

// DownloadLink returns the provider's direct download URL, if any.
func (p *Product) DownloadLink() string {
	s, _ := p.Properties[PropDownloadLink].(string)
	return s
}

// DatacubeQS returns the datacube query string attached by the provider.
func (p *Product) DatacubeQS() string {
	s, _ := p.Properties[PropDatacubeQS].(string)
	return s
}

// ProviderError is one (backend name, failure) pair from a federated
// search.
type ProviderError struct {
	Provider string
	Err      error
}

// ResultSet is one page of federated search results. Errors carries
// per-provider failures that did not prevent the page from being built.
type ResultSet struct {
	Products      []*Product
	Errors        []ProviderError
	NumberMatched *int
	NextPageToken string
}

// SearchPlugin is the per-provider search capability registered with the
// gateway.
type SearchPlugin interface {
	// Provider returns the federation backend name this plugin serves.
	Provider() string

	// Search runs a fresh query and returns the first page.
	Search(ctx context.Context, args SearchArgs) (*ResultSet, error)

	// FetchNextPage resumes a previous search from an opaque continuation
	// token. Returns ErrEndOfSequence when the token is exhausted.
	FetchNextPage(ctx context.Context, token string, args SearchArgs) (*ResultSet, error)
}

// DownloadStream is an opaque pass-through stream for one asset.
type DownloadStream struct {
	Content    io.ReadCloser
	Headers    http.Header
	MediaType  string
	StatusCode int
}

// Downloader is the per-provider retrieval capability: streaming assets and
// placing/polling asynchronous orders.
type Downloader interface {
	// Stream opens the byte stream for an asset. filePath selects a file
	// inside container assets (Zarr stores); empty means the asset itself.
	Stream(ctx context.Context, product *Product, assetKey, filePath string) (*DownloadStream, error)

	// Order places an asynchronous retrieval order and returns its id.
	Order(ctx context.Context, product *Product, body map[string]any) (string, error)

	// OrderStatus polls an order and returns the product's native
	// retrieval status.
	OrderStatus(ctx context.Context, product *Product, orderID string) (string, error)
}
