package stac

import (
	"fmt"
	"net/url"
	"strconv"
)

// InferredLinkRels are link relations the gateway derives itself from the
// request URL. Matching links coming from a federation backend are dropped
// so they cannot conflict with the gateway's own.
var InferredLinkRels = map[string]bool{
	"self":       true,
	"item":       true,
	"parent":     true,
	"collection": true,
	"root":       true,
}

// FilterInferred returns the links whose rel is not derived by the gateway.
func FilterInferred(links []*Link) []*Link {
	out := make([]*Link, 0, len(links))
	for _, link := range links {
		if link == nil || InferredLinkRels[link.Rel] {
			continue
		}
		out = append(out, link)
	}
	return out
}

// MergeParams returns rawURL with the given query parameters set,
// overwriting any existing values for the same keys.
func MergeParams(rawURL string, params map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// BaseLinks builds the links shared by every STAC response.
type BaseLinks struct {
	// BaseURL is the service root, without a trailing slash.
	BaseURL string
	// CurrentURL is the full URL of the current request, including the
	// query string.
	CurrentURL string
	// Method is the HTTP method of the current request.
	Method string
	// PostBody is the decoded request body for POST requests, used to
	// rebuild pagination links.
	PostBody map[string]any
}

// Resolve joins a relative path onto the service root.
func (b *BaseLinks) Resolve(path string) string {
	base, err := url.Parse(b.BaseURL + "/")
	if err != nil {
		return b.BaseURL + "/" + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return b.BaseURL + "/" + path
	}
	return base.ResolveReference(ref).String()
}

// Self returns the self link for the current request.
func (b *BaseLinks) Self(mediaType string) *Link {
	return &Link{Rel: "self", Href: b.CurrentURL, Type: mediaType}
}

// Root returns the root link for the service.
func (b *BaseLinks) Root() *Link {
	return &Link{Rel: "root", Href: b.BaseURL, Type: MediaTypeJSON}
}

// PagingLinks builds next and previous links for item searches. Tokens
// are opaque backend continuation tokens, and Provider pins the paged
// request to the backend that issued them.
type PagingLinks struct {
	BaseLinks
	NextToken string
	PrevToken string
	Provider  string
}

// Next returns the next page link, or nil if there is none. For GET
// requests the token and provider are merged into the current query
// string; for POST requests they are merged into a copy of the original
// request body.
func (p *PagingLinks) Next() *Link {
	return p.pageLink("next", p.NextToken)
}

// Prev returns the previous page link, or nil if there is none.
func (p *PagingLinks) Prev() *Link {
	return p.pageLink("prev", p.PrevToken)
}

func (p *PagingLinks) pageLink(rel, token string) *Link {
	if token == "" {
		return nil
	}

	if p.Method == "POST" {
		body := make(map[string]any, len(p.PostBody)+2)
		for k, v := range p.PostBody {
			body[k] = v
		}
		body["token"] = token
		if p.Provider != "" {
			body["provider"] = p.Provider
		}
		return &Link{
			Rel:    rel,
			Href:   p.CurrentURL,
			Type:   MediaTypeGeoJSON,
			Method: "POST",
			Body:   body,
		}
	}

	params := map[string]string{"token": token}
	if p.Provider != "" {
		params["provider"] = p.Provider
	}
	href, err := MergeParams(p.CurrentURL, params)
	if err != nil {
		return nil
	}
	return &Link{Rel: rel, Href: href, Type: MediaTypeGeoJSON, Method: "GET"}
}

// CollectionLinks builds the links for a single collection response.
type CollectionLinks struct {
	BaseLinks
	CollectionID string
}

func (c *CollectionLinks) Links() []*Link {
	return []*Link{
		{Rel: "self", Href: c.Resolve("collections/" + c.CollectionID), Type: MediaTypeJSON},
		{Rel: "parent", Href: c.BaseURL, Type: MediaTypeJSON},
		{Rel: "root", Href: c.BaseURL, Type: MediaTypeJSON},
		{Rel: "items", Href: c.Resolve("collections/" + c.CollectionID + "/items"), Type: MediaTypeGeoJSON},
	}
}

// ItemLinks builds the links for a single item response.
type ItemLinks struct {
	BaseLinks
	CollectionID string
	ItemID       string
}

func (i *ItemLinks) Links() []*Link {
	collectionHref := i.Resolve("collections/" + i.CollectionID)
	return []*Link{
		{Rel: "self", Href: collectionHref + "/items/" + url.PathEscape(i.ItemID), Type: MediaTypeGeoJSON},
		{Rel: "parent", Href: collectionHref, Type: MediaTypeJSON},
		{Rel: "collection", Href: collectionHref, Type: MediaTypeJSON},
		{Rel: "root", Href: i.BaseURL, Type: MediaTypeJSON},
	}
}

// OrderHref returns the order endpoint for the item's backend, with the
// datacube query string carried through when present.
func (i *ItemLinks) OrderHref(provider, dcQS string) string {
	href := i.Resolve("collections/" + i.CollectionID + "/" + url.PathEscape(provider) + "/orders")
	if dcQS != "" {
		merged, err := MergeParams(href, map[string]string{"dc_qs": dcQS})
		if err == nil {
			href = merged
		}
	}
	return href
}

// ItemCollectionLinks builds the links for an item collection response.
type ItemCollectionLinks struct {
	BaseLinks
	CollectionID string
}

func (i *ItemCollectionLinks) Links() []*Link {
	links := []*Link{
		i.Self(MediaTypeGeoJSON),
		{Rel: "root", Href: i.BaseURL, Type: MediaTypeJSON},
	}
	if i.CollectionID != "" {
		collectionHref := i.Resolve("collections/" + i.CollectionID)
		links = append(links,
			&Link{Rel: "parent", Href: collectionHref, Type: MediaTypeJSON},
			&Link{Rel: "collection", Href: collectionHref, Type: MediaTypeJSON},
		)
	}
	return links
}

// CollectionSearchPagingLinks builds offset-based pagination links for
// the collection list endpoint.
type CollectionSearchPagingLinks struct {
	BaseLinks
	Offset  int
	Limit   int
	Matched int
}

func (c *CollectionSearchPagingLinks) Links() []*Link {
	links := []*Link{
		c.Self(MediaTypeJSON),
		c.Root(),
	}

	if c.Limit <= 0 {
		return links
	}

	if next := c.Offset + c.Limit; next < c.Matched {
		if href, err := MergeParams(c.CurrentURL, map[string]string{"offset": strconv.Itoa(next)}); err == nil {
			links = append(links, &Link{Rel: "next", Href: href, Type: MediaTypeJSON})
		}
	}
	if c.Offset > 0 {
		prev := c.Offset - c.Limit
		if prev < 0 {
			prev = 0
		}
		if href, err := MergeParams(c.CurrentURL, map[string]string{"offset": strconv.Itoa(prev)}); err == nil {
			links = append(links, &Link{Rel: "prev", Href: href, Type: MediaTypeJSON})
		}
		if first, err := MergeParams(c.CurrentURL, map[string]string{"offset": "0"}); err == nil {
			links = append(links, &Link{Rel: "first", Href: first, Type: MediaTypeJSON})
		}
	}

	return links
}
