package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// Page is one page of a paginated shop API response. Records stay raw here;
// callers decode them into the entity type they asked for.
type Page struct {
	Records []json.RawMessage `json:"data"`
	Meta    PageMeta          `json:"meta"`
}

// PageMeta is the server-reported pagination state.
type PageMeta struct {
	HasMorePages bool `json:"has_more_pages"`
}

// PageFunc fetches one page of a resource.
type PageFunc func(ctx context.Context, page, perPage int) (*Page, error)

// ShopAPI wraps the rate-limited client with the shop's paginated endpoints.
type ShopAPI struct {
	client *Client
}

// NewShopAPI creates a ShopAPI on top of an existing client.
func NewShopAPI(c *Client) *ShopAPI {
	return &ShopAPI{client: c}
}

// Products fetches one page of products with their embedded image.
func (s *ShopAPI) Products(ctx context.Context, page, perPage int) (*Page, error) {
	q := pageQuery(page, perPage)
	q.Set("with[]", "image")
	return s.fetchPage(ctx, "products", q)
}

// Variants fetches one page of variants.
func (s *ShopAPI) Variants(ctx context.Context, page, perPage int) (*Page, error) {
	return s.fetchPage(ctx, "variants", pageQuery(page, perPage))
}

// VariantImages fetches one page of variant images.
func (s *ShopAPI) VariantImages(ctx context.Context, page, perPage int) (*Page, error) {
	return s.fetchPage(ctx, "variant-images", pageQuery(page, perPage))
}

func (s *ShopAPI) fetchPage(ctx context.Context, resource string, q url.Values) (*Page, error) {
	var p Page
	if err := s.client.Get(ctx, resource, q, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func pageQuery(page, perPage int) url.Values {
	return url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
}

// FetchAll walks a paginated resource from page 1 until exhaustion, handing
// each page to handle before requesting the next. A page with no records
// terminates the walk even if the server still claims more pages, so a
// malformed has_more_pages flag cannot loop forever. Returns the total number
// of records handled.
func FetchAll(ctx context.Context, perPage int, fetch PageFunc, handle func(records []json.RawMessage) error) (int, error) {
	total := 0
	for page := 1; ; page++ {
		p, err := fetch(ctx, page, perPage)
		if err != nil {
			return total, err
		}
		if len(p.Records) == 0 {
			return total, nil
		}
		if err := handle(p.Records); err != nil {
			return total, err
		}
		total += len(p.Records)
		if !p.Meta.HasMorePages {
			return total, nil
		}
	}
}
