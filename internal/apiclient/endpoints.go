// File: internal/apiclient/endpoints.go
package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/veraqa/shoptest/api/schemas"
	"github.com/veraqa/shoptest/internal/config"
)

// API binds the generic client to the AUT's configured endpoint paths.
// Methods return the raw Response; scenarios own the status policy and decode
// the bodies they need.
type API struct {
	client *Client
	base   string
	paths  config.APIPaths
}

// NewAPI wires the client against the AUT's base URL and route table.
func NewAPI(client *Client, aut config.AUTConfig) *API {
	return &API{
		client: client,
		base:   strings.TrimRight(aut.BaseURL, "/"),
		paths:  aut.API,
	}
}

func (a *API) url(path string) string {
	return a.base + path
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// Register issues POST {register}.
func (a *API) Register(ctx context.Context, req schemas.RegisterRequest) (*Response, error) {
	return a.client.Do(ctx, Request{
		Method:   http.MethodPost,
		URL:      a.url(a.paths.Register),
		JSONBody: req,
	})
}

// Login issues POST {login}.
func (a *API) Login(ctx context.Context, req schemas.LoginRequest) (*Response, error) {
	return a.client.Do(ctx, Request{
		Method:   http.MethodPost,
		URL:      a.url(a.paths.Login),
		JSONBody: req,
	})
}

// Profile issues GET {profile} with the bearer token.
func (a *API) Profile(ctx context.Context, token string) (*Response, error) {
	return a.client.Do(ctx, Request{
		Method:  http.MethodGet,
		URL:     a.url(a.paths.Profile),
		Headers: bearer(token),
	})
}

// UpdateProfile issues PUT {profile}; the response echoes updated values.
func (a *API) UpdateProfile(ctx context.Context, token string, fields map[string]any) (*Response, error) {
	return a.client.Do(ctx, Request{
		Method:   http.MethodPut,
		URL:      a.url(a.paths.Profile),
		Headers:  bearer(token),
		JSONBody: fields,
	})
}

// Search issues GET {products_search}?query=… . The query is URL-encoded
// verbatim; injection scenarios rely on the payload arriving unmangled.
func (a *API) Search(ctx context.Context, query string) (*Response, error) {
	return a.client.Do(ctx, Request{
		Method: http.MethodGet,
		URL:    a.url(a.paths.ProductsSearch) + "?query=" + url.QueryEscape(query),
	})
}

// AddCartItem issues POST {cart}/items with the bearer token.
func (a *API) AddCartItem(ctx context.Context, token string, req schemas.CartAddRequest) (*Response, error) {
	return a.client.Do(ctx, Request{
		Method:   http.MethodPost,
		URL:      a.url(a.paths.Cart) + "/items",
		Headers:  bearer(token),
		JSONBody: req,
	})
}
