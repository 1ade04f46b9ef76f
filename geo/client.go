// Package geo looks up French communes on geo.api.gouv.fr.
package geo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/adeilh/go-insee/httpx"
)

const (
	DefaultBaseURL = "https://geo.api.gouv.fr"
	DefaultTTL     = 24 * time.Hour
)

var ErrNotFound = errors.New("geo: commune not found")

// Commune is the current registry entry of a commune.
type Commune struct {
	Code       string `json:"code"`
	Name       string `json:"nom"`
	Population int    `json:"population"`
}

type Client struct {
	http    *httpx.Client
	baseURL string
	cache   *ttlcache.Cache[string, Commune]
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default client, e.g. to shorten its timeout.
func WithHTTPClient(h *httpx.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(ttl time.Duration, opts ...Option) *Client {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Client{
		http:    httpx.NewClient(httpx.WithClientTimeout(5 * time.Second)),
		baseURL: DefaultBaseURL,
		cache:   ttlcache.New(ttlcache.WithTTL[string, Commune](ttl)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Commune returns the registry entry for an INSEE commune code. Successful
// lookups are cached; failures are not.
func (c *Client) Commune(ctx context.Context, code string) (Commune, error) {
	var fetchErr error
	loader := ttlcache.LoaderFunc[string, Commune](
		func(cache *ttlcache.Cache[string, Commune], key string) *ttlcache.Item[string, Commune] {
			commune, err := c.fetch(ctx, key)
			if err != nil {
				fetchErr = err
				return nil
			}
			return cache.Set(key, commune, ttlcache.DefaultTTL)
		},
	)
	item := c.cache.Get(code, ttlcache.WithLoader[string, Commune](loader))
	if item == nil {
		if fetchErr == nil {
			fetchErr = fmt.Errorf("geo: lookup %s failed", code)
		}
		return Commune{}, fetchErr
	}
	return item.Value(), nil
}

func (c *Client) fetch(ctx context.Context, code string) (Commune, error) {
	u := fmt.Sprintf("%s/communes/%s", c.baseURL, url.PathEscape(code))
	var out Commune
	err := c.http.FetchJSON(ctx, u, &out, httpx.WithQuery(map[string]string{"fields": "nom,code,population"}))
	if err != nil {
		if status, ok := httpx.StatusCode(err); ok && status == httpx.StatusNotFound {
			return Commune{}, ErrNotFound
		}
		return Commune{}, fmt.Errorf("geo: lookup %s: %w", code, err)
	}
	if out.Code == "" {
		out.Code = code
	}
	return out, nil
}

// Len reports how many communes are cached.
func (c *Client) Len() int { return c.cache.Len() }
