// Package vavoo speaks the Vavoo/MediaHubMX upstream protocol: the auth
// ping that issues addon signatures, the paged catalog listing, and the
// stream resolve call.
package vavoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/flussotv/flusso/internal/httpclient"
	"github.com/flussotv/flusso/internal/metrics"
	"github.com/flussotv/flusso/internal/safeurl"
)

// Cluster endpoints.
const (
	CatalogURL = "https://vavoo.to/vto-cluster/mediahubmx-catalog.json"
	ResolveURL = "https://vavoo.to/vto-cluster/mediahubmx-resolve.json"
)

const (
	apiUserAgent  = "MediaHubMX/2"
	clientVersion = "3.0.2"
	catalogID     = "vto-iptv"
	language      = "de"
	region        = "AT"
)

// DefaultPageLimit caps catalog pagination when the upstream never sends
// an empty page.
const DefaultPageLimit = 50

// RawItem is one catalog entry as the upstream sends it.
type RawItem struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Client calls the Vavoo cluster. Page requests are paced by a shared
// limiter so a full refresh does not hammer the upstream.
type Client struct {
	client     *http.Client
	catalogURL string
	resolveURL string
	limiter    *rate.Limiter
	pageLimit  int
	adult      bool
}

// NewClient builds a catalog/resolve client. A nil http client falls back
// to a jarred client, so cluster session cookies carry across page
// requests; pageLimit <= 0 means DefaultPageLimit.
func NewClient(client *http.Client, pageLimit int, adult bool) *Client {
	if client == nil {
		client = httpclient.WithJar(httpclient.DefaultTimeout)
	}
	if pageLimit <= 0 {
		pageLimit = DefaultPageLimit
	}
	return &Client{
		client:     client,
		catalogURL: CatalogURL,
		resolveURL: ResolveURL,
		limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		pageLimit:  pageLimit,
		adult:      adult,
	}
}

type catalogRequest struct {
	Language      string      `json:"language"`
	Region        string      `json:"region"`
	CatalogID     string      `json:"catalogId"`
	ID            string      `json:"id"`
	Adult         bool        `json:"adult"`
	Search        string      `json:"search"`
	Sort          string      `json:"sort"`
	Filter        groupFilter `json:"filter"`
	Cursor        int         `json:"cursor"`
	ClientVersion string      `json:"clientVersion"`
}

type groupFilter struct {
	Group string `json:"group"`
}

// FetchCatalog pages through the catalog for one group. The cursor starts
// at zero and advances by the number of items received so far; pagination
// ends at the first empty page, the first error, or the page cap. Items
// fetched before an error are returned alongside it, so callers can keep a
// partial listing.
func (c *Client) FetchCatalog(ctx context.Context, signature, group string) ([]RawItem, error) {
	var all []RawItem
	cursor := 0
	for page := 0; page < c.pageLimit; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return all, err
		}
		items, err := c.fetchPage(ctx, signature, group, cursor)
		if err != nil {
			return all, fmt.Errorf("catalog %s cursor %d: %w", group, cursor, err)
		}
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
		cursor += len(items)
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, signature, group string, cursor int) ([]RawItem, error) {
	req := catalogRequest{
		Language:      language,
		Region:        region,
		CatalogID:     catalogID,
		ID:            catalogID,
		Adult:         c.adult,
		Search:        "",
		Sort:          "name",
		Filter:        groupFilter{Group: group},
		Cursor:        cursor,
		ClientVersion: clientVersion,
	}
	var out struct {
		Items []RawItem `json:"items"`
	}
	if err := c.post(ctx, c.catalogURL, signature, req, &out); err != nil {
		return nil, err
	}
	metrics.RecordCatalogPage()
	return out.Items, nil
}

type resolveRequest struct {
	Language      string `json:"language"`
	Region        string `json:"region"`
	URL           string `json:"url"`
	ClientVersion string `json:"clientVersion"`
}

// ResolveURL exchanges a catalog stream URL for the physical one. Loopback
// targets are returned unchanged; they point back at this process and the
// upstream cannot resolve them.
func (c *Client) ResolveURL(ctx context.Context, signature, target string) (string, error) {
	if safeurl.IsLoopback(target) {
		return target, nil
	}
	req := resolveRequest{
		Language:      language,
		Region:        region,
		URL:           target,
		ClientVersion: clientVersion,
	}
	var out []struct {
		URL string `json:"url"`
	}
	if err := c.post(ctx, c.resolveURL, signature, req, &out); err != nil {
		return "", fmt.Errorf("resolve: %w", err)
	}
	if len(out) == 0 || out[0].URL == "" {
		return "", fmt.Errorf("resolve: upstream returned no url for %s", target)
	}
	return out[0].URL, nil
}

// post sends one signed cluster request and decodes the JSON response.
// Concurrent callers (stream resolves) are capped per host so a burst of
// addon requests cannot stack unbounded calls on the cluster.
func (c *Client) post(ctx context.Context, url, signature string, payload, out any) error {
	headers := http.Header{}
	headers.Set("User-Agent", apiUserAgent)
	headers.Set("Accept", "application/json")
	headers.Set("Accept-Encoding", httpclient.AcceptEncoding)
	if signature != "" {
		headers.Set("mediahubmx-signature", signature)
	}

	release := httpclient.GlobalHostSem.Acquire(url)
	defer release()
	resp, err := httpclient.PostJSON(ctx, c.client, url, headers, payload, httpclient.DefaultRetryPolicy)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream status %s", resp.Status)
	}

	body, err := httpclient.Body(resp)
	if err != nil {
		return err
	}
	defer body.Close()
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
