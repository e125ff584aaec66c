package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/alanyoungcy/polymirror/internal/domain"
)

// marketCacheTTL bounds how long a token-to-market mapping is reused before
// being refetched.
const marketCacheTTL = time.Hour

// GammaClient is the REST client for the Polymarket Gamma API. Polymirror
// uses it to label trade intents with the market a position token belongs
// to; a lookup failure leaves the intent labelled "unknown" and never blocks
// replication.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cachedMarket
}

type cachedMarket struct {
	slug    string
	fetched time.Time
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: make(map[string]cachedMarket),
	}
}

// ResolveMarket returns the market slug for a CLOB position token ID, or
// domain.MarketUnknown when the Gamma API has no market with that token.
func (g *GammaClient) ResolveMarket(ctx context.Context, tokenID string) (string, error) {
	g.mu.Lock()
	if c, ok := g.cache[tokenID]; ok && time.Since(c.fetched) < marketCacheTTL {
		g.mu.Unlock()
		return c.slug, nil
	}
	g.mu.Unlock()

	params := url.Values{}
	params.Set("clob_token_ids", tokenID)

	body, err := g.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return domain.MarketUnknown, fmt.Errorf("polymarket/gamma: resolve market for token %s: %w", tokenID, err)
	}

	var apiMarkets []APIMarket
	if err := json.Unmarshal(body, &apiMarkets); err != nil {
		return domain.MarketUnknown, fmt.Errorf("polymarket/gamma: decode markets: %w", err)
	}

	slug := domain.MarketUnknown
	if len(apiMarkets) > 0 && apiMarkets[0].Slug != "" {
		slug = apiMarkets[0].Slug
	}

	g.mu.Lock()
	g.cache[tokenID] = cachedMarket{slug: slug, fetched: time.Now()}
	g.mu.Unlock()

	return slug, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}
