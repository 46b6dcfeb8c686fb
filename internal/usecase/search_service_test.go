package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricescan/backend/internal/domain"
	"github.com/pricescan/backend/internal/infrastructure/cache"
	"github.com/pricescan/backend/internal/infrastructure/serpapi"
)

// fakeResponse is what the fake client returns for one engine
type fakeResponse struct {
	body string
	err  error
}

// fakeClient is an in-memory domain.ProviderClient keyed by engine name
type fakeClient struct {
	mu        sync.Mutex
	hasKey    bool
	responses map[string]fakeResponse
	calls     []string
	barrier   *sync.WaitGroup // when set, search calls wait for each other
}

func newFakeClient(responses map[string]fakeResponse) *fakeClient {
	return &fakeClient{hasKey: true, responses: responses}
}

func (f *fakeClient) HasCredential() bool { return f.hasKey }

func (f *fakeClient) BuildURL(engine string, params map[string]string) (string, error) {
	q := url.Values{}
	q.Set("engine", engine)
	for k, v := range params {
		q.Set(k, v)
	}
	return "fake://search?" + q.Encode(), nil
}

func (f *fakeClient) Fetch(ctx context.Context, reqURL string, timeout time.Duration) (json.RawMessage, error) {
	u, _ := url.Parse(reqURL)
	engine := u.Query().Get("engine")

	f.mu.Lock()
	f.calls = append(f.calls, u.RawQuery)
	f.mu.Unlock()

	if f.barrier != nil && !strings.HasSuffix(engine, "_product") {
		f.barrier.Done()
		done := make(chan struct{})
		go func() { f.barrier.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			return nil, errors.New("search calls were not issued concurrently")
		}
	}

	resp, ok := f.responses[engine]
	if !ok {
		return nil, fmt.Errorf("%w: status 404, body: no fixture for %s", domain.ErrProviderStatus, engine)
	}
	if resp.err != nil {
		return nil, resp.err
	}
	return json.RawMessage(resp.body), nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) calledEngine(engine string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.Contains(c, "engine="+engine+"&") || strings.HasSuffix(c, "engine="+engine) {
			return true
		}
	}
	return false
}

func mustProviders(t *testing.T, tags ...string) []Provider {
	t.Helper()
	providers, err := EnabledProviders(tags)
	require.NoError(t, err)
	return providers
}

const (
	amazonSearchFixture  = `{"organic_results":[{"asin":"B000X","title":"Wireless Mouse","link":"https://www.amazon.com/dp/B000X"}]}`
	amazonProductFixture = `{"product_results":{"asin":"B000X","title":"Logitech M185 Wireless Mouse","specifications":[{"name":"UPC","value":"097855066701"}]}}`
	walmartSearchFixture = `{"organic_results":[{"us_item_id":"555","title":"Onn Mouse"}]}`
	walmartDetailFixture = `{"product_result":{"us_item_id":"555","title":"Onn Wireless Mouse","offers":[{"seller_name":"Walmart.com","link":"https://w/555","price":9.88}]}}`
	ebaySearchFixture    = `{"organic_results":[{"product_id":"77","title":"Mouse lot"}]}`
	ebayDetailFixture    = `{"product_results":{"product_id":"77","title":"Mouse lot of 3"}}`
)

func TestSearch_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects blank query without calling providers", func(t *testing.T) {
		client := newFakeClient(nil)
		svc := NewSearchService(client, nil, mustProviders(t, "amazon"), SearchServiceConfig{})

		for _, q := range []string{"", "   ", "\t\n"} {
			_, err := svc.Search(ctx, q)
			assert.ErrorIs(t, err, domain.ErrInvalidQuery)
		}
		assert.Zero(t, client.callCount())
	})

	t.Run("rejects missing credential", func(t *testing.T) {
		client := newFakeClient(nil)
		client.hasKey = false
		svc := NewSearchService(client, nil, mustProviders(t, "amazon"), SearchServiceConfig{})

		_, err := svc.Search(ctx, "wireless mouse")

		assert.ErrorIs(t, err, domain.ErrMissingCredential)
		assert.Zero(t, client.callCount())
	})
}

func TestSearch_AmazonScenario(t *testing.T) {
	client := newFakeClient(map[string]fakeResponse{
		"amazon":         {body: amazonSearchFixture},
		"amazon_product": {body: amazonProductFixture},
	})
	svc := NewSearchService(client, nil, mustProviders(t, "amazon"), SearchServiceConfig{})

	result, err := svc.Search(context.Background(), "  wireless mouse ")

	require.NoError(t, err)
	assert.Equal(t, "wireless mouse", result.Query)
	require.Len(t, result.Results, 1)

	got := result.Results[0]
	require.Nil(t, got.Error)
	assert.Equal(t, "amazon", got.Platform)
	require.NotNil(t, got.ID)
	assert.Equal(t, "B000X", *got.ID)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Logitech M185 Wireless Mouse", *got.Title)
	require.NotNil(t, got.UPC)
	assert.Equal(t, "097855066701", *got.UPC)

	require.Equal(t, 2, client.callCount())
	assert.Contains(t, client.calls[0], "q=wireless+mouse")
	assert.Contains(t, client.calls[1], "asin=B000X")
}

func TestSearch_EmptyResultsSkipDetail(t *testing.T) {
	client := newFakeClient(map[string]fakeResponse{
		"amazon":         {body: `{"organic_results":[]}`},
		"amazon_product": {body: amazonProductFixture},
	})
	svc := NewSearchService(client, nil, mustProviders(t, "amazon"), SearchServiceConfig{})

	result, err := svc.Search(context.Background(), "zzzz")

	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Nil(t, result.Results[0].Error)
	assert.Nil(t, result.Results[0].ID)
	assert.False(t, client.calledEngine("amazon_product"))
	assert.Equal(t, 1, client.callCount())
}

func TestSearch_ProviderFailureIsIsolated(t *testing.T) {
	client := newFakeClient(map[string]fakeResponse{
		"amazon":          {body: amazonSearchFixture},
		"amazon_product":  {body: amazonProductFixture},
		"walmart":         {err: fmt.Errorf("%w: status 503, body: unavailable", domain.ErrProviderStatus)},
		"walmart_product": {body: walmartDetailFixture},
		"ebay":            {body: ebaySearchFixture},
		"ebay_product":    {body: ebayDetailFixture},
	})
	svc := NewSearchService(client, nil, mustProviders(t, "ebay", "walmart", "amazon"), SearchServiceConfig{})

	result, err := svc.Search(context.Background(), "mouse")

	require.NoError(t, err)
	require.Len(t, result.Results, 3)

	platforms := []string{result.Results[0].Platform, result.Results[1].Platform, result.Results[2].Platform}
	assert.Equal(t, []string{"amazon", "walmart", "ebay"}, platforms, "fixed provider order")

	assert.Nil(t, result.Results[0].Error)
	require.NotNil(t, result.Results[1].Error)
	assert.Contains(t, result.Results[1].Error.Message, "503")
	assert.Nil(t, result.Results[2].Error)
	assert.Equal(t, "Mouse lot of 3", *result.Results[2].Title)
	assert.False(t, client.calledEngine("walmart_product"))
}

func TestSearch_DetailFailureDegrades(t *testing.T) {
	client := newFakeClient(map[string]fakeResponse{
		"walmart":         {body: walmartSearchFixture},
		"walmart_product": {err: fmt.Errorf("%w after 12s: context deadline exceeded", domain.ErrProviderTimeout)},
	})
	svc := NewSearchService(client, nil, mustProviders(t, "walmart"), SearchServiceConfig{})

	result, err := svc.Search(context.Background(), "mouse")

	require.NoError(t, err)
	got := result.Results[0]
	require.Nil(t, got.Error)
	assert.Equal(t, "555", *got.ID)
	assert.Equal(t, "Onn Mouse", *got.Title)
	assert.Empty(t, got.Offers)
}

func TestSearch_SearchCallsRunConcurrently(t *testing.T) {
	client := newFakeClient(map[string]fakeResponse{
		"amazon":  {body: `{"organic_results":[]}`},
		"walmart": {body: `{"organic_results":[]}`},
		"ebay":    {body: `{"organic_results":[]}`},
	})
	client.barrier = &sync.WaitGroup{}
	client.barrier.Add(3)
	svc := NewSearchService(client, nil, mustProviders(t, "amazon", "walmart", "ebay"), SearchServiceConfig{})

	result, err := svc.Search(context.Background(), "mouse")

	require.NoError(t, err)
	for _, p := range result.Results {
		assert.Nil(t, p.Error, p.Platform)
	}
}

func TestSearch_Cache(t *testing.T) {
	ctx := context.Background()
	memory := cache.NewMemoryCache(time.Minute)
	defer memory.Close()

	t.Run("serves repeated queries from cache", func(t *testing.T) {
		client := newFakeClient(map[string]fakeResponse{
			"amazon":         {body: amazonSearchFixture},
			"amazon_product": {body: amazonProductFixture},
		})
		svc := NewSearchService(client, memory, mustProviders(t, "amazon"), SearchServiceConfig{CacheTTL: time.Minute})

		first, err := svc.Search(ctx, "Wireless Mouse!")
		require.NoError(t, err)
		calls := client.callCount()

		second, err := svc.Search(ctx, "  WIRELESS   mouse! ")
		require.NoError(t, err)

		assert.Equal(t, calls, client.callCount())
		assert.Equal(t, *first.Results[0].ID, *second.Results[0].ID)
		assert.Equal(t, "WIRELESS   mouse!", second.Query, "echoes the query that was asked")
	})

	t.Run("keeps distinct non-ASCII and punctuated queries apart", func(t *testing.T) {
		client := newFakeClient(map[string]fakeResponse{"amazon": {body: `{"organic_results":[]}`}})
		svc := NewSearchService(client, memory, mustProviders(t, "amazon"), SearchServiceConfig{CacheTTL: time.Minute})

		queries := []string{"เมาส์ไร้สาย", "คีย์บอร์ด", "无线鼠标", "c++ book", "c book"}
		for i, q := range queries {
			result, err := svc.Search(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, q, result.Query)
			assert.Equal(t, i+1, client.callCount(), "query %q must reach the provider", q)
		}

		result, err := svc.Search(ctx, "คีย์บอร์ด")
		require.NoError(t, err)
		assert.Equal(t, "คีย์บอร์ด", result.Query)
		assert.Equal(t, len(queries), client.callCount(), "repeat is served from cache")
	})

	t.Run("does not cache partial failures", func(t *testing.T) {
		client := newFakeClient(map[string]fakeResponse{})
		svc := NewSearchService(client, memory, mustProviders(t, "amazon"), SearchServiceConfig{CacheTTL: time.Minute})

		_, err := svc.Search(ctx, "keyboard")
		require.NoError(t, err)
		_, err = svc.Search(ctx, "keyboard")
		require.NoError(t, err)

		assert.Equal(t, 2, client.callCount())
	})

	t.Run("disabled with zero TTL", func(t *testing.T) {
		client := newFakeClient(map[string]fakeResponse{"amazon": {body: `{"organic_results":[]}`}})
		svc := NewSearchService(client, memory, mustProviders(t, "amazon"), SearchServiceConfig{})

		svc.Search(ctx, "monitor")
		svc.Search(ctx, "monitor")

		assert.Equal(t, 2, client.callCount())
	})
}

func TestSearch_TimeoutAgainstLiveServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("engine") {
		case "amazon":
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		case "walmart":
			w.Write([]byte(walmartSearchFixture))
		case "walmart_product":
			w.Write([]byte(walmartDetailFixture))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer server.Close()

	client := serpapi.NewClient("test-key", server.URL, 0, 0)
	svc := NewSearchService(client, nil, mustProviders(t, "amazon", "walmart"), SearchServiceConfig{Timeout: 100 * time.Millisecond})

	result, err := svc.Search(context.Background(), "wireless mouse")

	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	amazon := result.Results[0]
	require.NotNil(t, amazon.Error)
	assert.Equal(t, "amazon", amazon.Platform)
	assert.Contains(t, amazon.Error.Message, "timed out")

	walmart := result.Results[1]
	require.Nil(t, walmart.Error)
	assert.Equal(t, "Onn Wireless Mouse", *walmart.Title)
	require.Len(t, walmart.Offers, 1)
	assert.Equal(t, "Walmart.com", walmart.Offers[0].SellerName)
}

func TestNormalizeForCacheKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Wireless Mouse!", "wireless mouse!"},
		{"  USB-C   Hub ", "usb-c hub"},
		{"c++ book", "c++ book"},
		{"Мышь  БЕСПРОВОДНАЯ", "мышь беспроводная"},
		{"เมาส์ไร้สาย", "เมาส์ไร้สาย"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeForCacheKey(tt.input))
		})
	}
}

func TestNewSearchService_DefaultTimeout(t *testing.T) {
	svc := NewSearchService(newFakeClient(nil), nil, nil, SearchServiceConfig{})

	assert.Equal(t, 12*time.Second, svc.timeout)
}
