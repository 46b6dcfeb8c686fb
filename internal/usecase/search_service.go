package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/iter"

	"github.com/pricescan/backend/internal/domain"
	"github.com/pricescan/backend/internal/infrastructure/normalizer"
)

// SearchServiceConfig holds configuration for the search service
type SearchServiceConfig struct {
	Timeout  time.Duration // per provider call
	CacheTTL time.Duration // 0 disables caching
}

// SearchService runs the two-phase search pipeline across providers
type SearchService struct {
	client    domain.ProviderClient
	cache     domain.CacheRepository
	providers []Provider
	timeout   time.Duration
	cacheTTL  time.Duration
}

// fetchOutcome is the settled result of one provider call
type fetchOutcome struct {
	body json.RawMessage
	err  error
}

// detailJob is one provider's detail request; an empty id skips the call
type detailJob struct {
	provider *Provider
	id       string
}

// NewSearchService creates a new search service with dependencies.
// cache may be nil.
func NewSearchService(
	client domain.ProviderClient,
	cache domain.CacheRepository,
	providers []Provider,
	config SearchServiceConfig,
) *SearchService {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}

	return &SearchService{
		client:    client,
		cache:     cache,
		providers: providers,
		timeout:   timeout,
		cacheTTL:  config.CacheTTL,
	}
}

// Search resolves query on every enabled provider.
// Flow: validate -> cache -> search all -> pick first ids -> detail -> normalize
//
// Only validation errors are returned; provider failures become error
// entries in the result.
func (s *SearchService) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidQuery
	}
	if !s.client.HasCredential() {
		return nil, domain.ErrMissingCredential
	}

	log := zerolog.Ctx(ctx).With().Str("query", query).Logger()
	key := s.cacheKey(query)

	if cached := s.getFromCache(ctx, key); cached != nil {
		log.Debug().Msg("Serving search from cache")
		return &domain.SearchResult{Query: query, Results: cached.Results}, nil
	}

	n := len(s.providers)
	start := time.Now()

	searches := iter.Mapper[Provider, fetchOutcome]{MaxGoroutines: n}.Map(s.providers,
		func(p *Provider) fetchOutcome {
			return s.fetch(ctx, p.SearchEngine, map[string]string{p.QueryParam: query})
		})

	jobs := make([]detailJob, n)
	for i := range s.providers {
		p := &s.providers[i]
		jobs[i].provider = p
		if searches[i].err != nil {
			log.Warn().Err(searches[i].err).Str("platform", p.Tag).Msg("Search call failed")
			continue
		}
		if id, ok := p.ExtractID(searches[i].body); ok {
			jobs[i].id = id
		} else {
			log.Info().Str("platform", p.Tag).Msg("No identifier in first search result")
		}
	}

	details := iter.Mapper[detailJob, fetchOutcome]{MaxGoroutines: n}.Map(jobs,
		func(j *detailJob) fetchOutcome {
			if j.id == "" {
				return fetchOutcome{}
			}
			return s.fetch(ctx, j.provider.DetailEngine, map[string]string{j.provider.IDParam: j.id})
		})

	result := &domain.SearchResult{Query: query, Results: make([]domain.Product, n)}
	failed := 0
	for i, p := range s.providers {
		if details[i].err != nil {
			log.Warn().Err(details[i].err).Str("platform", p.Tag).Str("id", jobs[i].id).Msg("Detail call failed")
		}

		product := p.Normalize(normalizer.Input{
			Platform:  p.Tag,
			Search:    searches[i].body,
			Product:   details[i].body,
			SearchErr: searches[i].err,
		})
		if product.Failed() {
			failed++
			log.Warn().Str("platform", p.Tag).Str("reason", product.Error.Message).Msg("Provider entry failed")
		}
		result.Results[i] = product
	}

	log.Info().
		Int("providers", n).
		Int("failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Search completed")

	// Partial failures are not cached so the next request retries them
	if failed == 0 {
		if err := s.setInCache(ctx, key, result); err != nil {
			log.Warn().Err(err).Msg("Failed to cache search result")
		}
	}

	return result, nil
}

func (s *SearchService) fetch(ctx context.Context, engine string, params map[string]string) fetchOutcome {
	reqURL, err := s.client.BuildURL(engine, params)
	if err != nil {
		return fetchOutcome{err: err}
	}
	body, err := s.client.Fetch(ctx, reqURL, s.timeout)
	return fetchOutcome{body: body, err: err}
}

// cacheKey creates a normalized cache key.
// Format: "search:{providers}:{normalized_query}"
func (s *SearchService) cacheKey(query string) string {
	tags := make([]string, len(s.providers))
	for i, p := range s.providers {
		tags[i] = p.Tag
	}
	return "search:" + strings.Join(tags, ",") + ":" + normalizeForCacheKey(query)
}

// normalizeForCacheKey lowercases and collapses whitespace. Every other
// character is significant, so "c++ book" and "c book" stay distinct.
func normalizeForCacheKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// getFromCache returns a cached result or nil
func (s *SearchService) getFromCache(ctx context.Context, key string) *domain.SearchResult {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}

	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	switch v := value.(type) {
	case *domain.SearchResult:
		return v
	case json.RawMessage:
		var result domain.SearchResult
		if err := json.Unmarshal(v, &result); err != nil {
			return nil
		}
		return &result
	}
	return nil
}

func (s *SearchService) setInCache(ctx context.Context, key string, result *domain.SearchResult) error {
	if s.cache == nil || s.cacheTTL <= 0 {
		return nil
	}
	return s.cache.Set(ctx, key, result, s.cacheTTL)
}
