package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Placeholder nutrition used for barcodes the remote database does not know
const (
	placeholderBrand    = "Brand Name"
	placeholderCalories = 200
	placeholderProtein  = 5
	placeholderCarbs    = 25
	placeholderFat      = 10
)

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	CacheTTL time.Duration
	Now      func() time.Time
}

// CatalogService answers food lookups from the remote database, the search
// cache and the static catalog. Lookups never fail; they degrade.
type CatalogService struct {
	cache    domain.CacheRepository
	remote   domain.FoodDatabase
	ranker   *RelevanceRanker
	cacheTTL time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// searchCacheEntry is the serialized form of a cached search
type searchCacheEntry struct {
	CachedAt time.Time         `json:"cachedAt"`
	Items    []domain.FoodItem `json:"items"`
}

// NewCatalogService creates a new catalog service with dependencies
func NewCatalogService(
	cache domain.CacheRepository,
	remote domain.FoodDatabase,
	config CatalogServiceConfig,
) *CatalogService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 24 * time.Hour
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &CatalogService{
		cache:    cache,
		remote:   remote,
		ranker:   NewRelevanceRanker(1),
		cacheTTL: cacheTTL,
		now:      now,
		logger:   log.With().Str("component", "catalog").Logger(),
	}
}

// SearchByName looks up foods by free text.
// Flow: blank -> full catalog; cache -> remote (ranked, cached) -> local filter
func (s *CatalogService) SearchByName(ctx context.Context, query string) domain.SearchResult {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return newSearchResult(CommonFoods(), domain.SourceLocal)
	}

	cacheKey := searchCacheKey(normalized)

	if items, ok := s.getFromCache(ctx, cacheKey); ok {
		return newSearchResult(items, domain.SourceCache)
	}

	items, err := s.remote.SearchByName(ctx, query)
	switch {
	case err != nil && !errors.Is(err, domain.ErrProductNotFound):
		s.logger.Warn().Err(err).Str("query", query).Msg("remote search failed, using local catalog")
	case len(items) > 0:
		ranked := s.ranker.Rank(normalized, items)
		s.setInCache(ctx, cacheKey, ranked)
		return newSearchResult(ranked, domain.SourceRemote)
	}

	return newSearchResult(filterCatalog(normalized), domain.SourceLocal)
}

// GetByBarcode returns the remote product for code, or nil when it is
// unknown or the lookup failed
func (s *CatalogService) GetByBarcode(ctx context.Context, code string) *domain.FoodItem {
	item, err := s.remote.GetByBarcode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Warn().Err(err).Str("barcode", code).Msg("barcode lookup failed")
		}
		return nil
	}
	return item
}

// ResolveBarcode turns a scanned code into a food, synthesizing a
// placeholder when the remote database has nothing for it
func (s *CatalogService) ResolveBarcode(ctx context.Context, code string) domain.FoodItem {
	if item := s.GetByBarcode(ctx, code); item != nil {
		return *item
	}

	prefix := code
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}

	return domain.FoodItem{
		ID:       "barcode-" + code,
		Name:     "Scanned Product " + prefix,
		Brand:    placeholderBrand,
		Calories: placeholderCalories,
		Protein:  placeholderProtein,
		Carbs:    placeholderCarbs,
		Fat:      placeholderFat,
		Barcode:  code,
	}
}

// getFromCache returns cached items younger than the TTL
func (s *CatalogService) getFromCache(ctx context.Context, key string) ([]domain.FoodItem, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}

	var entry searchCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt cache entry")
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}

	if s.now().Sub(entry.CachedAt) >= s.cacheTTL {
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}

	return entry.Items, true
}

// setInCache stores items; failures are logged and otherwise ignored
func (s *CatalogService) setInCache(ctx context.Context, key string, items []domain.FoodItem) {
	raw, err := json.Marshal(searchCacheEntry{CachedAt: s.now(), Items: items})
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode cache entry")
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// normalizeQuery lowercases and trims a query
func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// searchCacheKey builds the cache key for a normalized query.
// Format: "search:{normalized_query}"
func searchCacheKey(normalized string) string {
	return "search:" + normalized
}

// filterCatalog returns catalog foods whose name contains the normalized query
func filterCatalog(normalized string) []domain.FoodItem {
	var out []domain.FoodItem
	for _, f := range CommonFoods() {
		if strings.Contains(strings.ToLower(f.Name), normalized) {
			out = append(out, f)
		}
	}
	if out == nil {
		out = []domain.FoodItem{}
	}
	return out
}

func newSearchResult(items []domain.FoodItem, source string) domain.SearchResult {
	return domain.SearchResult{Items: items, Total: len(items), Source: source}
}
