package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aimeal/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalogService(clock *testClock) (*CatalogService, *MockCacheRepository, *MockFoodDatabase) {
	cache := NewMockCacheRepository()
	remote := NewMockFoodDatabase()
	svc := NewCatalogService(cache, remote, CatalogServiceConfig{
		CacheTTL: 24 * time.Hour,
		Now:      clock.Now,
	})
	return svc, cache, remote
}

func TestSearchByName_BlankQueryReturnsCatalog(t *testing.T) {
	svc, _, remote := newTestCatalogService(newTestClock(time.Now()))

	for _, q := range []string{"", "   ", "\t"} {
		result := svc.SearchByName(context.Background(), q)

		require.Len(t, result.Items, 5)
		assert.Equal(t, 5, result.Total)
		assert.Equal(t, domain.SourceLocal, result.Source)
		for i, item := range result.Items {
			assert.Equal(t, commonFoods[i].ID, item.ID, "catalog order must be preserved")
		}
	}
	assert.Zero(t, remote.calls(), "blank query must not hit the network")
}

func TestSearchByName_RemoteResultsAreRankedAndCached(t *testing.T) {
	clock := newTestClock(time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC))
	svc, cache, remote := newTestCatalogService(clock)
	remote.searchResult = []domain.FoodItem{
		{ID: "a", Name: "Chocolate Milk"},
		{ID: "b", Name: "Milk"},
	}

	result := svc.SearchByName(context.Background(), "  Milk ")

	assert.Equal(t, domain.SourceRemote, result.Source)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "b", result.Items[0].ID)
	assert.Equal(t, "  Milk ", remote.lastQuery, "the raw query is sent to the remote database")
	assert.True(t, cache.setCalled)
	assert.Contains(t, cache.data, "search:milk")
}

func TestSearchByName_CacheHitWithin24Hours(t *testing.T) {
	clock := newTestClock(time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC))
	svc, _, remote := newTestCatalogService(clock)
	remote.searchResult = []domain.FoodItem{{ID: "x", Name: "Greek Yogurt"}}
	ctx := context.Background()

	first := svc.SearchByName(ctx, "yogurt")
	clock.Advance(23 * time.Hour)
	second := svc.SearchByName(ctx, "YOGURT")

	assert.Equal(t, 1, remote.calls())
	assert.Equal(t, domain.SourceCache, second.Source)
	assert.Equal(t, first.Items, second.Items)
}

func TestSearchByName_CacheExpiresAfter24Hours(t *testing.T) {
	clock := newTestClock(time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC))
	svc, _, remote := newTestCatalogService(clock)
	remote.searchResult = []domain.FoodItem{{ID: "x", Name: "Greek Yogurt"}}
	ctx := context.Background()

	svc.SearchByName(ctx, "yogurt")
	clock.Advance(24 * time.Hour)
	result := svc.SearchByName(ctx, "yogurt")

	assert.Equal(t, 2, remote.calls())
	assert.Equal(t, domain.SourceRemote, result.Source)
}

func TestSearchByName_FallsBackToLocalFilter(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		results []domain.FoodItem
		query   string
		wantIDs []string
	}{
		{"remote failure", errors.New("connection refused"), nil, "an", []string{"2"}},
		{"not found", domain.ErrProductNotFound, nil, "CHICKEN", []string{"3"}},
		{"empty results", nil, []domain.FoodItem{}, "a", []string{"1", "2", "3", "4", "5"}},
		{"no local match", errors.New("timeout"), nil, "durian", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, cache, remote := newTestCatalogService(newTestClock(time.Now()))
			remote.searchError = tt.err
			remote.searchResult = tt.results

			result := svc.SearchByName(context.Background(), tt.query)

			assert.Equal(t, domain.SourceLocal, result.Source)
			ids := make([]string, 0, len(result.Items))
			for _, item := range result.Items {
				ids = append(ids, item.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), result.Total)
			assert.False(t, cache.setCalled, "fallback results are not cached")
		})
	}
}

func TestSearchByName_CacheErrorsDegrade(t *testing.T) {
	svc, cache, remote := newTestCatalogService(newTestClock(time.Now()))
	cache.getError = errors.New("cache down")
	cache.setError = errors.New("cache down")
	remote.searchResult = []domain.FoodItem{{ID: "x", Name: "Rice"}}

	result := svc.SearchByName(context.Background(), "rice")

	assert.Equal(t, domain.SourceRemote, result.Source)
	assert.Len(t, result.Items, 1)
}

func TestSearchByName_CorruptCacheEntryIsDiscarded(t *testing.T) {
	svc, cache, remote := newTestCatalogService(newTestClock(time.Now()))
	cache.data["search:rice"] = []byte("{not json")
	remote.searchResult = []domain.FoodItem{{ID: "x", Name: "Rice"}}

	result := svc.SearchByName(context.Background(), "rice")

	assert.Equal(t, domain.SourceRemote, result.Source)
	assert.Equal(t, 1, remote.calls())
}

func TestGetByBarcode(t *testing.T) {
	svc, _, remote := newTestCatalogService(newTestClock(time.Now()))
	ctx := context.Background()

	assert.Nil(t, svc.GetByBarcode(ctx, "123"))

	remote.productError = errors.New("boom")
	assert.Nil(t, svc.GetByBarcode(ctx, "123"))

	remote.productError = nil
	remote.product = &domain.FoodItem{ID: "p", Name: "Oat Bar"}
	item := svc.GetByBarcode(ctx, "123")
	require.NotNil(t, item)
	assert.Equal(t, "Oat Bar", item.Name)
}

func TestResolveBarcode(t *testing.T) {
	svc, _, remote := newTestCatalogService(newTestClock(time.Now()))
	ctx := context.Background()

	item := svc.ResolveBarcode(ctx, "5901234123457")
	assert.Equal(t, "barcode-5901234123457", item.ID)
	assert.Equal(t, "Scanned Product 5901", item.Name)
	assert.Equal(t, "Brand Name", item.Brand)
	assert.Equal(t, 200.0, item.Calories)
	assert.Equal(t, 5.0, item.Protein)
	assert.Equal(t, 25.0, item.Carbs)
	assert.Equal(t, 10.0, item.Fat)

	short := svc.ResolveBarcode(ctx, "12")
	assert.Equal(t, "Scanned Product 12", short.Name)

	remote.product = &domain.FoodItem{ID: "p", Name: "Oat Bar"}
	assert.Equal(t, "Oat Bar", svc.ResolveBarcode(ctx, "5901234123457").Name)
}

func TestCommonFoodsIsACopy(t *testing.T) {
	foods := CommonFoods()
	foods[0].Name = "Pear"
	*foods[0].Fiber = 99

	assert.Equal(t, "Apple", commonFoods[0].Name)
	assert.Equal(t, 2.4, *commonFoods[0].Fiber)
}
