package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

func TestBuildSummary(t *testing.T) {
	summary := BuildSummary(
		[]models.StatusCount{{Status: "completed", Count: 3}, {Status: "pending", Count: 2}},
		models.DashboardTotals{
			GrossCompleted: decimal.RequireFromString("333.33"),
			PendingPayouts: decimal.RequireFromString("90"),
			NewUsers7d:     4,
		},
		nil,
	)

	assert.Equal(t, 5, summary.TotalOrders)
	assert.Equal(t, 3, summary.OrdersByStatus["completed"])
	assert.Equal(t, 0, summary.OrdersByStatus["refunded"])
	assert.True(t, summary.SellerEarnings.Equal(decimal.RequireFromString("300")))
	assert.True(t, summary.PlatformRevenue.Equal(decimal.RequireFromString("33.33")))
	assert.True(t, summary.SellerEarnings.Add(summary.PlatformRevenue).Equal(summary.GrossVolume))
	assert.NotNil(t, summary.TopSellers)
}

func TestReportService_SummaryCachedAndInvalidated(t *testing.T) {
	repo := new(mockReportRepo)
	cache := NewCacheService()
	defer cache.Close()
	service := NewReportService(repo, cache, 0)
	ctx := context.Background()

	repo.On("CountByStatus", ctx).Return([]models.StatusCount{}, nil)
	repo.On("Totals", ctx).Return(&models.DashboardTotals{}, nil)
	repo.On("TopSellers", ctx, topSellersLimit).Return([]models.TopSeller{{SellerID: uuid.New(), Username: "brock"}}, nil)

	_, err := service.Summary(ctx)
	require.NoError(t, err)
	_, err = service.Summary(ctx)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Totals", 1)

	cache.InvalidateReports()
	_, err = service.Summary(ctx)
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Totals", 2)
}

func TestReportService_SummaryErrorNotCached(t *testing.T) {
	repo := new(mockReportRepo)
	cache := NewCacheService()
	defer cache.Close()
	service := NewReportService(repo, cache, 0)
	ctx := context.Background()

	repo.On("CountByStatus", ctx).Return([]models.StatusCount{}, assert.AnError)

	_, err := service.Summary(ctx)
	assert.Error(t, err)
	_, found := cache.Get(ReportsSummaryCacheKey())
	assert.False(t, found)
}

func TestCacheService_Expiry(t *testing.T) {
	cache := NewCacheService()
	defer cache.Close()

	cache.Set("k", 1, 10*time.Millisecond)
	v, ok := cache.Get("k")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(20 * time.Millisecond)
	_, ok = cache.Get("k")
	assert.False(t, ok)
}

func TestCacheService_InvalidateByPrefix(t *testing.T) {
	cache := NewCacheService()
	defer cache.Close()

	cache.Set(ReportsSummaryCacheKey(), 1, time.Minute)
	cache.Set(ReviewDistributionCacheKey(uuid.New()), 2, time.Minute)

	cache.InvalidateReports()
	_, ok := cache.Get(ReportsSummaryCacheKey())
	assert.False(t, ok)
	assert.Len(t, cache.cache, 1)
}
