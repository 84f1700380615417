package service

import (
	"context"
	"time"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

const (
	reportsCacheTTL = 60 * time.Second
	topSellersLimit = 10
)

type ReportRepository interface {
	CountByStatus(ctx context.Context) ([]models.StatusCount, error)
	Totals(ctx context.Context) (*models.DashboardTotals, error)
	TopSellers(ctx context.Context, limit int) ([]models.TopSeller, error)
}

// ReportService сводка админ-панели.
type ReportService struct {
	repo  ReportRepository
	cache Cache
	ttl   time.Duration
}

func NewReportService(repo ReportRepository, cache Cache, ttl time.Duration) *ReportService {
	if ttl <= 0 {
		ttl = reportsCacheTTL
	}
	return &ReportService{repo: repo, cache: cache, ttl: ttl}
}

// Summary возвращает сводку, кэшированную на ttl (по умолчанию минута).
func (s *ReportService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	if s.cache == nil {
		return s.build(ctx)
	}
	v, err := s.cache.GetOrSet(ctx, ReportsSummaryCacheKey(), s.ttl, func() (interface{}, error) {
		return s.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.DashboardSummary), nil
}

func (s *ReportService) build(ctx context.Context) (*models.DashboardSummary, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	top, err := s.repo.TopSellers(ctx, topSellersLimit)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return BuildSummary(counts, *totals, top), nil
}

// BuildSummary собирает сводку из агрегатов. Комиссия и доля продавцов считаются через SplitAmount.
func BuildSummary(counts []models.StatusCount, totals models.DashboardTotals, top []models.TopSeller) *models.DashboardSummary {
	byStatus := make(map[string]int, len(valueobject.AllOrderStatuses()))
	for _, st := range valueobject.AllOrderStatuses() {
		byStatus[string(st)] = 0
	}
	total := 0
	for _, c := range counts {
		byStatus[c.Status] += c.Count
		total += c.Count
	}

	split := valueobject.SplitAmount(totals.GrossCompleted)
	if top == nil {
		top = []models.TopSeller{}
	}

	return &models.DashboardSummary{
		OrdersByStatus:   byStatus,
		TotalOrders:      total,
		GrossVolume:      totals.GrossCompleted,
		PlatformRevenue:  split.Platform,
		SellerEarnings:   split.Seller,
		PendingPayouts:   totals.PendingPayouts,
		CompletedPayouts: totals.CompletedPayouts,
		NewUsers7d:       totals.NewUsers7d,
		NewUsers30d:      totals.NewUsers30d,
		NewOrders7d:      totals.NewOrders7d,
		NewOrders30d:     totals.NewOrders30d,
		TopSellers:       top,
	}
}
