package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

// ReportRepository агрегаты для админ-панели.
type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountByStatus количество заказов в каждом статусе.
func (r *ReportRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	counts := []models.StatusCount{}
	if err := r.db.SelectContext(ctx, &counts, `
		SELECT status, COUNT(*) AS count FROM orders GROUP BY status
	`); err != nil {
		return nil, fmt.Errorf("report repository: count by status %w", err)
	}
	return counts, nil
}

// Totals денежные суммы и приросты за 7 и 30 дней.
func (r *ReportRepository) Totals(ctx context.Context) (*models.DashboardTotals, error) {
	var totals models.DashboardTotals
	err := r.db.GetContext(ctx, &totals, `
		SELECT
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = 'completed') AS gross_completed,
			(SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE status = 'PENDING') AS pending_payouts,
			(SELECT COALESCE(SUM(amount), 0) FROM payouts WHERE status = 'COMPLETED') AS completed_payouts,
			(SELECT COUNT(*) FROM users WHERE created_at >= NOW() - INTERVAL '7 days') AS new_users_7d,
			(SELECT COUNT(*) FROM users WHERE created_at >= NOW() - INTERVAL '30 days') AS new_users_30d,
			(SELECT COUNT(*) FROM orders WHERE created_at >= NOW() - INTERVAL '7 days') AS new_orders_7d,
			(SELECT COUNT(*) FROM orders WHERE created_at >= NOW() - INTERVAL '30 days') AS new_orders_30d
	`)
	if err != nil {
		return nil, fmt.Errorf("report repository: totals %w", err)
	}
	return &totals, nil
}

// TopSellers продавцы с наибольшим числом завершённых продаж.
func (r *ReportRepository) TopSellers(ctx context.Context, limit int) ([]models.TopSeller, error) {
	sellers := []models.TopSeller{}
	err := r.db.SelectContext(ctx, &sellers, `
		SELECT o.seller_id, u.username, COUNT(*) AS sales, COALESCE(SUM(o.total_amount), 0) AS volume
		FROM orders o
		JOIN users u ON u.id = o.seller_id
		WHERE o.status = 'completed'
		GROUP BY o.seller_id, u.username
		ORDER BY sales DESC, volume DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("report repository: top sellers %w", err)
	}
	return sellers, nil
}
