package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusCount количество заказов в статусе.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// TopSeller строка рейтинга продавцов.
type TopSeller struct {
	SellerID uuid.UUID       `db:"seller_id" json:"seller_id"`
	Username string          `db:"username" json:"username"`
	Sales    int             `db:"sales" json:"sales"`
	Volume   decimal.Decimal `db:"volume" json:"volume"`
}

// DashboardTotals агрегаты, которые считает база.
type DashboardTotals struct {
	GrossCompleted   decimal.Decimal `db:"gross_completed"`
	PendingPayouts   decimal.Decimal `db:"pending_payouts"`
	CompletedPayouts decimal.Decimal `db:"completed_payouts"`
	NewUsers7d       int             `db:"new_users_7d"`
	NewUsers30d      int             `db:"new_users_30d"`
	NewOrders7d      int             `db:"new_orders_7d"`
	NewOrders30d     int             `db:"new_orders_30d"`
}

// DashboardSummary сводка для админ-панели.
type DashboardSummary struct {
	OrdersByStatus   map[string]int  `json:"orders_by_status"`
	TotalOrders      int             `json:"total_orders"`
	GrossVolume      decimal.Decimal `json:"gross_volume"`
	PlatformRevenue  decimal.Decimal `json:"platform_revenue"`
	SellerEarnings   decimal.Decimal `json:"seller_earnings"`
	PendingPayouts   decimal.Decimal `json:"pending_payouts"`
	CompletedPayouts decimal.Decimal `json:"completed_payouts"`
	NewUsers7d       int             `json:"new_users_7d"`
	NewUsers30d      int             `json:"new_users_30d"`
	NewOrders7d      int             `json:"new_orders_7d"`
	NewOrders30d     int             `json:"new_orders_30d"`
	TopSellers       []TopSeller     `json:"top_sellers"`
}
