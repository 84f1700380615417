package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

var orderCols = []string{
	"id", "order_number", "buyer_id", "seller_id", "status", "total_amount", "payout_completed",
	"completed_at", "cancelled_at", "cancellation_reason", "created_at", "updated_at",
}

func newMockOrderRepo(t *testing.T) (*OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	rawDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { rawDB.Close() })
	return NewOrderRepository(sqlx.NewDb(rawDB, "postgres")), mock
}

func orderRow(id, sellerID uuid.UUID, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(orderCols).AddRow(
		id.String(), "PKM-20240101-ABC123", uuid.New().String(), sellerID.String(), status, "100.00", false,
		now, nil, nil, now, now,
	)
}

func completePayout() *models.Payout {
	return &models.Payout{
		Method: valueobject.PayoutMethodPix,
		Amount: decimal.RequireFromString("90.00"),
		Status: valueobject.PayoutStatusPending,
	}
}

func TestOrderRepository_Complete_Commits(t *testing.T) {
	repo, mock := newMockOrderRepo(t)
	orderID, sellerID := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET status = 'completed'").
		WithArgs(orderID).
		WillReturnRows(orderRow(orderID, sellerID, "completed"))
	mock.ExpectQuery("INSERT INTO payouts").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))
	mock.ExpectQuery("INSERT INTO order_events").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))
	mock.ExpectCommit()

	payout := completePayout()
	order, err := repo.Complete(context.Background(), orderID, payout, models.OrderEvent{Type: models.EventOrderCompleted})

	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusCompleted, order.Status)
	assert.Equal(t, sellerID, payout.SellerID)
	assert.Equal(t, orderID, payout.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Complete_WrongStatus(t *testing.T) {
	repo, mock := newMockOrderRepo(t)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET status = 'completed'").
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), orderID, completePayout(), models.OrderEvent{Type: models.EventOrderCompleted})

	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Complete_MissingOrder(t *testing.T) {
	repo, mock := newMockOrderRepo(t)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET status = 'completed'").
		WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), orderID, completePayout(), models.OrderEvent{Type: models.EventOrderCompleted})

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Complete_DuplicatePayoutRollsBack(t *testing.T) {
	repo, mock := newMockOrderRepo(t)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET status = 'completed'").
		WillReturnRows(orderRow(orderID, uuid.New(), "completed"))
	mock.ExpectQuery("INSERT INTO payouts").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payouts_order_id_key"})
	mock.ExpectRollback()

	_, err := repo.Complete(context.Background(), orderID, completePayout(), models.OrderEvent{Type: models.EventOrderCompleted})

	assert.ErrorIs(t, err, ErrPayoutExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Cancel_TerminalOrder(t *testing.T) {
	repo, mock := newMockOrderRepo(t)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET status = 'cancelled'").
		WillReturnRows(sqlmock.NewRows(orderCols))
	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	_, err := repo.Cancel(context.Background(), orderID, "fraud", models.OrderEvent{Type: models.EventOrderCancelled})

	assert.ErrorIs(t, err, ErrInvalidOrderStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_TransitionStatus_WritesEvent(t *testing.T) {
	repo, mock := newMockOrderRepo(t)
	orderID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE orders SET").
		WillReturnRows(orderRow(orderID, uuid.New(), "in_review"))
	mock.ExpectQuery("INSERT INTO order_events").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(uuid.New().String(), time.Now()))
	mock.ExpectCommit()

	order, err := repo.TransitionStatus(context.Background(), orderID,
		[]valueobject.OrderStatus{valueobject.OrderStatusDeliverySubmitted},
		valueobject.OrderStatusInReview,
		models.OrderEvent{Type: models.EventReviewStarted},
	)

	require.NoError(t, err)
	assert.Equal(t, valueobject.OrderStatusInReview, order.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newMockOrderRepo(t)

	mock.ExpectExec("DELETE FROM orders").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
