package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/repository/common"
)

type ComplaintRepository struct {
	db *sqlx.DB
}

func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create сохраняет жалобу вместе с уведомлением для модераторов.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *models.Complaint, notification *models.AdminNotification) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO complaints (reporter_id, target_type, target_id, reason, description)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, status, created_at
		`, complaint.ReporterID, complaint.TargetType, complaint.TargetID, complaint.Reason, complaint.Description).
			Scan(&complaint.ID, &complaint.Status, &complaint.CreatedAt)
		if err != nil {
			return fmt.Errorf("complaint repository: create %w", err)
		}
		if notification == nil {
			return nil
		}
		return insertAdminNotification(ctx, tx, notification)
	})
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	return common.GetByID[models.Complaint](ctx, r.db, "complaints", id, ErrComplaintNotFound)
}

// List возвращает жалобы, опционально по статусу, старые первыми.
func (r *ComplaintRepository) List(ctx context.Context, status string, limit, offset int) ([]models.Complaint, error) {
	complaints := []models.Complaint{}
	err := r.db.SelectContext(ctx, &complaints, `
		SELECT * FROM complaints
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("complaint repository: list %w", err)
	}
	return complaints, nil
}

// Resolve выставляет решение модератора.
func (r *ComplaintRepository) Resolve(ctx context.Context, id, adminID uuid.UUID, status string) (*models.Complaint, error) {
	return getOne[models.Complaint](ctx, r.db, `
		UPDATE complaints SET status = $2, reviewed_by = $3, reviewed_at = NOW()
		WHERE id = $1
		RETURNING *
	`, ErrComplaintNotFound, id, status, adminID)
}
