package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

// segmentQueries выборки токенов по сегменту рассылки. Учитываются только активные пользователи.
var segmentQueries = map[string]string{
	models.SegmentAll: `
		SELECT d.* FROM device_tokens d JOIN users u ON u.id = d.user_id
		WHERE u.is_active`,
	models.SegmentSellers: `
		SELECT d.* FROM device_tokens d JOIN users u ON u.id = d.user_id
		WHERE u.is_active AND EXISTS (SELECT 1 FROM listings l WHERE l.owner_id = u.id)`,
	models.SegmentBuyers: `
		SELECT d.* FROM device_tokens d JOIN users u ON u.id = d.user_id
		WHERE u.is_active AND EXISTS (SELECT 1 FROM orders o WHERE o.buyer_id = u.id)`,
	models.SegmentVerifiedSellers: `
		SELECT d.* FROM device_tokens d JOIN users u ON u.id = d.user_id
		WHERE u.is_active AND u.verified_seller`,
	models.SegmentAdmins: `
		SELECT d.* FROM device_tokens d JOIN users u ON u.id = d.user_id
		WHERE u.is_active AND u.role = 'admin'`,
}

// PushRepository хранит токены устройств, кампании и журнал отправок.
type PushRepository struct {
	db *sqlx.DB
}

func NewPushRepository(db *sqlx.DB) *PushRepository {
	return &PushRepository{db: db}
}

// UpsertDevice регистрирует токен. Токен, ранее принадлежавший другому пользователю, переходит текущему.
func (r *PushRepository) UpsertDevice(ctx context.Context, device *models.DeviceToken) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO device_tokens (user_id, token, platform)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE
		SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform, last_seen_at = NOW()
		RETURNING id, created_at, last_seen_at
	`, device.UserID, device.Token, device.Platform).Scan(&device.ID, &device.CreatedAt, &device.LastSeenAt)
	if err != nil {
		return fmt.Errorf("push repository: upsert device %w", err)
	}
	return nil
}

// DeleteDevice удаляет токен пользователя.
func (r *PushRepository) DeleteDevice(ctx context.Context, userID uuid.UUID, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`, userID, token); err != nil {
		return fmt.Errorf("push repository: delete device %w", err)
	}
	return nil
}

// ListTokensByUsers возвращает токены указанных пользователей.
func (r *PushRepository) ListTokensByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.DeviceToken, error) {
	tokens := []models.DeviceToken{}
	if len(userIDs) == 0 {
		return tokens, nil
	}
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = id.String()
	}
	if err := r.db.SelectContext(ctx, &tokens, `
		SELECT * FROM device_tokens WHERE user_id = ANY($1::uuid[])
	`, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("push repository: tokens by users %w", err)
	}
	return tokens, nil
}

// ListTokensBySegment возвращает токены сегмента.
func (r *PushRepository) ListTokensBySegment(ctx context.Context, segment string) ([]models.DeviceToken, error) {
	query, ok := segmentQueries[segment]
	if !ok {
		return nil, fmt.Errorf("push repository: unknown segment %q", segment)
	}
	tokens := []models.DeviceToken{}
	if err := r.db.SelectContext(ctx, &tokens, query); err != nil {
		return nil, fmt.Errorf("push repository: tokens by segment %w", err)
	}
	return tokens, nil
}

// InsertLog пишет результат одной попытки отправки.
func (r *PushRepository) InsertLog(ctx context.Context, log *models.PushLog) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO push_logs (campaign_id, user_id, token, title, status, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, log.CampaignID, log.UserID, log.Token, log.Title, log.Status, log.Error).Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		return fmt.Errorf("push repository: insert log %w", err)
	}
	return nil
}

// CreateCampaign сохраняет кампанию в статусе SENDING.
func (r *PushRepository) CreateCampaign(ctx context.Context, c *models.PushCampaign) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO push_campaigns (created_by, title, body, image_url, segment, status)
		VALUES ($1, $2, $3, $4, $5, 'SENDING')
		RETURNING id, status, created_at
	`, c.CreatedBy, c.Title, c.Body, c.ImageURL, c.Segment).Scan(&c.ID, &c.Status, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("push repository: create campaign %w", err)
	}
	return nil
}

// FinishCampaign сохраняет итог рассылки.
func (r *PushRepository) FinishCampaign(ctx context.Context, id uuid.UUID, summary models.PushSummary) (*models.PushCampaign, error) {
	return getOne[models.PushCampaign](ctx, r.db, `
		UPDATE push_campaigns
		SET target_count = $2, sent_count = $3, failed_count = $4, status = 'DONE', finished_at = NOW()
		WHERE id = $1
		RETURNING *
	`, ErrCampaignNotFound, id, summary.Targets, summary.Sent, summary.Failed)
}

// ListCampaigns возвращает кампании, новые сначала.
func (r *PushRepository) ListCampaigns(ctx context.Context, limit, offset int) ([]models.PushCampaign, error) {
	campaigns := []models.PushCampaign{}
	if err := r.db.SelectContext(ctx, &campaigns, `
		SELECT * FROM push_campaigns ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset); err != nil {
		return nil, fmt.Errorf("push repository: list campaigns %w", err)
	}
	return campaigns, nil
}
