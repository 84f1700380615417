package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/repository/common"
)

// ListingRepository хранит объявления продавцов.
type ListingRepository struct {
	db *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// Create создаёт объявление.
func (r *ListingRepository) Create(ctx context.Context, l *models.Listing) error {
	query := `
		INSERT INTO listings (owner_id, title, description, category, price_suggested, is_shiny, has_costume,
		                      has_background, is_purified, is_dynamax, is_gigantamax, accepts_offers, photo_url, pokemon_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, active, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		l.OwnerID, l.Title, l.Description, l.Category, l.PriceSuggested, l.IsShiny, l.HasCostume,
		l.HasBackground, l.IsPurified, l.IsDynamax, l.IsGigantamax, l.AcceptsOffers, l.PhotoURL, l.PokemonData,
	).Scan(&l.ID, &l.Active, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("listing repository: create %w", err)
	}
	return nil
}

// Update перезаписывает редактируемые поля объявления.
func (r *ListingRepository) Update(ctx context.Context, l *models.Listing) error {
	query := `
		UPDATE listings SET
			title = $2, description = $3, category = $4, price_suggested = $5, is_shiny = $6,
			has_costume = $7, has_background = $8, is_purified = $9, is_dynamax = $10,
			is_gigantamax = $11, accepts_offers = $12, photo_url = $13, pokemon_data = $14,
			updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		l.ID, l.Title, l.Description, l.Category, l.PriceSuggested, l.IsShiny,
		l.HasCostume, l.HasBackground, l.IsPurified, l.IsDynamax,
		l.IsGigantamax, l.AcceptsOffers, l.PhotoURL, l.PokemonData,
	)
	if err != nil {
		return fmt.Errorf("listing repository: update %w", err)
	}
	return expectAffected(res, ErrListingNotFound)
}

// GetByID возвращает объявление.
func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	return common.GetByID[models.Listing](ctx, r.db, "listings", id, ErrListingNotFound)
}

// GetByIDs возвращает объявления из списка, порядок не гарантирован.
func (r *ListingRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Listing, error) {
	listings := []models.Listing{}
	if len(ids) == 0 {
		return listings, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = id.String()
	}
	if err := r.db.SelectContext(ctx, &listings, `SELECT * FROM listings WHERE id = ANY($1::uuid[])`, pq.Array(raw)); err != nil {
		return nil, fmt.Errorf("listing repository: get by ids %w", err)
	}
	return listings, nil
}

// SetActive включает или скрывает объявление. Удаление только мягкое.
func (r *ListingRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE listings SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("listing repository: set active %w", err)
	}
	return expectAffected(res, ErrListingNotFound)
}

// List возвращает каталог по фильтру.
func (r *ListingRepository) List(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	conds := []string{"1=1"}
	args := []interface{}{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.OnlyActive {
		conds = append(conds, "active = TRUE")
	}
	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.OwnerID != nil {
		add("owner_id = $%d", *f.OwnerID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("title ILIKE '%%' || $%d || '%%'", s)
	}
	if f.IsShiny != nil {
		add("is_shiny = $%d", *f.IsShiny)
	}
	if f.IsDynamax != nil {
		add("is_dynamax = $%d", *f.IsDynamax)
	}
	if f.IsGigantamax != nil {
		add("is_gigantamax = $%d", *f.IsGigantamax)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`
		SELECT * FROM listings
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, strings.Join(conds, " AND "), len(args)-1, len(args))

	listings := []models.Listing{}
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, fmt.Errorf("listing repository: list %w", err)
	}
	return listings, nil
}
