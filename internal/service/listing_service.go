package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/validation"
)

type ListingRepository interface {
	Create(ctx context.Context, l *models.Listing) error
	Update(ctx context.Context, l *models.Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	List(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)
}

// ListingInput редактируемые поля объявления.
type ListingInput struct {
	Title          string          `validate:"required"`
	Description    *string         `validate:"omitempty"`
	Category       string          `validate:"required,oneof=pokemon raid account item service"`
	PriceSuggested decimal.Decimal `validate:"-"`
	IsShiny        bool
	HasCostume     bool
	HasBackground  bool
	IsPurified     bool
	IsDynamax      bool
	IsGigantamax   bool
	AcceptsOffers  bool
	PhotoURL       *string         `validate:"omitempty,url"`
	PokemonData    json.RawMessage `validate:"-"`
}

type ListingService struct {
	repo ListingRepository
	log  *logrus.Entry
}

func NewListingService(repo ListingRepository) *ListingService {
	return &ListingService{repo: repo, log: logger.WithComponent("listing_service")}
}

func (s *ListingService) CreateListing(ctx context.Context, ownerID uuid.UUID, in ListingInput) (*models.Listing, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	listing := &models.Listing{OwnerID: ownerID}
	applyListingInput(listing, in)
	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"listing_id": listing.ID, "owner_id": ownerID}).Info("объявление создано")
	return listing, nil
}

// UpdateListing редактирует объявление владельца.
func (s *ListingService) UpdateListing(ctx context.Context, listingID, actorID uuid.UUID, isAdmin bool, in ListingInput) (*models.Listing, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}

	listing, err := s.owned(ctx, listingID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	applyListingInput(listing, in)
	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, mapRepoError(err)
	}
	return listing, nil
}

// SetActive включает или снимает объявление с продажи. Доступно владельцу и администратору.
func (s *ListingService) SetActive(ctx context.Context, listingID, actorID uuid.UUID, isAdmin, active bool) (*models.Listing, error) {
	listing, err := s.owned(ctx, listingID, actorID, isAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetActive(ctx, listingID, active); err != nil {
		return nil, mapRepoError(err)
	}
	listing.Active = active

	s.log.WithFields(logrus.Fields{"listing_id": listingID, "actor_id": actorID, "active": active}).Info("видимость объявления изменена")
	return listing, nil
}

func (s *ListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return listing, nil
}

// ListListings каталог. Снятые объявления видны только владельцу в его выборке.
func (s *ListingService) ListListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	if f.Category != "" {
		if _, ok := models.ValidListingCategories[f.Category]; !ok {
			return nil, validationError("неизвестная категория")
		}
	}
	f.Limit, f.Offset = normalizePage(f.Limit, f.Offset)
	listings, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return listings, nil
}

func (s *ListingService) owned(ctx context.Context, listingID, actorID uuid.UUID, isAdmin bool) (*models.Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !isAdmin && listing.OwnerID != actorID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "объявление принадлежит другому пользователю")
	}
	return listing, nil
}

func (s *ListingService) validate(in *ListingInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	if err := validation.ValidateListingTitle(in.Title); err != nil {
		return validationError(err.Error())
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		if err := validation.ValidateLength("описание", desc, 0, validation.MaxListingDescLength); err != nil {
			return validationError(err.Error())
		}
		in.Description = &desc
	}
	if !in.PriceSuggested.IsPositive() {
		return validationError("цена должна быть больше нуля")
	}
	if len(in.PokemonData) > 0 && !json.Valid(in.PokemonData) {
		return validationError("pokemon_data должен быть корректным JSON")
	}
	return validateStruct(in)
}

func applyListingInput(l *models.Listing, in ListingInput) {
	l.Title = in.Title
	l.Description = in.Description
	l.Category = in.Category
	l.PriceSuggested = in.PriceSuggested.Round(2)
	l.IsShiny = in.IsShiny
	l.HasCostume = in.HasCostume
	l.HasBackground = in.HasBackground
	l.IsPurified = in.IsPurified
	l.IsDynamax = in.IsDynamax
	l.IsGigantamax = in.IsGigantamax
	l.AcceptsOffers = in.AcceptsOffers
	l.PhotoURL = in.PhotoURL
	l.PokemonData = models.JSONB(in.PokemonData)
}
