package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Категории объявлений.
const (
	ListingCategoryPokemon = "pokemon"
	ListingCategoryRaid    = "raid"
	ListingCategoryAccount = "account"
	ListingCategoryItem    = "item"
	ListingCategoryService = "service"
)

// ValidListingCategories список допустимых категорий
var ValidListingCategories = map[string]struct{}{
	ListingCategoryPokemon: {},
	ListingCategoryRaid:    {},
	ListingCategoryAccount: {},
	ListingCategoryItem:    {},
	ListingCategoryService: {},
}

// Listing объявление продавца о виртуальном предмете.
type Listing struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OwnerID        uuid.UUID       `db:"owner_id" json:"owner_id"`
	Title          string          `db:"title" json:"title"`
	Description    *string         `db:"description" json:"description,omitempty"`
	Category       string          `db:"category" json:"category"`
	PriceSuggested decimal.Decimal `db:"price_suggested" json:"price_suggested"`
	IsShiny        bool            `db:"is_shiny" json:"is_shiny"`
	HasCostume     bool            `db:"has_costume" json:"has_costume"`
	HasBackground  bool            `db:"has_background" json:"has_background"`
	IsPurified     bool            `db:"is_purified" json:"is_purified"`
	IsDynamax      bool            `db:"is_dynamax" json:"is_dynamax"`
	IsGigantamax   bool            `db:"is_gigantamax" json:"is_gigantamax"`
	AcceptsOffers  bool            `db:"accepts_offers" json:"accepts_offers"`
	Active         bool            `db:"active" json:"active"`
	PhotoURL       *string         `db:"photo_url" json:"photo_url,omitempty"`
	PokemonData    JSONB           `db:"pokemon_data" json:"pokemon_data,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// ListingFilter параметры выборки каталога.
type ListingFilter struct {
	Category     string
	OwnerID      *uuid.UUID
	Search       string
	IsShiny      *bool
	IsDynamax    *bool
	IsGigantamax *bool
	OnlyActive   bool
	Limit        int
	Offset       int
}
