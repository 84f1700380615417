package dto

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterRequest represents the request to create an account
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Username string `json:"username" binding:"required"`
}

// LoginRequest represents the request to sign in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ListingRequest represents the request to create or update a listing
type ListingRequest struct {
	Title          string          `json:"title" binding:"required"`
	Description    *string         `json:"description"`
	Category       string          `json:"category" binding:"required"`
	PriceSuggested decimal.Decimal `json:"price_suggested"`
	IsShiny        bool            `json:"is_shiny"`
	HasCostume     bool            `json:"has_costume"`
	HasBackground  bool            `json:"has_background"`
	IsPurified     bool            `json:"is_purified"`
	IsDynamax      bool            `json:"is_dynamax"`
	IsGigantamax   bool            `json:"is_gigantamax"`
	AcceptsOffers  bool            `json:"accepts_offers"`
	PhotoURL       *string         `json:"photo_url"`
	PokemonData    json.RawMessage `json:"pokemon_data"`
}

// SetActiveRequest toggles visibility of a listing or an account
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CheckoutRequest represents a cart checkout
type CheckoutRequest struct {
	ListingIDs []uuid.UUID `json:"listing_ids" binding:"required,min=1"`
}

// CompleteOrderRequest represents payout data entered by an admin
type CompleteOrderRequest struct {
	Method    string          `json:"method" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Reference *string         `json:"reference"`
}

// CancelOrderRequest represents an admin cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// SetOrderStatusRequest represents a manual status change from the admin board
type SetOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateReviewRequest represents a review after order completion
type CreateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required,min=1,max=5"`
	Comment *string `json:"comment"`
}

// StartConversationRequest represents the request to open a chat
type StartConversationRequest struct {
	UserID  uuid.UUID  `json:"user_id" binding:"required"`
	OrderID *uuid.UUID `json:"order_id"`
	Subject string     `json:"subject"`
}

// SendMessageRequest represents the request to send a message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// RegisterDeviceRequest represents an FCM token registration
type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform"`
}

// PushMessageRequest represents a notification composed in the admin panel
type PushMessageRequest struct {
	Title    string            `json:"title" binding:"required"`
	Body     string            `json:"body" binding:"required"`
	ImageURL string            `json:"image_url"`
	Data     map[string]string `json:"data"`
}

// CampaignRequest represents a segment broadcast
type CampaignRequest struct {
	PushMessageRequest
	Segment string `json:"segment" binding:"required"`
}

// CreateComplaintRequest represents a user complaint
type CreateComplaintRequest struct {
	TargetType  string    `json:"target_type" binding:"required"`
	TargetID    uuid.UUID `json:"target_id" binding:"required"`
	Reason      string    `json:"reason" binding:"required"`
	Description *string   `json:"description"`
}

// ResolveComplaintRequest represents an admin decision on a complaint
type ResolveComplaintRequest struct {
	Status string `json:"status" binding:"required"`
}

// SeedRequest represents the request to generate development data
type SeedRequest struct {
	NumUsers    int `json:"num_users" form:"num_users"`
	NumListings int `json:"num_listings" form:"num_listings"`
}
