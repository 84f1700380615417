package dto

import (
	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ListResponse wraps a page of items
type ListResponse struct {
	Items  interface{} `json:"items"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// NewListResponse creates a ListResponse; nil slices are rendered as []
func NewListResponse(items interface{}, limit, offset int) *ListResponse {
	if items == nil {
		items = []struct{}{}
	}
	return &ListResponse{Items: items, Limit: limit, Offset: offset}
}

// UserReviewsResponse represents reviews about a user with the aggregate rating
type UserReviewsResponse struct {
	Reviews       []models.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
	TotalReviews  int             `json:"total_reviews"`
}

// MarkReadResponse reports how many messages were marked as read
type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}
