package repository

import "errors"

// Ошибки уровня репозитория.
var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrListingNotFound      = errors.New("listing not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidOrderStatus   = errors.New("order is not in the expected status")
	ErrPayoutNotFound       = errors.New("payout not found")
	ErrPayoutExists         = errors.New("payout already exists for order")
	ErrPayoutCompleted      = errors.New("payout already completed")
	ErrDuplicateReview      = errors.New("review already exists")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrComplaintNotFound    = errors.New("complaint not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrCampaignNotFound     = errors.New("campaign not found")

	ErrInvalidConversationStatus = errors.New("conversation is not in the expected status")
)
