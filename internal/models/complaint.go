package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ComplaintStatusPending     = "pending"
	ComplaintStatusReviewed    = "reviewed"
	ComplaintStatusActionTaken = "action_taken"
	ComplaintStatusDismissed   = "dismissed"

	ComplaintTargetUser    = "user"
	ComplaintTargetOrder   = "order"
	ComplaintTargetListing = "listing"
	ComplaintTargetMessage = "message"
	ComplaintTargetReview  = "review"
)

// ValidComplaintTargets список допустимых объектов жалобы
var ValidComplaintTargets = map[string]struct{}{
	ComplaintTargetUser:    {},
	ComplaintTargetOrder:   {},
	ComplaintTargetListing: {},
	ComplaintTargetMessage: {},
	ComplaintTargetReview:  {},
}

// ValidComplaintResolutions статусы, которые может выставить администратор
var ValidComplaintResolutions = map[string]struct{}{
	ComplaintStatusReviewed:    {},
	ComplaintStatusActionTaken: {},
	ComplaintStatusDismissed:   {},
}

type Complaint struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ReporterID  uuid.UUID  `db:"reporter_id" json:"reporter_id"`
	TargetType  string     `db:"target_type" json:"target_type"`
	TargetID    uuid.UUID  `db:"target_id" json:"target_id"`
	Reason      string     `db:"reason" json:"reason"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status" json:"status"`
	ReviewedBy  *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
