package models

import (
	"time"

	"github.com/google/uuid"
)

// Платформы устройств.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
	PlatformWeb     = "web"
)

// Сегменты рассылки.
const (
	SegmentAll             = "all"
	SegmentSellers         = "sellers"
	SegmentBuyers          = "buyers"
	SegmentVerifiedSellers = "verified_sellers"
	SegmentAdmins          = "admins"
)

// ValidSegments список допустимых сегментов
var ValidSegments = map[string]struct{}{
	SegmentAll:             {},
	SegmentSellers:         {},
	SegmentBuyers:          {},
	SegmentVerifiedSellers: {},
	SegmentAdmins:          {},
}

// Статусы попытки отправки.
const (
	PushStatusSent   = "SENT"
	PushStatusFailed = "FAILED"
	PushStatusMocked = "MOCKED"
)

// Статусы кампании.
const (
	CampaignStatusSending = "SENDING"
	CampaignStatusDone    = "DONE"
)

// DeviceToken FCM токен устройства пользователя.
type DeviceToken struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Token      string    `db:"token" json:"token"`
	Platform   string    `db:"platform" json:"platform"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastSeenAt time.Time `db:"last_seen_at" json:"last_seen_at"`
}

// PushCampaign массовая рассылка из админки.
type PushCampaign struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CreatedBy   uuid.UUID  `db:"created_by" json:"created_by"`
	Title       string     `db:"title" json:"title"`
	Body        string     `db:"body" json:"body"`
	ImageURL    *string    `db:"image_url" json:"image_url,omitempty"`
	Segment     string     `db:"segment" json:"segment"`
	TargetCount int        `db:"target_count" json:"target_count"`
	SentCount   int        `db:"sent_count" json:"sent_count"`
	FailedCount int        `db:"failed_count" json:"failed_count"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	FinishedAt  *time.Time `db:"finished_at" json:"finished_at,omitempty"`
}

// PushLog одна попытка доставки на один токен.
type PushLog struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	CampaignID *uuid.UUID `db:"campaign_id" json:"campaign_id,omitempty"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Token      string     `db:"token" json:"token"`
	Title      string     `db:"title" json:"title"`
	Status     string     `db:"status" json:"status"`
	Error      *string    `db:"error" json:"error,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// PushSummary итог рассылки.
type PushSummary struct {
	Targets int `json:"targets"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}
