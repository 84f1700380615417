package push

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/config"
	"github.com/ignatzorin/pokemarket-backend/internal/logger"
)

// Виды отправителей.
const (
	KindV1     = "fcm_v1"
	KindLegacy = "fcm_legacy"
	KindMock   = "mock"
)

// Notification содержимое push-уведомления.
type Notification struct {
	Title    string
	Body     string
	ImageURL string
	Data     map[string]string
}

// Sender доставляет уведомление на один токен устройства.
type Sender interface {
	Send(ctx context.Context, token string, n Notification) error
	Kind() string
}

// NewSender выбирает отправителя по конфигурации: FCM v1, затем legacy-ключ, иначе заглушка.
func NewSender(ctx context.Context, cfg config.PushConfig) (Sender, error) {
	log := logger.WithComponent("push")
	switch {
	case cfg.HasV1Credentials():
		s, err := NewV1Sender(ctx, cfg.FirebaseProjectID, cfg.FirebaseClientEmail, cfg.FirebasePrivateKey)
		if err != nil {
			return nil, err
		}
		log.WithField("project_id", cfg.FirebaseProjectID).Info("push: using FCM HTTP v1")
		return s, nil
	case cfg.FCMServerKey != "":
		log.Info("push: using FCM legacy API")
		return NewLegacySender(cfg.FCMServerKey, nil), nil
	default:
		log.Warn("push: FCM не настроен, уведомления только логируются")
		return NewMockSender(), nil
	}
}

// MockSender пишет уведомление в лог и сообщает об успехе.
type MockSender struct {
	log *logrus.Entry
}

func NewMockSender() *MockSender {
	return &MockSender{log: logger.WithComponent("push")}
}

func (s *MockSender) Send(ctx context.Context, token string, n Notification) error {
	s.log.WithFields(logrus.Fields{"token": shortToken(token), "title": n.Title}).Info("push: mocked delivery")
	return nil
}

func (s *MockSender) Kind() string { return KindMock }

// shortToken укорачивает токен для логов.
func shortToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
