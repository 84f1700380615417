package push

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
)

const (
	messagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	// Токен Google живёт час, обновляем за 5 минут до истечения.
	tokenEarlyExpiry = 5 * time.Minute
)

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// V1Sender отправляет через FCM HTTP v1 от имени сервисного аккаунта.
type V1Sender struct {
	client messagingClient
}

// NewTokenSource возвращает кэширующий источник OAuth2 токенов сервисного аккаунта.
func NewTokenSource(ctx context.Context, clientEmail, privateKey string) oauth2.TokenSource {
	cfg := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{messagingScope},
		TokenURL:   google.JWTTokenURL,
	}
	return oauth2.ReuseTokenSourceWithExpiry(nil, cfg.TokenSource(ctx), tokenEarlyExpiry)
}

func NewV1Sender(ctx context.Context, projectID, clientEmail, privateKey string) (*V1Sender, error) {
	ts := NewTokenSource(context.Background(), clientEmail, privateKey)
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("push: init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("push: init messaging client: %w", err)
	}
	return &V1Sender{client: client}, nil
}

func (s *V1Sender) Send(ctx context.Context, token string, n Notification) error {
	if _, err := s.client.Send(ctx, buildMessage(token, n)); err != nil {
		return fmt.Errorf("fcm v1: %w", err)
	}
	return nil
}

func (s *V1Sender) Kind() string { return KindV1 }

func buildMessage(token string, n Notification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title:    n.Title,
			Body:     n.Body,
			ImageURL: n.ImageURL,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
