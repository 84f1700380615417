package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// LegacyEndpoint адрес устаревшего FCM API.
const LegacyEndpoint = "https://fcm.googleapis.com/fcm/send"

// LegacySender отправляет через FCM legacy API по серверному ключу.
type LegacySender struct {
	serverKey  string
	endpoint   string
	httpClient *http.Client
}

type legacyRequest struct {
	To           string             `json:"to"`
	Notification legacyNotification `json:"notification"`
	Data         map[string]string  `json:"data,omitempty"`
}

type legacyNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Image string `json:"image,omitempty"`
}

type legacyResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error,omitempty"`
	} `json:"results"`
}

func NewLegacySender(serverKey string, httpClient *http.Client) *LegacySender {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &LegacySender{serverKey: serverKey, endpoint: LegacyEndpoint, httpClient: httpClient}
}

// WithEndpoint подменяет адрес API.
func (s *LegacySender) WithEndpoint(endpoint string) *LegacySender {
	s.endpoint = endpoint
	return s
}

func (s *LegacySender) Send(ctx context.Context, token string, n Notification) error {
	body, err := json.Marshal(legacyRequest{
		To:           token,
		Notification: legacyNotification{Title: n.Title, Body: n.Body, Image: n.ImageURL},
		Data:         n.Data,
	})
	if err != nil {
		return fmt.Errorf("fcm legacy: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("fcm legacy: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+s.serverKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fcm legacy: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("fcm legacy: status %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var out legacyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("fcm legacy: decode response: %w", err)
	}
	if out.Failure > 0 {
		reason := "unknown"
		if len(out.Results) > 0 && out.Results[0].Error != "" {
			reason = out.Results[0].Error
		}
		return fmt.Errorf("fcm legacy: delivery failed: %s", reason)
	}
	return nil
}

func (s *LegacySender) Kind() string { return KindLegacy }
