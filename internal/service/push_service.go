package service

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/outbox"
	"github.com/ignatzorin/pokemarket-backend/internal/push"
	"github.com/ignatzorin/pokemarket-backend/internal/validation"
)

const defaultPushConcurrency = 16

type PushRepository interface {
	UpsertDevice(ctx context.Context, device *models.DeviceToken) error
	DeleteDevice(ctx context.Context, userID uuid.UUID, token string) error
	ListTokensByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.DeviceToken, error)
	ListTokensBySegment(ctx context.Context, segment string) ([]models.DeviceToken, error)
	InsertLog(ctx context.Context, log *models.PushLog) error
	CreateCampaign(ctx context.Context, c *models.PushCampaign) error
	FinishCampaign(ctx context.Context, id uuid.UUID, summary models.PushSummary) (*models.PushCampaign, error)
	ListCampaigns(ctx context.Context, limit, offset int) ([]models.PushCampaign, error)
}

// MessageInput содержимое уведомления из админки.
type MessageInput struct {
	Title    string            `validate:"required,max=100"`
	Body     string            `validate:"required,max=500"`
	ImageURL string            `validate:"omitempty,url"`
	Data     map[string]string `validate:"-"`
}

// CampaignInput массовая рассылка по сегменту.
type CampaignInput struct {
	MessageInput
	Segment string `validate:"required,oneof=all sellers buyers verified_sellers admins"`
}

type PushService struct {
	repo        PushRepository
	sender      push.Sender
	concurrency int
	log         *logrus.Entry
}

func NewPushService(repo PushRepository, sender push.Sender, concurrency int) *PushService {
	if concurrency <= 0 {
		concurrency = defaultPushConcurrency
	}
	return &PushService{
		repo:        repo,
		sender:      sender,
		concurrency: concurrency,
		log:         logger.WithComponent("push_service"),
	}
}

// RegisterDevice сохраняет FCM токен устройства пользователя.
func (s *PushService) RegisterDevice(ctx context.Context, userID uuid.UUID, token, platform string) (*models.DeviceToken, error) {
	token = strings.TrimSpace(token)
	platform = strings.ToLower(strings.TrimSpace(platform))
	if token == "" {
		return nil, validationError("токен устройства обязателен")
	}
	switch platform {
	case models.PlatformAndroid, models.PlatformIOS, models.PlatformWeb:
	case "":
		platform = models.PlatformAndroid
	default:
		return nil, validationError("платформа должна быть android, ios или web")
	}

	device := &models.DeviceToken{UserID: userID, Token: token, Platform: platform}
	if err := s.repo.UpsertDevice(ctx, device); err != nil {
		return nil, mapRepoError(err)
	}
	return device, nil
}

func (s *PushService) UnregisterDevice(ctx context.Context, userID uuid.UUID, token string) error {
	if err := s.repo.DeleteDevice(ctx, userID, strings.TrimSpace(token)); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// SendToUser отправляет уведомление на все устройства пользователя.
func (s *PushService) SendToUser(ctx context.Context, userID uuid.UUID, in MessageInput) (*models.PushSummary, error) {
	return s.SendToUsers(ctx, []uuid.UUID{userID}, in)
}

func (s *PushService) SendToUsers(ctx context.Context, userIDs []uuid.UUID, in MessageInput) (*models.PushSummary, error) {
	if err := s.validateMessage(&in); err != nil {
		return nil, err
	}
	tokens, err := s.repo.ListTokensByUsers(ctx, uniqueIDs(userIDs))
	if err != nil {
		return nil, mapRepoError(err)
	}
	summary := s.fanOut(ctx, nil, tokens, in)
	return &summary, nil
}

func (s *PushService) SendToAll(ctx context.Context, in MessageInput) (*models.PushSummary, error) {
	return s.SendBySegment(ctx, models.SegmentAll, in)
}

// SendBySegment рассылка без сохранения кампании.
func (s *PushService) SendBySegment(ctx context.Context, segment string, in MessageInput) (*models.PushSummary, error) {
	if err := s.validateMessage(&in); err != nil {
		return nil, err
	}
	if _, ok := models.ValidSegments[segment]; !ok {
		return nil, validationError("неизвестный сегмент рассылки")
	}
	tokens, err := s.repo.ListTokensBySegment(ctx, segment)
	if err != nil {
		return nil, mapRepoError(err)
	}
	summary := s.fanOut(ctx, nil, tokens, in)
	return &summary, nil
}

// CreateCampaign сохраняет кампанию, рассылает по сегменту и записывает итог.
func (s *PushService) CreateCampaign(ctx context.Context, adminID uuid.UUID, in CampaignInput) (*models.PushCampaign, error) {
	in.Segment = strings.ToLower(strings.TrimSpace(in.Segment))
	if err := s.validateMessage(&in.MessageInput); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	campaign := &models.PushCampaign{
		CreatedBy: adminID,
		Title:     in.Title,
		Body:      in.Body,
		Segment:   in.Segment,
	}
	if in.ImageURL != "" {
		image := in.ImageURL
		campaign.ImageURL = &image
	}
	if err := s.repo.CreateCampaign(ctx, campaign); err != nil {
		return nil, mapRepoError(err)
	}

	tokens, err := s.repo.ListTokensBySegment(ctx, in.Segment)
	if err != nil {
		return nil, mapRepoError(err)
	}

	summary := s.fanOut(ctx, &campaign.ID, tokens, in.MessageInput)
	finished, err := s.repo.FinishCampaign(ctx, campaign.ID, summary)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"segment":     in.Segment,
		"targets":     summary.Targets,
		"sent":        summary.Sent,
		"failed":      summary.Failed,
	}).Info("рассылка завершена")
	return finished, nil
}

func (s *PushService) ListCampaigns(ctx context.Context, limit, offset int) ([]models.PushCampaign, error) {
	limit, offset = normalizePage(limit, offset)
	campaigns, err := s.repo.ListCampaigns(ctx, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return campaigns, nil
}

// HandlePushTask обработчик фоновой задачи push.user.
// Ошибка возвращается только при сбое чтения токенов: повтор не должен дублировать доставленные уведомления.
func (s *PushService) HandlePushTask(ctx context.Context, task outbox.Task) error {
	var p outbox.PushUserPayload
	if err := task.Decode(&p); err != nil {
		s.log.WithError(err).WithField("task_id", task.ID).Error("некорректная задача push")
		return nil
	}

	tokens, err := s.repo.ListTokensByUsers(ctx, []uuid.UUID{p.UserID})
	if err != nil {
		return err
	}
	s.fanOut(ctx, nil, tokens, MessageInput{Title: p.Title, Body: p.Body, Data: p.Data})
	return nil
}

// fanOut отправляет по одному запросу на токен с ограничением параллелизма.
// Ошибка одного токена не останавливает остальные; каждая попытка пишется в push_logs.
func (s *PushService) fanOut(ctx context.Context, campaignID *uuid.UUID, tokens []models.DeviceToken, in MessageInput) models.PushSummary {
	summary := models.PushSummary{Targets: len(tokens)}
	if len(tokens) == 0 {
		return summary
	}

	n := push.Notification{Title: in.Title, Body: in.Body, ImageURL: in.ImageURL, Data: in.Data}
	okStatus := models.PushStatusSent
	if s.sender.Kind() == push.KindMock {
		okStatus = models.PushStatusMocked
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, device := range tokens {
		device := device
		g.Go(func() error {
			entry := &models.PushLog{
				CampaignID: campaignID,
				UserID:     device.UserID,
				Token:      device.Token,
				Title:      in.Title,
				Status:     okStatus,
			}
			if err := s.sender.Send(gctx, device.Token, n); err != nil {
				msg := err.Error()
				entry.Status = models.PushStatusFailed
				entry.Error = &msg
			}

			mu.Lock()
			if entry.Status == models.PushStatusFailed {
				summary.Failed++
			} else {
				summary.Sent++
			}
			mu.Unlock()

			// лог пишется с родительским контекстом, отмена рассылки не теряет записи
			if err := s.repo.InsertLog(context.WithoutCancel(ctx), entry); err != nil {
				s.log.WithError(err).WithField("user_id", device.UserID).Warn("не удалось записать push_log")
			}
			return nil
		})
	}
	_ = g.Wait()

	return summary
}

func (s *PushService) validateMessage(in *MessageInput) error {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := validation.ValidateLength("заголовок", in.Title, 1, validation.MaxPushTitleLength); err != nil {
		return validationError(err.Error())
	}
	if err := validation.ValidateLength("текст", in.Body, 1, validation.MaxPushBodyLength); err != nil {
		return validationError(err.Error())
	}
	return validateStruct(in)
}
