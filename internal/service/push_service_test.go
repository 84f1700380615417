package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/outbox"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/push"
)

func devices(userID uuid.UUID, tokens ...string) []models.DeviceToken {
	out := make([]models.DeviceToken, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, models.DeviceToken{ID: uuid.New(), UserID: userID, Token: tok})
	}
	return out
}

func TestPushService_SendToUser_CountsFailures(t *testing.T) {
	repo := new(mockPushRepo)
	sender := &stubSender{kind: push.KindV1, failing: map[string]error{"bad": errors.New("UNREGISTERED")}}
	service := NewPushService(repo, sender, 2)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListTokensByUsers", ctx, []uuid.UUID{userID}).Return(devices(userID, "t1", "bad", "t3"), nil)
	repo.On("InsertLog", mock.Anything, mock.AnythingOfType("*models.PushLog")).Return(nil)

	summary, err := service.SendToUser(ctx, userID, MessageInput{Title: "Заказ", Body: "Оплата подтверждена"})
	require.NoError(t, err)
	assert.Equal(t, models.PushSummary{Targets: 3, Sent: 2, Failed: 1}, *summary)

	repo.AssertNumberOfCalls(t, "InsertLog", 3)
	failed := 0
	for _, call := range repo.Calls {
		if call.Method != "InsertLog" {
			continue
		}
		entry := call.Arguments.Get(1).(*models.PushLog)
		if entry.Status == models.PushStatusFailed {
			failed++
			assert.Equal(t, "bad", entry.Token)
			require.NotNil(t, entry.Error)
			assert.Equal(t, "UNREGISTERED", *entry.Error)
		} else {
			assert.Equal(t, models.PushStatusSent, entry.Status)
		}
	}
	assert.Equal(t, 1, failed)
}

func TestPushService_MockSenderLogsMocked(t *testing.T) {
	repo := new(mockPushRepo)
	service := NewPushService(repo, &stubSender{kind: push.KindMock}, 0)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListTokensByUsers", ctx, []uuid.UUID{userID}).Return(devices(userID, "t1"), nil)
	repo.On("InsertLog", mock.Anything, mock.MatchedBy(func(l *models.PushLog) bool {
		return l.Status == models.PushStatusMocked && l.CampaignID == nil
	})).Return(nil)

	summary, err := service.SendToUser(ctx, userID, MessageInput{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sent)
	repo.AssertExpectations(t)
}

func TestPushService_NoTokens(t *testing.T) {
	repo := new(mockPushRepo)
	service := NewPushService(repo, &stubSender{kind: push.KindV1}, 4)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListTokensByUsers", ctx, []uuid.UUID{userID}).Return([]models.DeviceToken{}, nil)

	summary, err := service.SendToUser(ctx, userID, MessageInput{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Zero(t, summary.Targets)
	repo.AssertNotCalled(t, "InsertLog", mock.Anything, mock.Anything)
}

func TestPushService_ValidatesMessage(t *testing.T) {
	service := NewPushService(new(mockPushRepo), &stubSender{kind: push.KindMock}, 1)

	_, err := service.SendToUser(context.Background(), uuid.New(), MessageInput{Title: "  ", Body: "b"})
	assert.True(t, apperror.IsValidation(err))

	_, err = service.SendToAll(context.Background(), MessageInput{Title: "t", Body: "b", ImageURL: "not a url"})
	assert.True(t, apperror.IsValidation(err))

	_, err = service.SendBySegment(context.Background(), "whales", MessageInput{Title: "t", Body: "b"})
	assert.True(t, apperror.IsValidation(err))
}

func TestPushService_CreateCampaign(t *testing.T) {
	repo := new(mockPushRepo)
	service := NewPushService(repo, &stubSender{kind: push.KindV1}, 4)
	ctx := context.Background()
	adminID := uuid.New()
	seller := uuid.New()
	done := &models.PushCampaign{ID: uuid.New(), Status: models.CampaignStatusDone, TargetCount: 2, SentCount: 2}

	repo.On("CreateCampaign", ctx, mock.MatchedBy(func(c *models.PushCampaign) bool {
		return c.Segment == models.SegmentSellers && c.CreatedBy == adminID && c.ImageURL != nil
	})).Return(nil)
	repo.On("ListTokensBySegment", ctx, models.SegmentSellers).Return(devices(seller, "a", "b"), nil)
	repo.On("InsertLog", mock.Anything, mock.MatchedBy(func(l *models.PushLog) bool {
		return l.CampaignID != nil
	})).Return(nil)
	repo.On("FinishCampaign", ctx, mock.Anything, models.PushSummary{Targets: 2, Sent: 2}).Return(done, nil)

	campaign, err := service.CreateCampaign(ctx, adminID, CampaignInput{
		MessageInput: MessageInput{Title: "Сообщество", Body: "Рейд-уикенд", ImageURL: "https://cdn.example.com/raid.png"},
		Segment:      " SELLERS ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusDone, campaign.Status)
	repo.AssertExpectations(t)
}

func TestPushService_CreateCampaign_UnknownSegment(t *testing.T) {
	repo := new(mockPushRepo)
	service := NewPushService(repo, &stubSender{kind: push.KindV1}, 4)

	_, err := service.CreateCampaign(context.Background(), uuid.New(), CampaignInput{
		MessageInput: MessageInput{Title: "t", Body: "b"},
		Segment:      "whales",
	})
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "CreateCampaign", mock.Anything, mock.Anything)
}

func TestPushService_RegisterDevice(t *testing.T) {
	repo := new(mockPushRepo)
	service := NewPushService(repo, &stubSender{kind: push.KindMock}, 1)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("UpsertDevice", ctx, mock.MatchedBy(func(d *models.DeviceToken) bool {
		return d.Platform == models.PlatformAndroid && d.Token == "fcm-token"
	})).Return(nil)

	device, err := service.RegisterDevice(ctx, userID, " fcm-token ", "")
	require.NoError(t, err)
	assert.Equal(t, userID, device.UserID)

	_, err = service.RegisterDevice(ctx, userID, "x", "symbian")
	assert.True(t, apperror.IsValidation(err))

	_, err = service.RegisterDevice(ctx, userID, "", "ios")
	assert.True(t, apperror.IsValidation(err))
}

func TestPushService_HandlePushTask(t *testing.T) {
	repo := new(mockPushRepo)
	service := NewPushService(repo, &stubSender{kind: push.KindV1}, 2)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListTokensByUsers", ctx, []uuid.UUID{userID}).Return(devices(userID, "t1"), nil)
	repo.On("InsertLog", mock.Anything, mock.Anything).Return(nil)

	task, err := outbox.NewTask(outbox.TypePushUser, outbox.PushUserPayload{UserID: userID, Title: "t", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, service.HandlePushTask(ctx, task))
	repo.AssertNumberOfCalls(t, "InsertLog", 1)
}

func TestPushService_HandlePushTask_RetriesOnTokenLookupError(t *testing.T) {
	repo := new(mockPushRepo)
	service := NewPushService(repo, &stubSender{kind: push.KindV1}, 2)
	ctx := context.Background()
	userID := uuid.New()

	repo.On("ListTokensByUsers", ctx, []uuid.UUID{userID}).Return([]models.DeviceToken(nil), assert.AnError)

	task, err := outbox.NewTask(outbox.TypePushUser, outbox.PushUserPayload{UserID: userID, Title: "t", Body: "b"})
	require.NoError(t, err)

	assert.Error(t, service.HandlePushTask(ctx, task))
}

func TestPushService_HandlePushTask_DropsMalformed(t *testing.T) {
	service := NewPushService(new(mockPushRepo), &stubSender{kind: push.KindV1}, 2)

	err := service.HandlePushTask(context.Background(), outbox.Task{ID: "x", Type: outbox.TypePushUser, Payload: []byte("{")})
	assert.NoError(t, err)
}
