package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/push"
	"github.com/ignatzorin/pokemarket-backend/internal/storage"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) CreateWithItems(ctx context.Context, order *models.Order, items []models.OrderItem, event models.OrderEvent) error {
	args := m.Called(ctx, order, items, event)
	if args.Error(0) == nil {
		order.ID = uuid.New()
		order.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) GetDetails(ctx context.Context, id uuid.UUID) (*models.OrderDetails, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderDetails), args.Error(1)
}

func (m *mockOrderRepo) List(ctx context.Context, f models.OrderFilter) ([]models.Order, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) TransitionStatus(ctx context.Context, orderID uuid.UUID, from []valueobject.OrderStatus, to valueobject.OrderStatus, event models.OrderEvent) (*models.Order, error) {
	args := m.Called(ctx, orderID, from, to, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) Complete(ctx context.Context, orderID uuid.UUID, payout *models.Payout, event models.OrderEvent) (*models.Order, error) {
	args := m.Called(ctx, orderID, payout, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) Cancel(ctx context.Context, orderID uuid.UUID, reason string, event models.OrderEvent) (*models.Order, error) {
	args := m.Called(ctx, orderID, reason, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) MarkPayout(ctx context.Context, orderID uuid.UUID, event models.OrderEvent) (*models.Order, error) {
	args := m.Called(ctx, orderID, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type mockListingRepo struct {
	mock.Mock
}

func (m *mockListingRepo) Create(ctx context.Context, l *models.Listing) error {
	args := m.Called(ctx, l)
	if args.Error(0) == nil {
		l.ID = uuid.New()
		l.Active = true
	}
	return args.Error(0)
}

func (m *mockListingRepo) Update(ctx context.Context, l *models.Listing) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockListingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *mockListingRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Listing, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *mockListingRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return m.Called(ctx, id, active).Error(0)
}

func (m *mockListingRepo) List(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]models.Listing), args.Error(1)
}

type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// fakeTasks запоминает поставленные задачи.
type fakeTasks struct {
	types    []string
	payloads []interface{}
	err      error
}

func (f *fakeTasks) Enqueue(ctx context.Context, taskType string, payload interface{}) error {
	f.types = append(f.types, taskType)
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeTasks) count(taskType string) int {
	n := 0
	for _, t := range f.types {
		if t == taskType {
			n++
		}
	}
	return n
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateReports() { f.calls++ }

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) CreateWithNotification(ctx context.Context, review *models.Review, notification *models.AdminNotification) error {
	args := m.Called(ctx, review, notification)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, orderID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByReviewedID(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, reviewedID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func (m *mockReviewRepo) CountByRating(ctx context.Context, userID uuid.UUID) ([]models.RatingCount, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.RatingCount), args.Error(1)
}

type mockConversationRepo struct {
	mock.Mock
}

func (m *mockConversationRepo) Create(ctx context.Context, conv *models.Conversation) error {
	args := m.Called(ctx, conv)
	if args.Error(0) == nil {
		conv.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationRepo) FindActiveBetween(ctx context.Context, a, b uuid.UUID, orderID *uuid.UUID) (*models.Conversation, error) {
	args := m.Called(ctx, a, b, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

func (m *mockConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

func (m *mockConversationRepo) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Conversation, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Conversation), args.Error(1)
}

func (m *mockConversationRepo) InsertMessage(ctx context.Context, msg *models.ChatMessage) error {
	args := m.Called(ctx, msg)
	if args.Error(0) == nil {
		msg.ID = uuid.New()
		msg.CreatedAt = time.Now()
	}
	return args.Error(0)
}

func (m *mockConversationRepo) ListMessages(ctx context.Context, conversationID uuid.UUID, since *time.Time, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, conversationID, since, limit)
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *mockConversationRepo) MarkRead(ctx context.Context, conversationID, readerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, conversationID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockConversationRepo) SetStatus(ctx context.Context, id uuid.UUID, from []valueobject.ConversationStatus, status valueobject.ConversationStatus, systemMsg *models.ChatMessage) (*models.Conversation, error) {
	args := m.Called(ctx, id, from, status, systemMsg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Conversation), args.Error(1)
}

// fakeBroadcaster запоминает события сокета.
type fakeBroadcaster struct {
	events []broadcastEvent
}

type broadcastEvent struct {
	userID uuid.UUID
	event  string
}

func (f *fakeBroadcaster) BroadcastToUser(userID uuid.UUID, event string, data interface{}) error {
	f.events = append(f.events, broadcastEvent{userID: userID, event: event})
	return nil
}

// fakeFileStorage хранит файлы в памяти.
type fakeFileStorage struct {
	saved       map[string][]byte
	contentType string
	deleted     []string
	err         error
}

func newFakeFileStorage() *fakeFileStorage {
	return &fakeFileStorage{saved: make(map[string][]byte)}
}

func (f *fakeFileStorage) Save(ctx context.Context, prefix, originalName, contentType string, r io.Reader) (*storage.Object, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	path := prefix + "/" + originalName
	f.saved[path] = data
	f.contentType = contentType
	return &storage.Object{Path: path, URL: "/media/" + path, Size: int64(len(data))}, nil
}

func (f *fakeFileStorage) Delete(ctx context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

type mockPushRepo struct {
	mock.Mock
}

func (m *mockPushRepo) UpsertDevice(ctx context.Context, device *models.DeviceToken) error {
	return m.Called(ctx, device).Error(0)
}

func (m *mockPushRepo) DeleteDevice(ctx context.Context, userID uuid.UUID, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *mockPushRepo) ListTokensByUsers(ctx context.Context, userIDs []uuid.UUID) ([]models.DeviceToken, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).([]models.DeviceToken), args.Error(1)
}

func (m *mockPushRepo) ListTokensBySegment(ctx context.Context, segment string) ([]models.DeviceToken, error) {
	args := m.Called(ctx, segment)
	return args.Get(0).([]models.DeviceToken), args.Error(1)
}

func (m *mockPushRepo) InsertLog(ctx context.Context, log *models.PushLog) error {
	return m.Called(ctx, log).Error(0)
}

func (m *mockPushRepo) CreateCampaign(ctx context.Context, c *models.PushCampaign) error {
	args := m.Called(ctx, c)
	if args.Error(0) == nil {
		c.ID = uuid.New()
		c.Status = models.CampaignStatusSending
	}
	return args.Error(0)
}

func (m *mockPushRepo) FinishCampaign(ctx context.Context, id uuid.UUID, summary models.PushSummary) (*models.PushCampaign, error) {
	args := m.Called(ctx, id, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PushCampaign), args.Error(1)
}

func (m *mockPushRepo) ListCampaigns(ctx context.Context, limit, offset int) ([]models.PushCampaign, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.PushCampaign), args.Error(1)
}

// stubSender отвечает ошибкой для токенов из failing.
type stubSender struct {
	kind    string
	failing map[string]error
}

func (s *stubSender) Send(ctx context.Context, token string, n push.Notification) error {
	return s.failing[token]
}

func (s *stubSender) Kind() string { return s.kind }

type mockReputationRepo struct {
	mock.Mock
}

func (m *mockReputationRepo) GetReputationStats(ctx context.Context, id uuid.UUID) (*models.ReputationStats, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReputationStats), args.Error(1)
}

func (m *mockReputationRepo) UpdateReputation(ctx context.Context, id uuid.UUID, rep models.Reputation) error {
	return m.Called(ctx, id, rep).Error(0)
}

type mockPayoutRepo struct {
	mock.Mock
}

func (m *mockPayoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) List(ctx context.Context, status string, limit, offset int) ([]models.Payout, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	args := m.Called(ctx, sellerID, limit, offset)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *mockPayoutRepo) MarkCompleted(ctx context.Context, id uuid.UUID, event models.OrderEvent) (*models.Payout, error) {
	args := m.Called(ctx, id, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

type mockComplaintRepo struct {
	mock.Mock
}

func (m *mockComplaintRepo) Create(ctx context.Context, complaint *models.Complaint, notification *models.AdminNotification) error {
	args := m.Called(ctx, complaint, notification)
	if args.Error(0) == nil {
		complaint.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockComplaintRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) List(ctx context.Context, status string, limit, offset int) ([]models.Complaint, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]models.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) Resolve(ctx context.Context, id, adminID uuid.UUID, status string) (*models.Complaint, error) {
	args := m.Called(ctx, id, adminID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

type mockReportRepo struct {
	mock.Mock
}

func (m *mockReportRepo) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.StatusCount), args.Error(1)
}

func (m *mockReportRepo) Totals(ctx context.Context) (*models.DashboardTotals, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardTotals), args.Error(1)
}

func (m *mockReportRepo) TopSellers(ctx context.Context, limit int) ([]models.TopSeller, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]models.TopSeller), args.Error(1)
}
