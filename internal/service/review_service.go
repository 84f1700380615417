package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/pokemarket-backend/internal/validation"
)

const (
	maxReviewCommentLength = 1000
	distributionCacheTTL   = 5 * time.Minute
)

type ReviewRepository interface {
	CreateWithNotification(ctx context.Context, review *models.Review, notification *models.AdminNotification) error
	GetByOrderAndReviewer(ctx context.Context, orderID, reviewerID uuid.UUID) (*models.Review, error)
	ListByReviewedID(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.Review, error)
	GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error)
	CountByRating(ctx context.Context, userID uuid.UUID) ([]models.RatingCount, error)
}

type OrderRepoForReview interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Cache кэш с вычислением значения при промахе.
type Cache interface {
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() (interface{}, error)) (interface{}, error)
	Delete(key string)
}

type ReviewService struct {
	repo    ReviewRepository
	orders  OrderRepoForReview
	cache   Cache
	effects sideEffects
	log     *logrus.Entry
}

func NewReviewService(repo ReviewRepository, orders OrderRepoForReview, cache Cache, tasks TaskEnqueuer) *ReviewService {
	return &ReviewService{
		repo:    repo,
		orders:  orders,
		cache:   cache,
		effects: newSideEffects(tasks, "review_service"),
		log:     logger.WithComponent("review_service"),
	}
}

// reviewTarget кому и в какой роли оставляется отзыв.
type reviewTarget struct {
	order      *models.Order
	reviewedID uuid.UUID
	reviewType string
}

// eligibility единая проверка права оставить отзыв.
func (s *ReviewService) eligibility(ctx context.Context, orderID, reviewerID uuid.UUID) (*reviewTarget, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if order.Status != valueobject.OrderStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeInvalidStatus, "отзыв можно оставить только после завершения заказа")
	}

	target := &reviewTarget{order: order}
	switch reviewerID {
	case order.BuyerID:
		target.reviewedID = order.SellerID
		target.reviewType = models.ReviewTypeBuyerToSeller
	case order.SellerID:
		target.reviewedID = order.BuyerID
		target.reviewType = models.ReviewTypeSellerToBuyer
	default:
		return nil, apperror.ErrNotParticipant
	}

	existing, err := s.repo.GetByOrderAndReviewer(ctx, orderID, reviewerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if existing != nil {
		return nil, apperror.ErrDuplicateReview
	}

	return target, nil
}

// CreateReview создаёт отзыв после завершения заказа.
func (s *ReviewService) CreateReview(ctx context.Context, orderID, reviewerID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, validationError("рейтинг должен быть от 1 до 5")
	}
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if err := validation.ValidateLength("комментарий", trimmed, 0, maxReviewCommentLength); err != nil {
			return nil, validationError(err.Error())
		}
		if trimmed == "" {
			comment = nil
		} else {
			comment = &trimmed
		}
	}

	target, err := s.eligibility(ctx, orderID, reviewerID)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		OrderID:    orderID,
		ReviewerID: reviewerID,
		ReviewedID: target.reviewedID,
		Rating:     rating,
		Comment:    comment,
		ReviewType: target.reviewType,
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"order_id":     orderID,
		"order_number": target.order.OrderNumber,
		"reviewer_id":  reviewerID,
		"reviewed_id":  target.reviewedID,
		"rating":       rating,
	})
	notification := &models.AdminNotification{Type: models.AdminNotificationNewReview, Payload: payload}

	// уникальный индекс (order_id, reviewer_id) решает гонку параллельных отправок
	if err := s.repo.CreateWithNotification(ctx, review, notification); err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "reviewer_id": reviewerID, "rating": rating}).Info("отзыв создан")
	if s.cache != nil {
		s.cache.Delete(ReviewDistributionCacheKey(target.reviewedID))
	}
	s.effects.push(ctx, target.reviewedID, "Новый отзыв", "Вам поставили оценку по заказу "+target.order.OrderNumber, map[string]string{
		"type":     "review",
		"order_id": orderID.String(),
	})
	s.effects.recomputeReputation(ctx, target.reviewedID)

	return review, nil
}

// CanReviewOrder отвечает, может ли пользователь оставить отзыв, и почему нет.
func (s *ReviewService) CanReviewOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.ReviewEligibility, error) {
	_, err := s.eligibility(ctx, orderID, userID)
	if err == nil {
		return &models.ReviewEligibility{CanReview: true}, nil
	}

	appErr, ok := apperror.As(err)
	if !ok || appErr.Code == apperror.ErrCodeInternal {
		return nil, err
	}
	return &models.ReviewEligibility{CanReview: false, Reason: appErr.Message}, nil
}

// ListUserReviews возвращает отзывы о пользователе.
func (s *ReviewService) ListUserReviews(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	limit, offset = normalizePage(limit, offset)
	reviews, err := s.repo.ListByReviewedID(ctx, userID, limit, offset)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return reviews, nil
}

// ListOrderReviews возвращает отзывы по заказу.
func (s *ReviewService) ListOrderReviews(ctx context.Context, orderID uuid.UUID) ([]models.Review, error) {
	reviews, err := s.repo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return reviews, nil
}

// GetUserRating возвращает средний рейтинг и количество отзывов.
func (s *ReviewService) GetUserRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	avg, count, err := s.repo.GetAverageRating(ctx, userID)
	if err != nil {
		return 0, 0, mapRepoError(err)
	}
	return avg, count, nil
}

// GetReviewDistribution распределение оценок пользователя по корзинам 5..1.
func (s *ReviewService) GetReviewDistribution(ctx context.Context, userID uuid.UUID) (*models.ReviewDistribution, error) {
	load := func() (interface{}, error) {
		counts, err := s.repo.CountByRating(ctx, userID)
		if err != nil {
			return nil, mapRepoError(err)
		}
		dist := ComputeDistribution(counts)
		return &dist, nil
	}

	if s.cache == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(*models.ReviewDistribution), nil
	}

	v, err := s.cache.GetOrSet(ctx, ReviewDistributionCacheKey(userID), distributionCacheTTL, load)
	if err != nil {
		return nil, err
	}
	return v.(*models.ReviewDistribution), nil
}

// ComputeDistribution раскладывает агрегат по оценкам в пять корзин.
// Проценты округляются до одного знака; при отсутствии отзывов все корзины нулевые.
func ComputeDistribution(counts []models.RatingCount) models.ReviewDistribution {
	byRating := make(map[int]int, 5)
	total := 0
	for _, c := range counts {
		if c.Rating < 1 || c.Rating > 5 {
			continue
		}
		byRating[c.Rating] += c.Count
		total += c.Count
	}

	dist := models.ReviewDistribution{Total: total, Buckets: make([]models.RatingBucket, 0, 5)}
	for rating := 5; rating >= 1; rating-- {
		bucket := models.RatingBucket{Rating: rating, Count: byRating[rating]}
		if total > 0 {
			bucket.Percentage = math.Round(float64(bucket.Count)*1000/float64(total)) / 10
		}
		dist.Buckets = append(dist.Buckets, bucket)
	}
	return dist
}
