package service

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/pokemarket-backend/internal/logger"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

// Пороги уровней продавца по числу завершённых продаж.
const (
	silverSales   = 10
	goldSales     = 50
	platinumSales = 150
	diamondSales  = 500

	verifiedMinSales   = 20
	verifiedMinRating  = 4.5
	verifiedMinReviews = 10

	maxReputationScore = 1000
)

type ReputationRepository interface {
	GetReputationStats(ctx context.Context, id uuid.UUID) (*models.ReputationStats, error)
	UpdateReputation(ctx context.Context, id uuid.UUID, rep models.Reputation) error
}

type ReputationService struct {
	users ReputationRepository
	log   *logrus.Entry
}

func NewReputationService(users ReputationRepository) *ReputationService {
	return &ReputationService{users: users, log: logger.WithComponent("reputation_service")}
}

// Recompute пересчитывает производные поля пользователя по отзывам и сделкам.
func (s *ReputationService) Recompute(ctx context.Context, userID uuid.UUID) (*models.Reputation, error) {
	stats, err := s.users.GetReputationStats(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	rep := ComputeReputation(*stats)
	if err := s.users.UpdateReputation(ctx, userID, rep); err != nil {
		return nil, mapRepoError(err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":      userID,
		"score":        rep.ReputationScore,
		"seller_level": rep.SellerLevel,
	}).Debug("репутация пересчитана")
	return &rep, nil
}

// ComputeReputation чистая функция расчёта репутации.
func ComputeReputation(stats models.ReputationStats) models.Reputation {
	avg := math.Round(stats.AverageRating*100) / 100

	confidence := 0.0
	if stats.TotalReviews > 0 {
		confidence = float64(stats.TotalReviews) / float64(stats.TotalReviews+5)
	}
	score := int(math.Round(avg/5*600*confidence)) + minInt(stats.CompletedSales, 400)
	if score > maxReputationScore {
		score = maxReputationScore
	}
	if score < 0 {
		score = 0
	}

	return models.Reputation{
		ReputationScore: score,
		TotalSales:      stats.CompletedSales,
		TotalPurchases:  stats.CompletedBuys,
		AverageRating:   avg,
		TotalReviews:    stats.TotalReviews,
		SellerLevel:     SellerLevel(stats.CompletedSales),
		VerifiedSeller: stats.CompletedSales >= verifiedMinSales &&
			stats.TotalReviews >= verifiedMinReviews &&
			avg >= verifiedMinRating,
	}
}

// SellerLevel уровень продавца по количеству завершённых продаж.
func SellerLevel(sales int) string {
	switch {
	case sales >= diamondSales:
		return models.SellerLevelDiamond
	case sales >= platinumSales:
		return models.SellerLevelPlatinum
	case sales >= goldSales:
		return models.SellerLevelGold
	case sales >= silverSales:
		return models.SellerLevelSilver
	default:
		return models.SellerLevelBronze
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
