package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/pokemarket-backend/internal/models"
)

const seedPassword = "Password123"

type SeedUserRepository interface {
	Create(ctx context.Context, user *models.User) error
}

type SeedListingRepository interface {
	Create(ctx context.Context, l *models.Listing) error
}

// SeedResult итог генерации тестовых данных.
type SeedResult struct {
	Users    int    `json:"users"`
	Listings int    `json:"listings"`
	Password string `json:"password"`
}

// SeedService генерирует фейковые данные для разработки.
type SeedService struct {
	users    SeedUserRepository
	listings SeedListingRepository
	rnd      *rand.Rand
}

// NewSeedService создаёт новый сервис для генерации данных.
func NewSeedService(users SeedUserRepository, listings SeedListingRepository) *SeedService {
	return &SeedService{
		users:    users,
		listings: listings,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var (
	seedTrainers = []string{"ash", "misty", "brock", "dawn", "serena", "gary", "leaf", "red", "blue", "iris", "cynthia", "lance"}
	seedPokemon  = []string{
		"Pikachu", "Charizard", "Mewtwo", "Gengar", "Dragonite", "Snorlax", "Lucario", "Eevee",
		"Gyarados", "Tyranitar", "Metagross", "Garchomp", "Rayquaza", "Mew", "Ditto", "Lapras",
	}
	seedCategories = []string{
		models.ListingCategoryPokemon, models.ListingCategoryPokemon, models.ListingCategoryPokemon,
		models.ListingCategoryRaid, models.ListingCategoryItem, models.ListingCategoryService,
	}
)

// SeedData создаёт пользователей и распределяет между ними объявления.
func (s *SeedService) SeedData(ctx context.Context, numUsers, numListings int) (*SeedResult, error) {
	if numUsers <= 0 || numUsers > 200 {
		return nil, validationError("количество пользователей должно быть от 1 до 200")
	}
	if numListings < 0 || numListings > 2000 {
		return nil, validationError("количество объявлений должно быть от 0 до 2000")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("seed service: hash password %w", err)
	}

	users := make([]*models.User, 0, numUsers)
	for i := 0; i < numUsers; i++ {
		name := fmt.Sprintf("%s_%d", seedTrainers[s.rnd.Intn(len(seedTrainers))], s.rnd.Intn(100000))
		user := &models.User{
			Email:        name + "@pokemarket.test",
			Username:     name,
			PasswordHash: string(hash),
			Role:         models.RoleUser,
			IsActive:     true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("seed service: create user %w", err)
		}
		users = append(users, user)
	}

	for i := 0; i < numListings; i++ {
		listing := s.randomListing(users[s.rnd.Intn(len(users))])
		if err := s.listings.Create(ctx, listing); err != nil {
			return nil, fmt.Errorf("seed service: create listing %w", err)
		}
	}

	return &SeedResult{Users: len(users), Listings: numListings, Password: seedPassword}, nil
}

func (s *SeedService) randomListing(owner *models.User) *models.Listing {
	name := seedPokemon[s.rnd.Intn(len(seedPokemon))]
	category := seedCategories[s.rnd.Intn(len(seedCategories))]
	shiny := s.rnd.Intn(4) == 0

	title := name
	if shiny {
		title = "Shiny " + name
	}
	if category == models.ListingCategoryRaid {
		title = "Рейд: " + name
	}

	data, _ := json.Marshal(map[string]interface{}{
		"name": name,
		"cp":   500 + s.rnd.Intn(3500),
		"iv":   s.rnd.Intn(101),
	})

	return &models.Listing{
		OwnerID:        owner.ID,
		Title:          title,
		Category:       category,
		PriceSuggested: decimal.New(int64(500+s.rnd.Intn(20000)), -2),
		IsShiny:        shiny,
		IsDynamax:      s.rnd.Intn(10) == 0,
		AcceptsOffers:  s.rnd.Intn(2) == 0,
		PokemonData:    data,
	}
}
