package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

const (
	defaultSeedUsers    = 20
	defaultSeedListings = 100
	maxSeedUsers        = 200
	maxSeedListings     = 2000
)

// SeedHandler обрабатывает запросы для генерации фейковых данных.
type SeedHandler struct {
	seedService *service.SeedService
}

// NewSeedHandler создаёт новый seed handler.
func NewSeedHandler(seedService *service.SeedService) *SeedHandler {
	return &SeedHandler{seedService: seedService}
}

// Seed генерирует фейковые данные.
// POST /api/admin/seed
func (h *SeedHandler) Seed(c *gin.Context) {
	req := dto.SeedRequest{
		NumUsers:    common.ParseIntQuery(c, "num_users", defaultSeedUsers),
		NumListings: common.ParseIntQuery(c, "num_listings", defaultSeedListings),
	}
	if c.Request.ContentLength > 0 {
		if err := common.BindJSON(c, &req); err != nil {
			common.Fail(c, err)
			return
		}
	}

	if req.NumUsers < 1 {
		req.NumUsers = defaultSeedUsers
	}
	if req.NumUsers > maxSeedUsers {
		req.NumUsers = maxSeedUsers
	}
	if req.NumListings < 0 {
		req.NumListings = 0
	}
	if req.NumListings > maxSeedListings {
		req.NumListings = maxSeedListings
	}

	result, err := h.seedService.SeedData(c.Request.Context(), req.NumUsers, req.NumListings)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
