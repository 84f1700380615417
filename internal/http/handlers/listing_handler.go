package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/models"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

// ListingHandler каталог объявлений.
type ListingHandler struct {
	listings *service.ListingService
}

func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{listings: listings}
}

// List GET /listings?category=&search=&owner_id=&is_shiny=
func (h *ListingHandler) List(c *gin.Context) {
	ownerID, err := common.ParseUUIDQuery(c, "owner_id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	limit, offset := common.GetPagination(c)
	filter := models.ListingFilter{
		Category:     c.Query("category"),
		OwnerID:      ownerID,
		Search:       c.Query("search"),
		IsShiny:      common.ParseBoolQuery(c, "is_shiny"),
		IsDynamax:    common.ParseBoolQuery(c, "is_dynamax"),
		IsGigantamax: common.ParseBoolQuery(c, "is_gigantamax"),
		OnlyActive:   ownerID == nil || c.Query("include_inactive") != "true",
		Limit:        limit,
		Offset:       offset,
	}

	listings, err := h.listings.ListListings(c.Request.Context(), filter)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(listings, limit, offset))
}

// Get GET /listings/:id
func (h *ListingHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	listing, err := h.listings.GetListing(c.Request.Context(), id)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Create POST /listings
func (h *ListingHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.ListingRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	listing, err := h.listings.CreateListing(c.Request.Context(), userID, listingInput(req))
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, listing)
}

// Update PUT /listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.ListingRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	listing, err := h.listings.UpdateListing(c.Request.Context(), id, userID, common.IsAdmin(c), listingInput(req))
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

// SetActive PUT /listings/:id/active
func (h *ListingHandler) SetActive(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.SetActiveRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	listing, err := h.listings.SetActive(c.Request.Context(), id, userID, common.IsAdmin(c), *req.Active)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, listing)
}

func listingInput(req dto.ListingRequest) service.ListingInput {
	return service.ListingInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		PriceSuggested: req.PriceSuggested,
		IsShiny:        req.IsShiny,
		HasCostume:     req.HasCostume,
		HasBackground:  req.HasBackground,
		IsPurified:     req.IsPurified,
		IsDynamax:      req.IsDynamax,
		IsGigantamax:   req.IsGigantamax,
		AcceptsOffers:  req.AcceptsOffers,
		PhotoURL:       req.PhotoURL,
		PokemonData:    req.PokemonData,
	}
}
