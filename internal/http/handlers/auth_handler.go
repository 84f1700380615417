package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/dto"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/pokemarket-backend/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me GET /me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}

	user, err := h.auth.GetProfile(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// PublicProfile GET /users/:id
func (h *AuthHandler) PublicProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	profile, err := h.auth.GetPublicProfile(c.Request.Context(), userID)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ListUsers GET /admin/users?search=
func (h *AuthHandler) ListUsers(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	users, err := h.auth.ListUsers(c.Request.Context(), c.Query("search"), limit, offset)
	if err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewListResponse(users, limit, offset))
}

// SetUserActive PUT /admin/users/:id/active
func (h *AuthHandler) SetUserActive(c *gin.Context) {
	adminID, err := common.CurrentUserID(c)
	if err != nil {
		common.Fail(c, err)
		return
	}
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.Fail(c, err)
		return
	}

	var req dto.SetActiveRequest
	if err := common.BindJSON(c, &req); err != nil {
		common.Fail(c, err)
		return
	}

	if err := h.auth.SetUserActive(c.Request.Context(), adminID, userID, *req.Active); err != nil {
		common.Fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": userID, "is_active": *req.Active})
}
