package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestReviewHandler_CreateReview_Unauthorized(t *testing.T) {
	r := newTestRouter(uuid.Nil, "")
	handler := &ReviewHandler{reviews: nil}
	r.POST("/orders/:id/reviews", handler.CreateReview)

	orderID := uuid.New()
	req, _ := http.NewRequest("POST", "/orders/"+orderID.String()+"/reviews", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReviewHandler_CreateReview_RatingOutOfRange(t *testing.T) {
	r := newTestRouter(uuid.New(), "user")
	handler := &ReviewHandler{reviews: nil}
	r.POST("/orders/:id/reviews", handler.CreateReview)

	req, _ := http.NewRequest("POST", "/orders/"+uuid.NewString()+"/reviews", strings.NewReader(`{"rating":6}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeError(t, w).Code)
}

func TestReviewHandler_ListOrderReviews_InvalidOrderID(t *testing.T) {
	r := newTestRouter(uuid.Nil, "")
	handler := &ReviewHandler{reviews: nil}
	r.GET("/orders/:id/reviews", handler.ListOrderReviews)

	req, _ := http.NewRequest("GET", "/orders/invalid-uuid/reviews", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_ListUserReviews_InvalidUserID(t *testing.T) {
	r := newTestRouter(uuid.Nil, "")
	handler := &ReviewHandler{reviews: nil}
	r.GET("/users/:id/reviews", handler.ListUserReviews)

	req, _ := http.NewRequest("GET", "/users/invalid-uuid/reviews", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_CanLeaveReview_Unauthorized(t *testing.T) {
	r := newTestRouter(uuid.Nil, "")
	handler := &ReviewHandler{reviews: nil}
	r.GET("/orders/:id/can-review", handler.CanLeaveReview)

	orderID := uuid.New()
	req, _ := http.NewRequest("GET", "/orders/"+orderID.String()+"/can-review", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReviewHandler_CanLeaveReview_InvalidOrderID_WithAuth(t *testing.T) {
	r := newTestRouter(uuid.New(), "user")
	handler := &ReviewHandler{reviews: nil}
	r.GET("/orders/:id/can-review", handler.CanLeaveReview)

	// С авторизацией, но невалидный UUID
	req, _ := http.NewRequest("GET", "/orders/invalid-uuid/can-review", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_Distribution_InvalidUserID(t *testing.T) {
	r := newTestRouter(uuid.Nil, "")
	handler := &ReviewHandler{reviews: nil}
	r.GET("/users/:id/reviews/distribution", handler.Distribution)

	req, _ := http.NewRequest("GET", "/users/42/reviews/distribution", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, gin.MIMEJSON+"; charset=utf-8", w.Header().Get("Content-Type"))
}
