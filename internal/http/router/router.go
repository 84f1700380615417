package router

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/pokemarket-backend/internal/config"
	"github.com/ignatzorin/pokemarket-backend/internal/http/handlers"
	"github.com/ignatzorin/pokemarket-backend/internal/http/middleware"
)

// authRateLimit попыток входа и регистрации с одного IP за период.
const authRateLimit = 5

// Handlers набор хэндлеров API. Seed может быть nil.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Listings      *handlers.ListingHandler
	Orders        *handlers.OrderHandler
	Reviews       *handlers.ReviewHandler
	Conversations *handlers.ConversationHandler
	Push          *handlers.PushHandler
	Payouts       *handlers.PayoutHandler
	Complaints    *handlers.ComplaintHandler
	Reports       *handlers.ReportHandler
	Notifications *handlers.NotificationHandler
	Health        *handlers.HealthHandler
	WS            *handlers.WSHandler
	Seed          *handlers.SeedHandler
}

func SetupRouter(cfg *config.Config, h Handlers, tokens middleware.TokenParser) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(gin.Recovery())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)

	// Вложения чата при локальном хранилище отдаются самим сервером.
	if (cfg.Storage.Backend == "" || cfg.Storage.Backend == "local") && strings.HasPrefix(cfg.Storage.PublicURL, "/") {
		r.Static(cfg.Storage.PublicURL, cfg.Storage.LocalPath)
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(authRateLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	// Публичные маршруты
	api.GET("/ws", h.WS.Handle)
	api.GET("/listings", h.Listings.List)
	api.GET("/listings/:id", middleware.UUIDValidator("id"), h.Listings.Get)
	api.GET("/users/:id", middleware.UUIDValidator("id"), h.Auth.PublicProfile)
	api.GET("/users/:id/reviews", middleware.UUIDValidator("id"), h.Reviews.ListUserReviews)
	api.GET("/users/:id/reviews/distribution", middleware.UUIDValidator("id"), h.Reviews.Distribution)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		protected.GET("/me", h.Auth.Me)

		protected.POST("/listings", h.Listings.Create)
		protected.PUT("/listings/:id", middleware.UUIDValidator("id"), h.Listings.Update)
		protected.PUT("/listings/:id/active", middleware.UUIDValidator("id"), h.Listings.SetActive)

		protected.POST("/orders/checkout", h.Orders.Checkout)
		protected.GET("/orders/my", h.Orders.ListMyPurchases)
		protected.GET("/orders/sales", h.Orders.ListMySales)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), h.Orders.GetOrder)
		protected.POST("/orders/:id/deliver", middleware.UUIDValidator("id"), h.Orders.SubmitDelivery)
		protected.POST("/orders/:id/reviews", middleware.UUIDValidator("id"), h.Reviews.CreateReview)
		protected.GET("/orders/:id/reviews", middleware.UUIDValidator("id"), h.Reviews.ListOrderReviews)
		protected.GET("/orders/:id/can-review", middleware.UUIDValidator("id"), h.Reviews.CanLeaveReview)

		protected.GET("/conversations", h.Conversations.ListMyConversations)
		protected.POST("/conversations", h.Conversations.StartConversation)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversations.ListMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversations.SendMessage)
		protected.POST("/conversations/:id/read", middleware.UUIDValidator("id"), h.Conversations.MarkRead)
		protected.POST("/chat/upload",
			middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod),
			h.Conversations.UploadAttachment)

		protected.POST("/devices", h.Push.RegisterDevice)
		protected.DELETE("/devices/:token", h.Push.UnregisterDevice)

		protected.GET("/payouts/my", h.Payouts.MyPayouts)
		protected.POST("/complaints", h.Complaints.Create)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireAdmin())
	{
		admin.GET("/orders", h.Orders.ListOrders)
		admin.POST("/orders/:id/request-review", middleware.UUIDValidator("id"), h.Orders.RequestReview)
		admin.POST("/orders/:id/complete", middleware.UUIDValidator("id"), h.Orders.CompleteOrder)
		admin.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), h.Orders.CancelOrder)
		admin.PUT("/orders/:id/status", middleware.UUIDValidator("id"), h.Orders.SetStatus)
		admin.POST("/orders/:id/payout", middleware.UUIDValidator("id"), h.Orders.MarkPayout)
		admin.DELETE("/orders/:id", middleware.UUIDValidator("id"), h.Orders.DeleteOrder)

		admin.GET("/payouts", h.Payouts.List)
		admin.POST("/payouts/:id/complete", middleware.UUIDValidator("id"), h.Payouts.Complete)

		admin.GET("/conversations", h.Conversations.ListAll)
		admin.POST("/conversations/:id/close", middleware.UUIDValidator("id"), h.Conversations.Close)
		admin.POST("/conversations/:id/reopen", middleware.UUIDValidator("id"), h.Conversations.Reopen)
		admin.POST("/conversations/:id/archive", middleware.UUIDValidator("id"), h.Conversations.Archive)

		admin.POST("/push/campaigns", h.Push.CreateCampaign)
		admin.GET("/push/campaigns", h.Push.ListCampaigns)
		admin.POST("/push/users/:id", middleware.UUIDValidator("id"), h.Push.SendToUser)

		admin.GET("/complaints", h.Complaints.List)
		admin.PUT("/complaints/:id", middleware.UUIDValidator("id"), h.Complaints.Resolve)

		admin.GET("/users", h.Auth.ListUsers)
		admin.PUT("/users/:id/active", middleware.UUIDValidator("id"), h.Auth.SetUserActive)

		admin.GET("/reports/summary", h.Reports.Summary)

		admin.GET("/notifications", h.Notifications.ListNotifications)
		admin.PUT("/notifications/:id/read", middleware.UUIDValidator("id"), h.Notifications.MarkAsRead)

		if h.Seed != nil && cfg.Env != "production" {
			admin.POST("/seed", h.Seed.Seed)
		}
	}

	return r
}
