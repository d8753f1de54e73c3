package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"rise_local_back_end/internal/auth"
	"rise_local_back_end/internal/billing"
	"rise_local_back_end/internal/cache"
	"rise_local_back_end/internal/cart"
	"rise_local_back_end/internal/config"
	"rise_local_back_end/internal/database"
	"rise_local_back_end/internal/handlers/account"
	"rise_local_back_end/internal/handlers/admin"
	"rise_local_back_end/internal/handlers/catalog"
	"rise_local_back_end/internal/handlers/checkout"
	"rise_local_back_end/internal/handlers/deal"
	"rise_local_back_end/internal/handlers/message"
	"rise_local_back_end/internal/handlers/pass"
	"rise_local_back_end/internal/handlers/vendor"
	"rise_local_back_end/internal/messaging"
	"rise_local_back_end/internal/middleware"
	"rise_local_back_end/internal/redemption"
	"rise_local_back_end/internal/services"
	"rise_local_back_end/internal/utils"
)

// RegisterRoutes builds every service from the connected clients and
// mounts the API on r.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, clients *database.Clients) {
	db, rdb := clients.SQL, clients.Redis

	taxRate, err := decimal.NewFromString(cfg.SalesTaxRate)
	if err != nil {
		log.Warn().Str("rate", cfg.SalesTaxRate).Msg("⚠️ Invalid SALES_TAX_RATE, using 0")
		taxRate = decimal.Zero
	}

	audit := utils.NewAuditLogger(clients.Scylla)
	search := services.NewSearch(clients.Elastic, db)
	images := services.NewImageStore(clients.MinIO, cfg.MinIO.Bucket)
	notifier := services.NewEmailNotifier(db, utils.NewMailer(cfg.SMTP), cfg.FrontendURL)

	redemptionOpts := redemption.Options{
		CodeTTL:    cfg.Redemption.CodeTTL,
		UndoWindow: cfg.Redemption.UndoWindow,
		Location:   cfg.Location(),
		Notifier:   notifier,
		Auditor:    audit,
	}
	billingOpts := billing.Options{
		FrontendURL: cfg.FrontendURL,
		Currency:    cfg.Stripe.Currency,
		TaxRate:     taxRate,
		Notifier:    notifier,
	}
	var adminInvalidator admin.Invalidator
	if rdb != nil {
		eligibility := cache.NewEligibilityCache(rdb, cfg.Redemption.CacheTTL)
		redemptionOpts.Cache = eligibility
		billingOpts.Invalidator = eligibility
		adminInvalidator = eligibility
	}
	redemptions := redemption.NewService(redemption.NewStore(db), redemptionOpts)

	var carts cart.Repository = cart.NewMemoryRepository()
	if rdb != nil {
		carts = cart.NewRedisRepository(rdb)
	}
	billingOpts.Carts = carts

	var provider billing.Provider
	if cfg.Stripe.SecretKey != "" {
		provider = billing.NewStripeProvider(cfg.Stripe.PassPriceID, cfg.Stripe.Currency, cfg.Stripe.WebhookSecret)
	} else {
		log.Warn().Msg("⚠️ Stripe not configured, checkout and Pass billing disabled")
	}
	billingSvc := billing.NewService(db, provider, billingOpts)

	var chat *messaging.Service
	switch {
	case clients.Scylla != nil && rdb != nil:
		chat = messaging.NewService(messaging.NewScyllaStore(clients.Scylla), messaging.NewRedisPublisher(rdb))
	case clients.Scylla != nil:
		chat = messaging.NewService(messaging.NewScyllaStore(clients.Scylla), nil)
	default:
		chat = messaging.NewService(nil, nil)
	}

	accountH := account.NewHandler(db, rdb, cfg.Auth, cfg.FrontendURL, auth.NewProviders(cfg.OAuth, cfg.BackendURL), notifier)
	catalogH := catalog.NewHandler(db, search)
	dealH := deal.NewHandler(redemptions)
	vendorH := vendor.NewHandler(db, redemptions, search, images)
	cartH := checkout.NewHandler(db, carts, billingSvc, taxRate)
	passH := pass.NewHandler(db, billingSvc)
	messageH := message.NewHandler(db, chat)
	adminH := admin.NewHandler(db, search, audit, adminInvalidator)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Stripe signs the raw body; keep it outside auth and rate limits.
	r.POST("/api/stripe/webhook", passH.Webhook)

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit(rdb))

	authRequired := middleware.AuthRequired(cfg.Auth.JWTSecret, rdb)
	optionalAuth := middleware.OptionalAuth(cfg.Auth.JWTSecret)

	// --- Auth ---
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.RegisterRateLimit(rdb), accountH.Register)
		authGroup.POST("/login", middleware.LoginRateLimit(rdb), accountH.Login)
		authGroup.POST("/logout", authRequired, accountH.Logout)
		authGroup.GET("/:provider", accountH.BeginAuth)
		authGroup.GET("/:provider/callback", accountH.Callback)
		authGroup.POST("/:provider/token", middleware.LoginRateLimit(rdb), accountH.ExchangeCode)
	}

	// --- Public catalog ---
	pub := api.Group("", optionalAuth)
	{
		pub.GET("/vendors", catalogH.Vendors)
		pub.GET("/vendors/:id", catalogH.Vendor)
		pub.GET("/restaurants", catalogH.Restaurants)
		pub.GET("/products", catalogH.Products)
		pub.GET("/products/:id", catalogH.Product)
		pub.GET("/events", catalogH.Events)
		pub.GET("/deals", catalogH.Deals)
		pub.GET("/deals/:id", catalogH.Deal)
		pub.GET("/search", middleware.SearchRateLimit(rdb), catalogH.Search)
	}

	protected := api.Group("", authRequired)

	// --- Redemption ---
	{
		protected.GET("/deals/:id/can-redeem", dealH.CanRedeem)
		protected.POST("/deals/:id/coupon-code", dealH.IssueCode)
		protected.POST("/deals/:id/redeem", dealH.Redeem)
		protected.GET("/me/redemptions", dealH.History)
		protected.DELETE("/me/redemptions/:id", dealH.Undo)
	}

	// --- Account, Pass, orders ---
	{
		protected.GET("/me", accountH.Me)
		protected.GET("/me/pass", passH.Status)
		protected.GET("/me/orders", cartH.Orders)
		protected.POST("/pass/checkout", passH.Checkout)
		protected.POST("/pass/portal", passH.Portal)
	}

	// --- Cart ---
	cartGroup := protected.Group("/cart", middleware.CartRateLimit(rdb))
	{
		cartGroup.GET("", cartH.Get)
		cartGroup.POST("/items", cartH.AddItem)
		cartGroup.PATCH("/items/:productId", cartH.UpdateItem)
		cartGroup.DELETE("/items/:productId", cartH.RemoveItem)
		cartGroup.DELETE("", cartH.Clear)
	}
	protected.POST("/checkout", cartH.Checkout)

	// --- Messaging ---
	{
		protected.GET("/conversations", messageH.Conversations)
		protected.POST("/conversations", messageH.Start)
		protected.GET("/conversations/:id/messages", messageH.Messages)
		protected.POST("/conversations/:id/messages", messageH.Send)
	}

	// --- WebSockets ---
	ws := protected.Group("/ws")
	{
		ws.GET("/cart", cartH.Stream(rdb))
		ws.GET("/messages", messageH.Stream(rdb))
	}

	// --- Vendor dashboard ---
	vendorGroup := protected.Group("/vendor", middleware.RequireVendor())
	{
		vendorGroup.GET("/profile", vendorH.Profile)
		vendorGroup.PUT("/profile", middleware.Audit(audit, "vendor.update", "vendor"), vendorH.UpdateProfile)
		vendorGroup.GET("/redemptions", vendorH.Redemptions)
		vendorGroup.POST("/images", vendorH.UploadImage)

		vendorGroup.GET("/deals", vendorH.ListDeals)
		vendorGroup.POST("/deals", middleware.Audit(audit, "deal.create", "deal"), vendorH.CreateDeal)
		vendorGroup.GET("/deals/:id", vendorH.GetDeal)
		vendorGroup.PUT("/deals/:id", middleware.Audit(audit, "deal.update", "deal"), vendorH.UpdateDeal)
		vendorGroup.PATCH("/deals/:id/status", middleware.Audit(audit, "deal.status", "deal"), vendorH.SetStatus)
		vendorGroup.DELETE("/deals/:id", middleware.Audit(audit, "deal.delete", "deal"), vendorH.DeleteDeal)
		vendorGroup.POST("/deals/:id/codes", middleware.Audit(audit, "deal.codes", "deal"), vendorH.AddCodes)
		vendorGroup.GET("/deals/:id/codes/stats", vendorH.CodeStats)
		vendorGroup.POST("/deals/:id/redeem",
			middleware.VerifyRateLimit(rdb, cfg.Redemption.VerifyAttempts, cfg.Redemption.VerifyWindow),
			vendorH.Verify)

		vendorGroup.GET("/products", vendorH.ListProducts)
		vendorGroup.POST("/products", vendorH.CreateProduct)
		vendorGroup.PUT("/products/:id", vendorH.UpdateProduct)
		vendorGroup.DELETE("/products/:id", vendorH.DeleteProduct)

		vendorGroup.GET("/events", vendorH.ListEvents)
		vendorGroup.POST("/events", vendorH.CreateEvent)
		vendorGroup.DELETE("/events/:id", vendorH.DeleteEvent)
	}

	// --- Admin ---
	adminGroup := protected.Group("/admin", middleware.RequireAdmin())
	{
		adminGroup.GET("/vendors", adminH.Vendors)
		adminGroup.PATCH("/vendors/:id", adminH.SetVendorActive)
		adminGroup.PATCH("/users/:id/role", adminH.SetRole)
		adminGroup.PATCH("/users/:id/pass", adminH.SetPass)
		adminGroup.GET("/audit/:resource/:resourceId", adminH.AuditLogs)
	}
}
