package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"student-form-backend/internal/mw"
	"student-form-backend/internal/store"
)

// RouterConfig holds the dependencies and limits of the HTTP API.
type RouterConfig struct {
	Forms          FormService
	Subscriptions  store.SubscriptionStore
	WebPush        *webpush.Options
	Logger         zerolog.Logger
	AllowedOrigins []string
	// SubmitRate and SubmitBurst limit form submissions per client IP.
	SubmitRate  rate.Limit
	SubmitBurst int
	// CacheTTL is how long GET responses are cached. Zero disables the cache.
	CacheTTL time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(mw.RequestLogger(cfg.Logger), gin.Recovery())
	r.Use(mw.CORS(cfg.AllowedOrigins, "Content-Disposition", FormIDHeader))

	handler := NewHandler(cfg.Forms, cfg.Subscriptions, cfg.WebPush, cfg.Logger)

	submitLimiter := mw.RateLimiter(cfg.SubmitRate, cfg.SubmitBurst)

	caching := func(c *gin.Context) { c.Next() }
	api := r.Group("/api")
	if cfg.CacheTTL > 0 {
		responses := mw.NewResponseCache(cfg.CacheTTL)
		caching = mw.Cache(responses)
		api.Use(mw.Invalidate(responses))
	}
	{
		api.GET("/health", handler.Health)

		forms := api.Group("/forms")
		forms.GET("", caching, handler.ListForms)
		forms.GET("/:id", caching, handler.GetForm)
		forms.GET("/:id/pdf", caching, handler.GetFormPDF)
		forms.POST("", submitLimiter, handler.SubmitForm)
		forms.PUT("/:id", handler.UpdateForm)
		forms.DELETE("/:id", handler.DeleteForm)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
