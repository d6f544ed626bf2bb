package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"airbrb/internal/infra/config"
	"airbrb/internal/infra/obs"
)

type AuthHTTP interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	Logout(c *gin.Context)
	Me(c *gin.Context)
}

type ListingHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Publish(c *gin.Context)
	Unpublish(c *gin.Context)
}

type BookingHTTP interface {
	Quote(c *gin.Context)
	Create(c *gin.Context)
	Mine(c *gin.Context)
	Accept(c *gin.Context)
	Decline(c *gin.Context)
}

type HostHTTP interface {
	Bookings(c *gin.Context)
	Stats(c *gin.Context)
}

type ReviewHTTP interface {
	List(c *gin.Context)
	Submit(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	Listing        ListingHTTP
	Booking        BookingHTTP
	Host           HostHTTP
	Review         ReviewHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter mounts every route on a fresh engine.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			obs.RequestIDHeader,
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.List)
		api.POST("/listings", h.Listing.Create)
		api.GET("/listings/:id", h.Listing.Get)
		api.PUT("/listings/:id", h.Listing.Update)
		api.DELETE("/listings/:id", h.Listing.Delete)
		api.PUT("/listings/:id/publish", h.Listing.Publish)
		api.PUT("/listings/:id/unpublish", h.Listing.Unpublish)
	}
	if h.Booking != nil {
		api.POST("/listings/:id/quote", h.Booking.Quote)
		api.POST("/listings/:id/bookings", h.Booking.Create)
		api.GET("/bookings", h.Booking.Mine)
		api.PUT("/bookings/:id/accept", h.Booking.Accept)
		api.PUT("/bookings/:id/decline", h.Booking.Decline)
	}
	if h.Host != nil {
		hostGroup := api.Group("/host")
		hostGroup.GET("/bookings", h.Host.Bookings)
		hostGroup.GET("/stats", h.Host.Stats)
	}
	if h.Review != nil {
		api.GET("/listings/:id/reviews", h.Review.List)
		api.PUT("/listings/:id/reviews/:bookingId", h.Review.Submit)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
