package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/regportal/internal/http/handlers"
	"github.com/geocoder89/regportal/internal/http/middlewares"
	"github.com/geocoder89/regportal/internal/observability"
	"github.com/geocoder89/regportal/internal/payment"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	maxBodyBytes      = 1 << 20
	shareLimitPerHour = 10
)

// Deps are the collaborators the router mounts. Metrics may be nil.
type Deps struct {
	Env            string
	Log            *slog.Logger
	Prom           *observability.Prom
	Metrics        http.Handler
	AllowedOrigins []string
	PublicBaseURL  string

	Verifier  middlewares.TokenVerifier
	Events    handlers.EventReader
	Accounts  handlers.AccountRelay
	Resolver  handlers.EntryResolver
	Drafts    handlers.DraftEditor
	Confirmer handlers.RegistrationConfirmer
	Payments  handlers.PaymentFlow
	Regs      handlers.RegistrationFetcher
	Badges    handlers.BadgeService
	Checks    []handlers.Check
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("regportal-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type", "If-None-Match", "X-Request-Id"},
		ExposeHeaders:    []string{"ETag", "Content-Disposition", "Location", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	health := handlers.NewHealthHandler(d.Checks...)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	authMW := middlewares.NewAuthMiddleware(d.Verifier)
	loginLimiter := middlewares.NewRateLimiter(10, time.Minute)
	paymentLimiter := middlewares.NewRateLimiter(20, time.Minute)
	shareLimiter := middlewares.NewRateLimiter(shareLimitPerHour, time.Hour)

	events := handlers.NewEventsHandler(d.Events)
	r.GET("/events/:eventId/terms-and-conditions", events.TermsAndConditions)

	accounts := handlers.NewAuthHandler(d.Accounts)
	users := r.Group("/users", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		users.POST("/register", accounts.SignUp)
		users.POST("/login", accounts.Login)
		users.POST("/forgot-password", accounts.ForgotPassword)
		users.POST("/reset-password/:token", accounts.ResetPassword)
		users.POST("/logout", middlewares.ForwardToken(), accounts.Logout)
	}

	api := r.Group("/", authMW.RequireAuth())
	api.GET("/events/:eventId", events.GetEventByID)

	regs := handlers.NewRegistrationHandler(d.Resolver, d.Drafts, d.Confirmer)
	api.GET("/registration/my-registration", regs.MyRegistration)

	wiz := api.Group("/registration/wizard/:eventId")
	{
		wiz.GET("", regs.Wizard)
		wiz.POST("/basic-details", regs.SubmitBasicDetails)
		wiz.POST("/accompanying-persons", regs.SubmitAccompanying)
		wiz.POST("/accompanying-persons/skip", regs.SkipAccompanying)
		wiz.POST("/workshops", regs.SubmitWorkshops)
		wiz.PUT("/workshops/select", regs.SelectWorkshop)
		wiz.POST("/workshops/skip", regs.SkipWorkshops)
		wiz.POST("/back", regs.Back)
		wiz.POST("/reset", regs.Reset)
		wiz.POST("/confirm", regs.Confirm)
	}

	pay := handlers.NewPaymentsHandler(d.Payments)
	payments := api.Group("/registration/payment")
	{
		payments.GET("", paymentLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), pay.Checkout)
		payments.POST("/verify", paymentLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), pay.Verify)
		payments.POST("/dismiss", pay.Dismiss)
		payments.GET("/success", pay.ResultPage(payment.KindSuccess))
		payments.GET("/failed", pay.ResultPage(payment.KindFailed))
		payments.GET("/error", pay.ResultPage(payment.KindError))
	}

	badges := handlers.NewBadgesHandler(d.Regs, d.Badges, d.PublicBaseURL)
	badge := api.Group("/registration/my-registration/badge/:eventId")
	{
		badge.GET("", badges.Badge)
		badge.GET("/download", badges.Download)
		badge.POST("/share", shareLimiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP), badges.Share)
	}

	return r
}
