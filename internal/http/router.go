package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/sitehub/internal/config"
	"github.com/geocoder89/sitehub/internal/domain/content"
	"github.com/geocoder89/sitehub/internal/domain/user"
	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/geocoder89/sitehub/internal/http/middlewares"
	"github.com/geocoder89/sitehub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "sitehub-api"

type RouterDeps struct {
	Log    *slog.Logger
	Config config.Config

	Identity handlers.IdentityService
	Site     handlers.SiteService

	Tokens middlewares.TokenVerifier
	Users  middlewares.UserLookup

	// RateCounter backs the credential endpoint throttles. Nil uses a
	// per-process counter.
	RateCounter middlewares.Counter

	// Prom and Gatherer are optional; /metrics is mounted when Gatherer is set.
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Checks are pinged by /readyz.
	Checks map[string]handlers.PingFunc
}

var entryPaths = map[content.Kind]string{
	content.KindBanner:       "/banners",
	content.KindBlog:         "/blogs",
	content.KindTestimonial:  "/testimonials",
	content.KindSpecialOffer: "/special-offers",
	content.KindProduct:      "/products",
	content.KindAbout:        "/about",
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}

	if !cfg.IsDevLike() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(Recovery(log))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.SecureCookies()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	// health
	h := handlers.NewHealthHandler(deps.Checks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}

	api := r.Group("/api",
		// footer carries two images
		middlewares.MaxBodyBytes(2*maxUpload+1<<20),
		middlewares.RequireContentType("application/json", "multipart/form-data", "application/x-www-form-urlencoded"),
	)

	session := middlewares.NewSessionMiddleware(deps.Tokens, deps.Users, cfg.CookieName)
	requireSession := session.RequireSession()
	requireAdmin := middlewares.RequireRole(user.RoleAdmin)
	requireSuperAdmin := middlewares.RequireRole(user.RoleSuperAdmin)

	counter := deps.RateCounter
	if counter == nil {
		counter = middlewares.NewMemoryCounter()
	}
	window := cfg.RateWindow
	if window <= 0 {
		window = time.Minute
	}
	loginLimit := middlewares.NewRateLimiter(counter, "login", positive(cfg.LoginRateLimit, 10), window).RateLimiterMiddleware(middlewares.KeyByIP)
	forgotLimit := middlewares.NewRateLimiter(counter, "forgot", positive(cfg.ForgotRateLimit, 5), window).RateLimiterMiddleware(middlewares.KeyByIP)
	bookingLimit := middlewares.NewRateLimiter(counter, "booking", positive(cfg.BookingRateLimit, 5), window).RateLimiterMiddleware(middlewares.KeyByIP)
	// guesses at the current password are budgeted per account
	passwordLimit := middlewares.NewRateLimiter(counter, "password_change", positive(cfg.LoginRateLimit, 10), window).RateLimiterMiddleware(middlewares.KeyByUserOrIP)

	// users
	uh := handlers.NewUsersHandler(deps.Identity, handlers.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.SecureCookies(),
	})

	users := api.Group("/users")
	users.POST("/register", loginLimit, uh.Register)
	users.POST("/login", loginLimit, uh.Login)
	users.GET("/logout", uh.Logout)
	users.POST("/password/forgot", forgotLimit, uh.ForgotPassword)
	users.PUT("/password/reset/:token", forgotLimit, uh.ResetPassword)

	users.GET("/me", requireSession, uh.Me)
	users.PUT("/update", requireSession, uh.UpdateProfile)
	users.PUT("/password/update", requireSession, passwordLimit, uh.ChangePassword)

	admin := users.Group("/admin", requireSession, requireAdmin)
	admin.GET("/dashboard", uh.Dashboard)
	admin.GET("/users", uh.ListUsers)

	super := users.Group("/superadmin", requireSession, requireSuperAdmin)
	super.GET("/dashboard", uh.Dashboard)
	super.GET("/users", uh.ListUsers)
	super.PUT("/users/:id/role", uh.SetRole)

	// site content
	sh := handlers.NewSiteHandler(deps.Site)

	header := api.Group("/header")
	header.GET("/:ownerId", sh.GetHeader)
	header.POST("", requireSession, requireAdmin, sh.CreateHeader)
	header.PUT("", requireSession, requireAdmin, sh.UpdateHeader)
	header.DELETE("", requireSession, requireAdmin, sh.DeleteHeader)

	footer := api.Group("/footer")
	footer.GET("/:ownerId", sh.GetFooter)
	footer.PUT("", requireSession, requireAdmin, sh.UpsertFooter)
	footer.DELETE("", requireSession, requireAdmin, sh.DeleteFooter)

	for _, kind := range content.Kinds {
		routes := sh.Entries(kind)
		g := api.Group(entryPaths[kind])

		g.GET("", routes.List)
		g.GET("/:id", routes.Get)
		g.POST("", requireSession, requireAdmin, routes.Create)
		g.PUT("/:id", requireSession, requireAdmin, routes.Update)
		g.DELETE("/:id/image", requireSession, requireAdmin, routes.RemoveImage)
		g.DELETE("/:id", requireSession, requireAdmin, routes.Delete)
	}

	appointments := api.Group("/appointments")
	appointments.POST("", bookingLimit, sh.BookAppointment)
	appointments.GET("", requireSession, requireAdmin, sh.ListAppointments)
	appointments.GET("/:id", requireSession, requireAdmin, sh.GetAppointment)
	appointments.PUT("/:id", requireSession, requireAdmin, sh.UpdateAppointment)
	appointments.PATCH("/:id/status", requireSession, requireAdmin, sh.UpdateAppointmentStatus)
	appointments.DELETE("/:id", requireSession, requireAdmin, sh.DeleteAppointment)

	return r
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
