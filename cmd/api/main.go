package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/sitehub/internal/auth"
	"github.com/geocoder89/sitehub/internal/cache"
	"github.com/geocoder89/sitehub/internal/config"
	"github.com/geocoder89/sitehub/internal/db"
	httpx "github.com/geocoder89/sitehub/internal/http"
	"github.com/geocoder89/sitehub/internal/http/handlers"
	"github.com/geocoder89/sitehub/internal/http/middlewares"
	"github.com/geocoder89/sitehub/internal/identity"
	"github.com/geocoder89/sitehub/internal/media"
	"github.com/geocoder89/sitehub/internal/notifications"
	"github.com/geocoder89/sitehub/internal/observability"
	"github.com/geocoder89/sitehub/internal/redisclient"
	"github.com/geocoder89/sitehub/internal/repo"
	"github.com/geocoder89/sitehub/internal/security"
	"github.com/geocoder89/sitehub/internal/site"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	if err := run(); err != nil {
		slog.Default().Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.EphemeralSecret {
		log.Warn("JWT_SECRET not set, using a per-process secret; sessions end on restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTELEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "sitehub-api", cfg.Env, cfg.OTELEndpoint)
		if err != nil {
			log.Warn("tracing disabled", "err", err)
		} else {
			defer func() {
				sctx, cancel := config.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdownTracer(sctx)
			}()
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	stores, err := repo.Open(ctx, cfg, prom, true)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	if err := db.EnsureSuperAdmin(ctx, stores.Users, hasher, cfg); err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	checks := map[string]handlers.PingFunc{}
	for name, ping := range stores.Checks() {
		checks[name] = ping
	}

	uploader := newUploader(ctx, cfg, prom, log, checks)

	var counter middlewares.Counter
	if cfg.RedisAddr != "" {
		rc := redisclient.New(redisclient.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer func() { _ = rc.Close() }()
		counter = rc
		checks["redis"] = rc.Ping
	}

	sessions := auth.NewManager(cfg.JWTSecret, cfg.JWTExpires)

	idSvc := identity.NewService(identity.Config{DashboardURL: cfg.DashboardURL}, identity.Deps{
		Users:    stores.Users,
		Hasher:   hasher,
		Sessions: sessions,
		Resets:   auth.NewResetTokens(cfg.JWTSecret, cfg.ResetTokenTTL),
		Mailer:   newMailer(cfg, log),
		Log:      log,
		Prom:     prom,
	})

	siteSvc := site.NewService(site.Deps{
		Store: stores.Content,
		Media: uploader,
		Cache: cache.New(30 * time.Second),
		Log:   log,
	})

	router := httpx.NewRouter(httpx.RouterDeps{
		Log:         log,
		Config:      cfg,
		Identity:    idSvc,
		Site:        siteSvc,
		Tokens:      sessions,
		Users:       stores.Users,
		RateCounter: counter,
		Prom:        prom,
		Gatherer:    reg,
		Checks:      checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env,
			"store", cfg.StoreDriver, "credential_store", cfg.CredentialStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	sctx, cancel := config.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("shutdown complete")
	return nil
}

// newUploader falls back to a disabled uploader when MinIO is not configured
// or unreachable, so the rest of the API still serves.
func newUploader(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger, checks map[string]handlers.PingFunc) site.Uploader {
	up, err := media.NewMinioUploader(media.MinioConfig{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MediaPublicURL,
		MaxWidth:  cfg.MediaMaxWidth,
		MaxBytes:  cfg.MaxUploadBytes,
	}, prom)
	if err != nil {
		if errors.Is(err, media.ErrUnavailable) {
			log.Warn("media uploads disabled: MINIO_ENDPOINT not set")
		} else {
			log.Error("media uploads disabled", "err", err)
		}
		return media.Disabled{}
	}

	bctx, cancel := config.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := up.EnsureBucket(bctx); err != nil {
		log.Error("media bucket setup failed", "err", err)
	}

	checks["minio"] = up.Ping
	return up
}

func newMailer(cfg config.Config, log *slog.Logger) notifications.Mailer {
	brevo := notifications.BrevoConfig{
		APIKey:    cfg.BrevoAPIKey,
		FromEmail: cfg.MailFromEmail,
		FromName:  cfg.MailFromName,
	}
	if !brevo.Configured() {
		log.Warn("BREVO_API_KEY not set, reset mail will only be logged")
		return notifications.NewLogMailer(log)
	}

	return notifications.NewProtectedMailer(notifications.NewBrevoMailer(brevo, nil), notifications.ProtectedMailerConfig{
		Timeout:          8 * time.Second,
		FailureThreshold: 3,
		Cooldown:         30 * time.Second,
	})
}
