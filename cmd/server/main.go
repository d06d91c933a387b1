// Command server runs the study-materials delivery API.
//
//	@title                      StudyVault Delivery API
//	@version                    1.0
//	@description                Entitlement and secure delivery of study materials.
//	@BasePath                   /api/v1
//	@securityDefinitions.apikey BearerAuth
//	@in                         header
//	@name                       Authorization
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/studyvault/internal/auth"
	"github.com/tbourn/studyvault/internal/config"
	httpapi "github.com/tbourn/studyvault/internal/http"
	"github.com/tbourn/studyvault/internal/observability"
	"github.com/tbourn/studyvault/internal/ratelimit"
	"github.com/tbourn/studyvault/internal/repo"
	"github.com/tbourn/studyvault/internal/services"
	"github.com/tbourn/studyvault/internal/storage"
	"github.com/tbourn/studyvault/internal/sysutil"
	"github.com/tbourn/studyvault/internal/watermark"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

const shutdownGrace = 20 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	sysutil.SetLogLevel(cfg.LogLevel)
	log.Logger = sysutil.NewLogger(os.Stderr, cfg.LogPretty, cfg.OTEL.ServiceName)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, Version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	db, err := repo.Open(cfg.DB.Driver, cfg.DB.Path, cfg.DB.URL, cfg.OTEL.Enabled)
	if err != nil {
		return err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return err
	}

	blobs, err := storage.NewMinioStore(ctx, storage.Options{
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Bucket:    cfg.Blob.Bucket,
		Region:    cfg.Blob.Region,
		UseSSL:    cfg.Blob.UseSSL,
	})
	if err != nil {
		return err
	}

	marker, err := watermark.New(cfg.Delivery.WatermarkText, watermark.DefaultStyle)
	if err != nil {
		return err
	}

	tickets, err := auth.NewTicketSigner(ticketSecret(cfg.Delivery.TicketSecret))
	if err != nil {
		return err
	}

	verifier, err := auth.NewVerifier(ctx, auth.VerifierConfig{
		JWKSURL:  cfg.Auth.JWKSURL,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	})
	if err != nil {
		return err
	}

	var limiter services.AttemptLimiter
	if cfg.Redeem.RedisAddr != "" {
		rl, err := ratelimit.NewRedisFixedWindowLimiter(cfg.Redeem.RedisAddr, cfg.Redeem.RedisPassword, "", cfg.Redeem.Limit, cfg.Redeem.Window)
		if err != nil {
			return err
		}
		defer rl.Close()
		limiter = rl
	} else {
		log.Warn().Msg("REDIS_ADDR not set; key redemption attempts are not throttled")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Blobs:    blobs,
		Marker:   marker,
		Tickets:  tickets,
		Verifier: verifier,
		Limiter:  limiter,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", Version).Msg("listening")
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

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(sctx)
}

// ticketSecret returns the configured HS256 secret, or a random one when
// unset. Random secrets invalidate outstanding links on restart and are not
// shared between replicas.
func ticketSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal().Err(err).Msg("generate ticket secret")
	}
	log.Warn().Msg("DOWNLOAD_TICKET_SECRET not set; using an ephemeral secret")
	return b
}
