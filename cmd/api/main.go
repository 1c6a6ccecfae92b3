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

	"github.com/agribiz-identity/internal/config"
	"github.com/agribiz-identity/internal/infrastructure/dynamo"
	jwtinfra "github.com/agribiz-identity/internal/infrastructure/jwt"
	redisinfra "github.com/agribiz-identity/internal/infrastructure/redis"
	s3infra "github.com/agribiz-identity/internal/infrastructure/s3"
	"github.com/agribiz-identity/internal/infrastructure/smtp"
	"github.com/agribiz-identity/internal/infrastructure/sns"
	"github.com/agribiz-identity/internal/pkg/logger"
	"github.com/agribiz-identity/internal/pkg/password"
	"github.com/agribiz-identity/internal/tokenstore"
	transporthttp "github.com/agribiz-identity/internal/transport/http"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap the users table (creates it if it doesn't exist).
	dynamoClient, err := dynamo.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("dynamodb client: %w", err)
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.UsersTable)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	s3Client, err := s3infra.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}

	deps := &transporthttp.Deps{
		UserRepo:    dynamo.NewUserRepo(dynamoClient, cfg.UsersTable),
		Tokens:      tokenstore.New(),
		Images:      s3infra.NewStore(s3Client, cfg),
		Mailer:      smtp.NewMailer(cfg),
		JWTProvider: jwtProvider,
		Hasher:      password.NewHasher(bcrypt.DefaultCost),
	}

	// SNS SMS sender (optional).
	if sender, err := sns.NewSender(ctx, cfg); err == nil {
		deps.SMSSender = sender
	} else {
		slog.Warn("SNS sender not available, SMS alerts disabled", "err", err)
	}

	// Redis resend limiter (optional).
	if rdb := redisinfra.NewClient(cfg); rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis not reachable, resend limiter will fail open", "addr", cfg.RedisAddr, "err", err)
		}
		deps.ResendLimiter = redisinfra.NewResendLimiter(rdb, cfg.ResendCooldown, cfg.ResendMaxPerHour)
	} else {
		slog.Info("REDIS_ADDR not set, resend limiter disabled")
	}

	go deps.Tokens.Run(ctx, cfg.OTPSweepInterval)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.AppPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
