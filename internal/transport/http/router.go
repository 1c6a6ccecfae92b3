package http

import (
	"context"
	"net/http"

	"github.com/agribiz-identity/internal/application/notification"
	"github.com/agribiz-identity/internal/application/otp"
	"github.com/agribiz-identity/internal/application/profile"
	"github.com/agribiz-identity/internal/application/registration"
	"github.com/agribiz-identity/internal/application/reset"
	"github.com/agribiz-identity/internal/application/session"
	"github.com/agribiz-identity/internal/config"
	"github.com/agribiz-identity/internal/domain"
	"github.com/agribiz-identity/internal/transport/http/handler"
	appmiddleware "github.com/agribiz-identity/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router. ctx bounds the
// background cleanup of the per-IP rate limiter.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// 5 requests/second, burst of 10 on public credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(5), 10, cfg.TrustedProxies...)

	notifier := notification.NewService(notification.ServiceDeps{
		Mailer:    deps.Mailer,
		SMSSender: deps.SMSSender,
		AppName:   cfg.AppName,
	})
	otpSvc := otp.NewService(otp.ServiceDeps{
		Tokens:  deps.Tokens,
		Mailer:  deps.Mailer,
		Limiter: deps.ResendLimiter,
		TTL:     cfg.OTPTTL,
		AppName: cfg.AppName,
	})
	sessionSvc := session.NewService(session.ServiceDeps{
		UserRepo:             deps.UserRepo,
		Hasher:               deps.Hasher,
		JWTProvider:          deps.JWTProvider,
		RequireVerifiedLogin: cfg.RequireVerifiedLogin,
	})
	registrationSvc := registration.NewService(registration.ServiceDeps{
		UserRepo:            deps.UserRepo,
		Hasher:              deps.Hasher,
		OTP:                 otpSvc,
		Sessions:            sessionSvc,
		Notifier:            notifier,
		RequireVerification: cfg.RequireVerification,
	})
	resetSvc := reset.NewService(reset.ServiceDeps{
		UserRepo:    deps.UserRepo,
		Hasher:      deps.Hasher,
		Mailer:      deps.Mailer,
		Notifier:    notifier,
		TTL:         cfg.ResetTokenTTL,
		FrontendURL: cfg.FrontendURL,
		AppName:     cfg.AppName,
	})
	profileSvc := profile.NewService(profile.ServiceDeps{
		UserRepo: deps.UserRepo,
		Images:   deps.Images,
		Hasher:   deps.Hasher,
		Notifier: notifier,
	})

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(registrationSvc, sessionSvc, resetSvc, profileSvc)
	profileH := handler.NewProfileHandler(profileSvc)
	userH := handler.NewUserHandler(profileSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.With(sensitiveRL.Limit).Post("/auth/resend-verification", authH.ResendVerification)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/forgot-password", authH.ForgotPassword)
		r.With(sensitiveRL.Limit).Post("/auth/reset-password", authH.ResetPassword)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Auth(deps.JWTProvider))

			r.Post("/auth/change-password", authH.ChangePassword)
			r.Get("/profile", profileH.Get)
			r.Put("/profile", profileH.Update)
			r.Post("/profile/image", profileH.UploadImage)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
			})
		})
	})

	return r
}
