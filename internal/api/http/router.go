package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindcheck/internal/auth/middleware"
	"github.com/mind-engage/mindcheck/internal/rbac"
	"github.com/mind-engage/mindcheck/internal/store"
)

type Deps struct {
	Store       store.Store
	Auth        *auth.AuthService
	Users       auth.Authenticator // nil disables POST /auth/login
	CORSOrigins []string
	Ready       func(ctx context.Context) error // backs /readyz; nil means always ready
	Timeout     time.Duration
}

func NewRouter(d Deps) http.Handler {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	if d.Users != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Users))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		pr.With(rbac.Require("test:view")).
			Get("/test/{testID}", GetTestHandler(d.Store))
		pr.With(rbac.Require("test:view")).
			Get("/tests", ListTestsHandler(d.Store))
		pr.With(rbac.Require("test:create")).
			Post("/tests", UploadTestHandler(d.Store))

		pr.With(rbac.RequireAny("result:submit", "result:submit-any")).
			Post("/test/submitUserTestResult", SubmitResultHandler(d.Store))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results", ListResultsHandler(d.Store))
		pr.With(rbac.RequireAny("result:view-own", "result:view-all")).
			Get("/results/{resultID}", GetResultHandler(d.Store))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
