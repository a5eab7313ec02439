// Package httpapi exposes the development API over HTTP/JSON using chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/leasekeeper/internal/common"
	"github.com/dmitrijs2005/leasekeeper/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// APIPrefix is where the console endpoints are mounted; /health stays at
// the root for probes.
const APIPrefix = "/api"

// NewRouter wires the public and protected routes around h.
func NewRouter(h *Handler, allowedOrigins []string, logger logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", common.HeaderAuthorization, "Content-Type", common.HeaderRequestID},
		ExposedHeaders:   []string{common.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get(common.RouteHealth, h.handleHealth)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Post(common.RouteLogin, h.handleLogin)
		r.Post(common.RouteTokenVerify, h.handleVerify)
		r.Post(common.RouteTokenRefresh, h.handleRefresh)
		r.Post(common.RouteGetOTP, h.handleGetOTP)
		r.Post(common.RouteVerifyOTP, h.handleVerifyOTP)
		r.Post(common.RouteResetPassword, h.handleResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(h.service))

			r.Get(common.RouteMe, h.handleMe)
			r.Get(common.RouteProperties, h.handleProperties)
		})
	})

	return r
}
