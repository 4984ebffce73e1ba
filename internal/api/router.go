package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sfmarket/daily-spin/internal/api/handlers"
	"github.com/sfmarket/daily-spin/internal/auth"
	"github.com/sfmarket/daily-spin/internal/service"
)

// NewRouter builds the HTTP router for the daily-spin service.
func NewRouter(svc *service.CouponService, creds auth.Credentials, tokens *auth.TokenService, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	couponHandler := handlers.NewCouponHandler(svc, log)
	adminHandler := handlers.NewAdminHandler(creds, tokens, log)

	r.Route("/api", func(r chi.Router) {
		r.Post("/admin/login", adminHandler.Login)

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", couponHandler.ListCoupons)
			r.Post("/", couponHandler.CreateCoupon)
			r.Delete("/", couponHandler.DeleteCoupon)
			r.Patch("/", couponHandler.UpdateUsedStatus)
			r.Get("/stats", couponHandler.GetStats)
		})
	})

	// health
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return r
}
