/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:      Request logging
  2. Recoverer:   Panic recovery (500 instead of crash)
  3. RequestID:   Unique ID per request for tracing
  4. CORS:        Cross-origin requests for frontend
  5. RequireAuth: Token validation on everything except login and
                  registration
  6. requireSelf: User-scoped routes only serve the token's own account

ROUTE GROUPS:
  /api/auth/*                  Login, logout
  /api/users/*                 Users, templates, entries, time off, reports
  /api/entries/*               Entry deletion
  /api/time-off/*              Record updates
  /api/recurring-off-days/*    Rules and exemptions
  /api/holidays                Public holiday calendar

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// requireSelf restricts user-scoped routes to the token's own user.
// Templates, entries, and reports are never visible across accounts.
func requireSelf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pathID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid user id", err)
			return
		}
		if !authorizeOwner(w, r, pathID) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", h.Login)
		r.Post("/users", h.CreateUser)

		// Everything else requires a token
		r.Group(func(r chi.Router) {
			r.Use(h.Auth.RequireAuth)

			r.Post("/auth/logout", h.Logout)

			r.Get("/users", h.ListUsers)
			r.Route("/users/{id}", func(r chi.Router) {
				r.Use(requireSelf)

				r.Get("/", h.GetUser)
				r.Get("/working-hours", h.GetWorkingHours)
				r.Put("/working-hours", h.PutWorkingHours)

				r.Get("/entries", h.ListEntries)
				r.Post("/entries", h.CreateEntry)
				r.Post("/clock-in", h.ClockIn)
				r.Post("/clock-out", h.ClockOut)

				r.Get("/time-off", h.ListTimeOff)
				r.Post("/time-off", h.CreateTimeOff)

				r.Get("/recurring-off-days", h.ListRecurringOffDays)
				r.Post("/recurring-off-days", h.CreateRecurringOffDay)

				r.Get("/summary", h.GetSummary)
				r.Get("/vacation-balance", h.GetVacationBalance)
				r.Put("/vacation-balance", h.PutVacationBalance)
				r.Get("/reports/monthly.csv", h.MonthlyReport)
			})

			r.Delete("/entries/{id}", h.DeleteEntry)

			r.Put("/time-off/{id}", h.UpdateTimeOff)
			r.Delete("/time-off/{id}", h.DeleteTimeOff)

			r.Route("/recurring-off-days/{id}", func(r chi.Router) {
				r.Put("/", h.UpdateRecurringOffDay)
				r.Delete("/", h.DeleteRecurringOffDay)
				r.Post("/exemptions", h.AddExemption)
				r.Delete("/exemptions", h.RemoveExemption)
			})

			r.Get("/holidays", h.ListHolidays)
		})
	})

	return r
}
