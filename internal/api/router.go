package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/evidenca/internal/ledger"
	"github.com/erazemk/evidenca/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(svc *ledger.Service, db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{Ledger: svc, DB: db}
	issuancesHandler := &IssuancesHandler{Ledger: svc}
	analyticsHandler := &AnalyticsHandler{Ledger: svc}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireManager := RequireRole(model.RoleManager)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Items: read (all roles), write (manager+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireManager(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireManager(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("POST /api/items/{id}/reconcile", authMW(requireManager(http.HandlerFunc(itemsHandler.Reconcile))))
	mux.Handle("GET /api/items/{id}/activity", authMW(http.HandlerFunc(itemsHandler.Activity)))
	mux.Handle("PUT /api/items/{id}/image", authMW(requireManager(http.HandlerFunc(itemsHandler.UploadImage))))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Issuances: read (all roles), write (manager+).
	mux.Handle("GET /api/issuances", authMW(http.HandlerFunc(issuancesHandler.List)))
	mux.Handle("POST /api/issuances", authMW(requireManager(http.HandlerFunc(issuancesHandler.Create))))
	mux.Handle("POST /api/issuances/{id}/return", authMW(requireManager(http.HandlerFunc(issuancesHandler.Return))))

	// Analytics and audit trail (all roles).
	mux.Handle("GET /api/analytics", authMW(http.HandlerFunc(analyticsHandler.Get)))
	mux.Handle("GET /api/analytics/overdue", authMW(http.HandlerFunc(analyticsHandler.Overdue)))
	mux.Handle("GET /api/audits", authMW(http.HandlerFunc(analyticsHandler.Audits)))

	return mux
}
