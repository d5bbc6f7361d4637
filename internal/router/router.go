package router

import (
	"log"
	"net/http"

	"github.com/atmfleet/api/internal/config"
	"github.com/atmfleet/api/internal/database"
	"github.com/atmfleet/api/internal/handler"
	"github.com/atmfleet/api/internal/service"
	"github.com/atmfleet/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration: the dashboard is served from arbitrary origins,
	// so preflight requests must always succeed.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// WebSocket route for dashboard event streaming
	r.Get("/ws/events", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	// Transactions
	transactionHandler := handler.NewTransactionHandler(
		queries,
		pool,
		func(db database.DBTX) handler.TransactionStore {
			return database.New(db)
		},
		hub,
	)
	r.Route("/transactions", transactionHandler.RegisterRoutes)

	// ATM profiles
	profileHandler := handler.NewProfileHandler(queries)
	r.Route("/atm-profiles", profileHandler.RegisterRoutes)

	// Sales representatives
	representativeHandler := handler.NewRepresentativeHandler(queries)
	r.Route("/representatives", representativeHandler.RegisterRoutes)

	// Commissions
	newCommissionStore := func(db database.DBTX) service.CommissionStore {
		return database.New(db)
	}
	commissionService := service.NewCommissionService(pool, newCommissionStore)
	commissionHandler := handler.NewCommissionHandler(commissionService, queries, hub)
	r.Route("/commissions", commissionHandler.RegisterRoutes)

	// Reports
	reportsHandler := handler.NewReportsHandler(queries)
	r.Route("/reports", reportsHandler.RegisterRoutes)

	log.Println("Router initialized with all handlers")
	return r
}
