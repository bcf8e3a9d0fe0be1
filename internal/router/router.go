package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kiwari-pos/terminal/internal/bills"
	"github.com/kiwari-pos/terminal/internal/catalog"
	"github.com/kiwari-pos/terminal/internal/config"
	"github.com/kiwari-pos/terminal/internal/handler"
	mw "github.com/kiwari-pos/terminal/internal/middleware"
	"github.com/kiwari-pos/terminal/internal/service"
	"github.com/kiwari-pos/terminal/internal/ws"
	"github.com/rs/zerolog"
)

// Deps are the long-lived components the routes are served from.
type Deps struct {
	Catalog  *catalog.Catalog
	Book     *bills.Book
	Orders   *service.OrderService
	Payments *service.PaymentService
	Hub      *ws.Hub
}

// New creates a Chi router with all terminal routes wired up.
func New(cfg *config.Config, logger zerolog.Logger, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/ws/{topic}", ws.NewServer(d.Hub, cfg.AllowedOrigins))

	r.Group(func(r chi.Router) {
		r.Use(mw.RequireJSON)

		catalogHandler := handler.NewCatalogHandler(d.Catalog)
		r.Route("/catalog", catalogHandler.RegisterRoutes)

		sessionHandler := handler.NewSessionHandler(d.Orders)
		r.Route("/session", sessionHandler.RegisterRoutes)

		dashboardHandler := handler.NewDashboardHandler(d.Orders)
		dashboardHandler.RegisterRoutes(r)

		billHandler := handler.NewBillHandler(d.Book, d.Payments)
		r.Route("/bills", billHandler.RegisterRoutes)
	})

	logger.Debug().Msg("router initialized with all handlers")
	return r
}
