package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tillbook/tillbook/internal/adapter/http/handler"
	"github.com/tillbook/tillbook/internal/adapter/http/middleware"
	"github.com/tillbook/tillbook/internal/infrastructure/auth"
	"github.com/tillbook/tillbook/internal/infrastructure/metrics"
	"github.com/tillbook/tillbook/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AuthHandler      *handler.AuthHandler
	UserHandler      *handler.UserHandler
	ProductHandler   *handler.ProductHandler
	CustomerHandler  *handler.CustomerHandler
	SupplierHandler  *handler.SupplierHandler
	SaleHandler      *handler.SaleHandler
	ReturnHandler    *handler.ReturnHandler
	GiftCardHandler  *handler.GiftCardHandler
	RegisterHandler  *handler.RegisterHandler
	InventoryHandler *handler.InventoryHandler
	ReportHandler    *handler.ReportHandler
	AuditHandler     *handler.AuditHandler
	HealthHandler    *handler.HealthHandler

	JWTManager       *auth.JWTManager
	AuthEnabled      bool
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", cfg.AuthHandler.Login)

		r.Group(func(r chi.Router) {
			if cfg.AuthEnabled {
				r.Use(middleware.AuthMiddleware(cfg.JWTManager))
			}

			// Idempotency middleware for mutating requests
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
			}

			r.Get("/auth/me", cfg.AuthHandler.Me)

			// Users (admin only)
			r.Route("/users", func(r chi.Router) {
				r.Post("/change-password", cfg.UserHandler.ChangePassword)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireAdmin)
					}
					r.Post("/", cfg.UserHandler.Create)
					r.Get("/", cfg.UserHandler.List)
					r.Get("/{id}", cfg.UserHandler.Get)
					r.Put("/{id}/role", cfg.UserHandler.SetRole)
					r.Put("/{id}/active", cfg.UserHandler.SetActive)
				})
			})

			// Catalog
			r.Route("/products", func(r chi.Router) {
				r.Get("/", cfg.ProductHandler.List)
				r.Get("/{id}", cfg.ProductHandler.Get)
				r.Get("/sku/{sku}", cfg.ProductHandler.GetBySKU)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireManager)
					}
					r.Post("/", cfg.ProductHandler.Create)
					r.Put("/{id}", cfg.ProductHandler.Update)
					r.Put("/{id}/active", cfg.ProductHandler.SetActive)
				})
			})

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", cfg.ProductHandler.ListLocations)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireManager)
					}
					r.Post("/", cfg.ProductHandler.CreateLocation)
				})
			})

			// Customers
			r.Route("/customers", func(r chi.Router) {
				r.Post("/", cfg.CustomerHandler.Create)
				r.Get("/", cfg.CustomerHandler.List)
				r.Get("/{id}", cfg.CustomerHandler.Get)
				r.Put("/{id}", cfg.CustomerHandler.Update)
				r.Put("/{id}/active", cfg.CustomerHandler.SetActive)
				r.Post("/{id}/points/earn", cfg.CustomerHandler.EarnPoints)
				r.Post("/{id}/points/redeem", cfg.CustomerHandler.RedeemPoints)
			})

			// Suppliers (admin only)
			r.Route("/suppliers", func(r chi.Router) {
				r.Get("/", cfg.SupplierHandler.List)
				r.Get("/{id}", cfg.SupplierHandler.Get)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireAdmin)
					}
					r.Post("/", cfg.SupplierHandler.Create)
					r.Put("/{id}", cfg.SupplierHandler.Update)
					r.Put("/{id}/active", cfg.SupplierHandler.SetActive)
				})
			})

			// Sales
			r.Route("/sales", func(r chi.Router) {
				r.Post("/", cfg.SaleHandler.Checkout)
				r.Get("/", cfg.SaleHandler.List)
				r.Get("/{id}", cfg.SaleHandler.Get)
				r.Get("/{id}/returns", cfg.SaleHandler.ListReturns)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireManager)
					}
					r.Post("/{id}/void", cfg.SaleHandler.Void)
				})
			})

			// Returns
			r.Route("/returns", func(r chi.Router) {
				r.Post("/", cfg.ReturnHandler.Create)
				r.Get("/{id}", cfg.ReturnHandler.Get)
			})

			// Gift cards
			r.Route("/gift-cards", func(r chi.Router) {
				r.Post("/", cfg.GiftCardHandler.Issue)
				r.Get("/", cfg.GiftCardHandler.List)
				r.Get("/{code}", cfg.GiftCardHandler.Get)
				r.Post("/{code}/load", cfg.GiftCardHandler.Load)
				r.Post("/{code}/redeem", cfg.GiftCardHandler.Redeem)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireManager)
					}
					r.Post("/{code}/disable", cfg.GiftCardHandler.Disable)
				})
			})

			// Cash registers
			r.Route("/registers", func(r chi.Router) {
				r.Post("/open", cfg.RegisterHandler.Open)
				r.Get("/current", cfg.RegisterHandler.Current)
				r.Get("/", cfg.RegisterHandler.History)
				r.Get("/{id}", cfg.RegisterHandler.Get)
				r.Get("/{id}/movements", cfg.RegisterHandler.ListMovements)
				r.Post("/{id}/close", cfg.RegisterHandler.Close)
				r.Post("/{id}/cash-in", cfg.RegisterHandler.CashIn)
				r.Post("/{id}/cash-out", cfg.RegisterHandler.CashOut)
			})

			// Inventory
			r.Get("/stock", cfg.InventoryHandler.GetStock)
			r.Get("/stock/levels", cfg.InventoryHandler.ListStock)
			r.Get("/stock/low", cfg.InventoryHandler.LowStock)

			r.Route("/adjustments", func(r chi.Router) {
				r.Get("/", cfg.InventoryHandler.ListAdjustments)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireManager)
					}
					r.Post("/", cfg.InventoryHandler.Adjust)
				})
			})

			r.Route("/transfers", func(r chi.Router) {
				r.Post("/", cfg.InventoryHandler.RequestTransfer)
				r.Get("/", cfg.InventoryHandler.ListTransfers)
				r.Get("/{id}", cfg.InventoryHandler.GetTransfer)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireManager)
					}
					r.Post("/{id}/approve", cfg.InventoryHandler.ApproveTransfer)
					r.Post("/{id}/reject", cfg.InventoryHandler.RejectTransfer)
				})
			})

			r.Route("/purchases", func(r chi.Router) {
				r.Get("/", cfg.InventoryHandler.ListPurchases)
				r.Get("/{id}", cfg.InventoryHandler.GetPurchase)

				r.Group(func(r chi.Router) {
					if cfg.AuthEnabled {
						r.Use(middleware.RequireManager)
					}
					r.Post("/", cfg.InventoryHandler.ReceivePurchase)
				})
			})

			// Reports and ledger verification
			r.Route("/reports", func(r chi.Router) {
				if cfg.AuthEnabled {
					r.Use(middleware.RequireManager)
				}
				r.Get("/sales-summary", cfg.ReportHandler.SalesSummary)
				r.Get("/registers/{id}/reconcile", cfg.ReportHandler.ReconcileRegister)
				r.Get("/ledger/{kind}/verify", cfg.ReportHandler.VerifyLedger)
				r.Get("/ledger/{kind}/{id}/verify", cfg.ReportHandler.VerifyHolder)
				r.Get("/ledger/{kind}/{id}/history", cfg.ReportHandler.HolderHistory)
				r.Get("/ledger/reference/{type}/{id}", cfg.ReportHandler.ReferenceHistory)
			})

			// Audit trail (admin only)
			r.Route("/audit-logs", func(r chi.Router) {
				if cfg.AuthEnabled {
					r.Use(middleware.RequireAdmin)
				}
				r.Get("/", cfg.AuditHandler.List)
			})
		})
	})

	return r
}
