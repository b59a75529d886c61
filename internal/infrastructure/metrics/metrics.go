package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tillbook/tillbook/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Sale metrics
	SalesCompleted prometheus.Counter
	SalesVoided    prometheus.Counter
	SaleAmount     prometheus.Histogram
	SaleFailures   *prometheus.CounterVec

	// Return metrics
	ReturnsProcessed prometheus.Counter
	ReturnFailures   *prometheus.CounterVec

	// Gift card metrics
	GiftCardsIssued  prometheus.Counter
	GiftCardRedeemed prometheus.Histogram
	GiftCardFailures *prometheus.CounterVec

	// Register metrics
	RegistersOpened    prometheus.Counter
	RegistersClosed    prometheus.Counter
	RegisterDifference prometheus.Histogram

	// Inventory metrics
	StockAdjustments  *prometheus.CounterVec
	TransfersDecided  *prometheus.CounterVec
	PurchasesReceived prometheus.Counter
	LowStockProducts  prometheus.Gauge

	// Mutation engine metrics
	MutationRetries  prometheus.Counter
	MutationDuration prometheus.Histogram

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  prometheus.Counter
	OutboxBacklog   prometheus.Gauge
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Sale metrics
		SalesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_sales_completed_total",
			Help: "Total number of completed sales",
		}),
		SalesVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_sales_voided_total",
			Help: "Total number of voided sales",
		}),
		SaleAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillbook_sale_amount",
			Help:    "Net sale amounts",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		}),
		SaleFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_sale_failures_total",
				Help: "Total number of failed checkouts by error type",
			},
			[]string{"error_type"},
		),

		// Return metrics
		ReturnsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_returns_processed_total",
			Help: "Total number of processed returns",
		}),
		ReturnFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_return_failures_total",
				Help: "Total number of failed returns by error type",
			},
			[]string{"error_type"},
		),

		// Gift card metrics
		GiftCardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_gift_cards_issued_total",
			Help: "Total number of gift cards issued",
		}),
		GiftCardRedeemed: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillbook_gift_card_redeemed_amount",
			Help:    "Gift card redemption amounts",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		}),
		GiftCardFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_gift_card_failures_total",
				Help: "Total number of rejected gift card operations by error type",
			},
			[]string{"error_type"},
		),

		// Register metrics
		RegistersOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_registers_opened_total",
			Help: "Total number of register sessions opened",
		}),
		RegistersClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_registers_closed_total",
			Help: "Total number of register sessions closed",
		}),
		RegisterDifference: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillbook_register_close_difference",
			Help:    "Absolute difference between counted and expected cash at close",
			Buckets: []float64{0, 0.01, 0.1, 1, 5, 10, 50, 100},
		}),

		// Inventory metrics
		StockAdjustments: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_stock_adjustments_total",
				Help: "Total stock adjustments by kind",
			},
			[]string{"kind"},
		),
		TransfersDecided: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_transfers_decided_total",
				Help: "Total stock transfer decisions by outcome",
			},
			[]string{"outcome"},
		),
		PurchasesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_purchases_received_total",
			Help: "Total goods receipts",
		}),
		LowStockProducts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tillbook_low_stock_products",
			Help: "Number of stock rows at or below their minimum level",
		}),

		// Mutation engine metrics
		MutationRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_mutation_retries_total",
			Help: "Total balance mutations retried after a transient store failure",
		}),
		MutationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "tillbook_mutation_duration_seconds",
			Help:    "Duration of balance mutation transactions",
			Buckets: prometheus.DefBuckets,
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tillbook_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tillbook_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tillbook_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Outbox metrics
		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tillbook_outbox_failures_total",
			Help: "Total outbox publish failures",
		}),
		OutboxBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tillbook_outbox_backlog",
			Help: "Unpublished outbox events",
		}),
	}
}

// ErrorLabel maps an error to a low-cardinality label value.
func ErrorLabel(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, domain.ErrPreconditionFailed):
		return "precondition_failed"
	case errors.Is(err, domain.ErrHolderNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrLocationNotFound),
		errors.Is(err, domain.ErrGiftCardNotFound),
		errors.Is(err, domain.ErrRegisterNotFound),
		errors.Is(err, domain.ErrCustomerNotFound),
		errors.Is(err, domain.ErrSaleNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrEmptySale),
		errors.Is(err, domain.ErrDuplicateCode):
		return "invalid_input"
	default:
		return "internal"
	}
}
