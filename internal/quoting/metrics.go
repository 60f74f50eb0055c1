package quoting

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Simplici0/printquote/internal/pricing"
	"github.com/Simplici0/printquote/internal/store"
)

var (
	quotesIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printquote_quotes_issued_total",
			Help: "Total number of quotes issued, by material and pricing config version",
		},
		[]string{"material", "config_version"},
	)

	quotesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printquote_quotes_rejected_total",
			Help: "Total number of quote requests rejected before pricing completed",
		},
		[]string{"reason"},
	)

	quoteTotals = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "printquote_quote_total_eur",
			Help:    "Distribution of quoted order totals in EUR",
			Buckets: []float64{15, 25, 50, 100, 250, 500, 1000, 2500},
		},
	)

	configsProposed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "printquote_pricing_configs_proposed_total",
			Help: "Total number of pricing configs accepted",
		},
	)

	ordersTransitioned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "printquote_order_status_changes_total",
			Help: "Total number of orders entering each status",
		},
		[]string{"status"},
	)
)

// rejectionReason maps an error to a low-cardinality metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, pricing.ErrUnknownMaterial):
		return "unknown_material"
	case errors.Is(err, pricing.ErrInvalidQuantity):
		return "invalid_quantity"
	case errors.Is(err, pricing.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, pricing.ErrNoConfigAvailable):
		return "no_config"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
