package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the storefront counters.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeDuplicate = "duplicate"
)

// StoreMetrics counts cart, order and payment events.
type StoreMetrics struct {
	cartMutations *prometheus.CounterVec
	ordersPlaced  *prometheus.CounterVec
	payments      *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// NewStoreMetrics registers the storefront counters on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart add/remove operations by outcome.",
	}, []string{"op", "outcome"})
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders created by payment method.",
	}, []string{"payment_method"})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_total",
		Help: "Payment confirmations by provider and outcome.",
	}, []string{"provider", "outcome"})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_lookups_total",
		Help: "Catalog cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(cartMutations, ordersPlaced, payments, cacheLookups)
	return &StoreMetrics{
		cartMutations: cartMutations,
		ordersPlaced:  ordersPlaced,
		payments:      payments,
		cacheLookups:  cacheLookups,
	}
}

// IncCartMutation counts an add or remove against the cart.
func (m *StoreMetrics) IncCartMutation(op, outcome string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

// IncOrderPlaced counts a newly created order.
func (m *StoreMetrics) IncOrderPlaced(paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncPayment counts a payment confirmation attempt.
func (m *StoreMetrics) IncPayment(provider, outcome string) {
	if m == nil || m.payments == nil {
		return
	}
	m.payments.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// IncCacheLookup records a cache hit or miss.
func (m *StoreMetrics) IncCacheLookup(hit bool) {
	if m == nil || m.cacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
