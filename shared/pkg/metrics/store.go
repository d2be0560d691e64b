package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersPlacedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_orders_placed_total",
		Help: "Orders successfully placed",
	})
	OrderRevenueCentsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_order_revenue_cents_total",
		Help: "Sum of order totals in cents",
	})
	AuthFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_auth_failures_total",
		Help: "Rejected authentication attempts by reason",
	}, []string{"reason"})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_cache_lookups_total",
		Help: "Cache lookups by cache name and result",
	}, []string{"cache", "result"})
)

func init() {
	prometheus.MustRegister(OrdersPlacedTotal, OrderRevenueCentsTotal, AuthFailuresTotal, CacheLookupsTotal)
}
