package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxTradesProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "copytrader_trades_processed_total",
			Help: "Trade events taken from the leader feed",
		},
	)

	mtxReplications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_replications_total",
			Help: "Replication cycles by aggregate result",
		},
		[]string{"result"},
	)

	mtxFollowerOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_follower_orders_total",
			Help: "Per-follower order outcomes",
		},
		[]string{"user_id", "result"},
	)

	mtxRiskDenied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "copytrader_risk_denied_total",
			Help: "Events vetoed by the risk engine",
		},
		[]string{"user_id"},
	)

	mtxFeedState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "copytrader_feed_state",
			Help: "Leader feed connection state (0=disconnected 1=connecting 2=connected 3=reconnecting 4=failed)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		mtxTradesProcessed,
		mtxReplications,
		mtxFollowerOrders,
		mtxRiskDenied,
		mtxFeedState,
	)
}

// SetFeedState отражает состояние подключения к ленте лидера в метрике.
func SetFeedState(state int) {
	mtxFeedState.Set(float64(state))
}
