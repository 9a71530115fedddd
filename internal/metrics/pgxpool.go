package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// RegisterPgxPoolMetrics exposes session-store connection pool statistics as
// Prometheus gauges under the ocra namespace.
func RegisterPgxPoolMetrics(pool *pgxpool.Pool) {
	poolGauge := func(name, help string, value func(*pgxpool.Stat) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ocra",
			Subsystem: "pgxpool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(value(pool.Stat()))
		})
	}

	prometheus.MustRegister(
		poolGauge("acquired_conns", "Number of currently acquired connections in the pool", (*pgxpool.Stat).AcquiredConns),
		poolGauge("max_conns", "Maximum number of connections in the pool", (*pgxpool.Stat).MaxConns),
		poolGauge("total_conns", "Total number of connections in the pool", (*pgxpool.Stat).TotalConns),
		poolGauge("idle_conns", "Number of idle connections in the pool", (*pgxpool.Stat).IdleConns),
	)
}
