package pg

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// poolCollector expone gauges del pool de conexiones.
type poolCollector struct {
	pool *pgxpool.Pool

	acquiredDesc *prometheus.Desc
	idleDesc     *prometheus.Desc
	totalDesc    *prometheus.Desc
	maxDesc      *prometheus.Desc
}

// Collector retorna un prometheus.Collector con el estado del pool.
func (c *Connection) Collector() prometheus.Collector {
	return &poolCollector{
		pool:         c.pool,
		acquiredDesc: prometheus.NewDesc("stockauth_pgxpool_acquired", "Conexiones adquiridas", nil, nil),
		idleDesc:     prometheus.NewDesc("stockauth_pgxpool_idle", "Conexiones inactivas", nil, nil),
		totalDesc:    prometheus.NewDesc("stockauth_pgxpool_total", "Conexiones abiertas", nil, nil),
		maxDesc:      prometheus.NewDesc("stockauth_pgxpool_max", "Máximo configurado", nil, nil),
	}
}

func (p *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.acquiredDesc
	ch <- p.idleDesc
	ch <- p.totalDesc
	ch <- p.maxDesc
}

func (p *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stat := p.pool.Stat()
	if stat == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(p.acquiredDesc, prometheus.GaugeValue, float64(stat.AcquiredConns()))
	ch <- prometheus.MustNewConstMetric(p.idleDesc, prometheus.GaugeValue, float64(stat.IdleConns()))
	ch <- prometheus.MustNewConstMetric(p.totalDesc, prometheus.GaugeValue, float64(stat.TotalConns()))
	ch <- prometheus.MustNewConstMetric(p.maxDesc, prometheus.GaugeValue, float64(stat.MaxConns()))
}
