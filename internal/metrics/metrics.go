// Package metrics holds the prometheus collectors shared by the planner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Metrics groups every collector the planner exports.
type Metrics struct {
	ResolverOps     *prometheus.CounterVec
	Queries         *prometheus.CounterVec
	AuditRuns       *prometheus.CounterVec
	AuditViolations prometheus.Gauge
	BotCommands     *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ResolverOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_resolver_operations_total",
			Help: "Resolver operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_db_queries_total",
			Help: "SELECT statements issued through gorm, by table.",
		}, []string{"table"}),
		AuditRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_audit_runs_total",
			Help: "Integrity audit runs by outcome.",
		}, []string{"outcome"}),
		AuditViolations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "planner_audit_violations",
			Help: "Tasks assigned to a category of another project at the last audit.",
		}),
		BotCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "planner_bot_commands_total",
			Help: "Bot commands handled, by command.",
		}, []string{"command"}),
	}
	reg.MustRegister(m.ResolverOps, m.Queries, m.AuditRuns, m.AuditViolations, m.BotCommands)
	return m
}

// QueryCounter returns a gorm plugin that counts every query, preloads
// included, in Queries.
func (m *Metrics) QueryCounter() gorm.Plugin {
	return queryCounter{queries: m.Queries}
}

type queryCounter struct {
	queries *prometheus.CounterVec
}

func (queryCounter) Name() string {
	return "planner:query_counter"
}

func (p queryCounter) Initialize(db *gorm.DB) error {
	return db.Callback().Query().After("gorm:query").Register("planner:count_queries", func(tx *gorm.DB) {
		table := tx.Statement.Table
		if table == "" {
			table = "unknown"
		}
		p.queries.WithLabelValues(table).Inc()
	})
}
