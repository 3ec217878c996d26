package metrics_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"project-planner/internal/metrics"
	"project-planner/internal/repository"
	plannertest "project-planner/internal/testutil"
)

func TestQueryCounterCountsPreloads(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	db := plannertest.NewDB(t)
	if err := db.Use(m.QueryCounter()); err != nil {
		t.Fatalf("use plugin: %v", err)
	}
	graph := repository.NewGraph(db)
	ex := plannertest.Seed(t, graph)

	before := testutil.ToFloat64(m.Queries.WithLabelValues("categories"))
	if _, err := graph.GetProjectWithCategories(context.Background(), ex.ProjectID); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := testutil.ToFloat64(m.Queries.WithLabelValues("categories")) - before; got != 1 {
		t.Errorf("categories queries = %v, want 1", got)
	}
}

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ResolverOps.WithLabelValues("resolve_project", "ok").Inc()
	m.AuditViolations.Set(3)

	if n := testutil.CollectAndCount(m.ResolverOps); n != 1 {
		t.Errorf("resolver series = %d, want 1", n)
	}
	if got := testutil.ToFloat64(m.AuditViolations); got != 3 {
		t.Errorf("violations gauge = %v", got)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("registry gathered nothing")
	}
}
