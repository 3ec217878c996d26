package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"project-planner/internal/metrics"
	"project-planner/internal/repository"
)

// AuditReport lists tasks found outside their project's categories.
type AuditReport struct {
	Violations []repository.MisassignedTask
}

func (r AuditReport) OK() bool {
	return len(r.Violations) == 0
}

// Summary renders one line per violation.
func (r AuditReport) Summary() string {
	if r.OK() {
		return "graph is consistent"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d misassigned task(s)", len(r.Violations)))
	for _, v := range r.Violations {
		if v.CategoryProjectID == nil {
			sb.WriteString(fmt.Sprintf("\ntask %d (project %d): category %d does not exist", v.TaskID, v.ProjectID, v.CategoryID))
			continue
		}
		sb.WriteString(fmt.Sprintf("\ntask %d (project %d): category %d belongs to project %d",
			v.TaskID, v.ProjectID, v.CategoryID, *v.CategoryProjectID))
	}
	return sb.String()
}

// AuditService checks the same-project rule over rows already stored.
type AuditService struct {
	graph   *repository.Graph
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

func NewAuditService(graph *repository.Graph, log logrus.FieldLogger, m *metrics.Metrics) *AuditService {
	return &AuditService{graph: graph, log: log, metrics: m}
}

func (s *AuditService) Run(ctx context.Context) (AuditReport, error) {
	rows, err := s.graph.Misassigned(ctx)
	if err != nil {
		s.record("error", 0)
		return AuditReport{}, err
	}
	report := AuditReport{Violations: rows}

	if report.OK() {
		s.record("ok", 0)
		s.log.Debug("audit: graph is consistent")
		return report, nil
	}

	s.record("violations", len(rows))
	for _, v := range rows {
		s.log.WithFields(logrus.Fields{
			"task_id":     v.TaskID,
			"project_id":  v.ProjectID,
			"category_id": v.CategoryID,
		}).Warn("audit: task assigned outside its project")
	}
	return report, nil
}

func (s *AuditService) record(outcome string, violations int) {
	if s.metrics == nil {
		return
	}
	s.metrics.AuditRuns.WithLabelValues(outcome).Inc()
	if outcome != "error" {
		s.metrics.AuditViolations.Set(float64(violations))
	}
}
