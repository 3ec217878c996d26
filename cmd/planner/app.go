package main

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"project-planner/internal/api"
	"project-planner/internal/config"
	"project-planner/internal/metrics"
	"project-planner/internal/repository"
	"project-planner/internal/service"
)

const auditTimeout = 30 * time.Second

// app is the wiring shared by every subcommand.
type app struct {
	cfg      config.Config
	log      *logrus.Logger
	db       *gorm.DB
	graph    *repository.Graph
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	svc      *api.Service
	audit    *service.AuditService
}

// loadConfig reads the configuration and builds the logger from it.
func loadConfig() (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("config: %w", err)
	}
	log, err := newLogger(cfg)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func newApp() (*app, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := repository.NewDB(cfg.DatabaseURL, log.WithField("component", "gorm"))
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)
	if err := db.Use(m.QueryCounter()); err != nil {
		return nil, fmt.Errorf("db metrics: %w", err)
	}

	graph := repository.NewGraph(db)
	resolver := service.NewResolver(graph,
		service.WithLogger(log.WithField("component", "resolver")),
		service.WithMetrics(m),
	)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		graph:    graph,
		registry: registry,
		metrics:  m,
		svc:      api.NewService(resolver),
		audit:    service.NewAuditService(graph, log.WithField("component", "audit"), m),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}

// startAudit schedules the periodic audit when an interval is configured.
// The returned func stops the scheduler.
func (a *app) startAudit() (func(), error) {
	if a.cfg.AuditInterval <= 0 {
		a.log.Info("periodic audit disabled")
		return func() {}, nil
	}
	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleAudit(a.cfg.AuditInterval, auditTimeout, a.audit, a.log); err != nil {
		return nil, fmt.Errorf("schedule audit: %w", err)
	}
	scheduler.Start()
	a.log.WithField("interval", a.cfg.AuditInterval.String()).Info("periodic audit scheduled")
	return scheduler.Stop, nil
}

func newLogger(cfg config.Config) (*logrus.Logger, error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
