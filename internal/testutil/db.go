// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"project-planner/internal/repository"
)

var dbSeq atomic.Int64

// QuietLogger returns a logrus logger that discards output.
func QuietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// NewDB opens a fresh migrated in-memory database, closed on cleanup.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:planner_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := repository.NewDB(dsn, QuietLogger())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Seed creates the example graph (see repository.SeedExample) and fails
// the test on error.
func Seed(t *testing.T, graph *repository.Graph) repository.Example {
	t.Helper()

	ex, err := repository.SeedExample(context.Background(), graph)
	if err != nil {
		t.Fatalf("seed graph: %v", err)
	}
	return ex
}
