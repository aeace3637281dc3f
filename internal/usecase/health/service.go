// Package health aggregates dependency checks into a single report.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docrag/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckUnconfigured marks an optional component without credentials. It does not degrade the status.
	CheckUnconfigured CheckResult = "unconfigured"
)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Records int // -1 when the index could not be counted
}

// Service coordinates health checks.
type Service struct {
	db         DBPinger
	embedding  EmbeddingChecker
	index      IndexCounter
	generation GenerationChecker
	timeout    time.Duration
}

// New creates a Service. Every dependency except db can be nil.
func New(db DBPinger, embedding EmbeddingChecker, index IndexCounter, generation GenerationChecker) *Service {
	return &Service{
		db:         db,
		embedding:  embedding,
		index:      index,
		generation: generation,
		timeout:    DefaultCheckTimeout,
	}
}

// Check runs the dependency checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	log := logger.FromContext(ctx)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var mu sync.Mutex
	checks := make(map[string]CheckResult)
	records := -1
	set := func(name string, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Warn("health check failed", zap.String("component", name), zap.Error(err))
			checks[name] = CheckError
			return
		}
		checks[name] = CheckOK
	}

	var g errgroup.Group
	g.Go(func() error {
		set("database", s.db.Ping(ctx))
		return nil
	})
	if s.embedding != nil {
		g.Go(func() error {
			set("embedding", s.embedding.HealthCheck(ctx))
			return nil
		})
	}
	if s.index != nil {
		g.Go(func() error {
			n, err := s.index.Count(ctx)
			set("index", err)
			if err == nil {
				mu.Lock()
				records = n
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if s.generation != nil {
		if s.generation.Configured() {
			checks["generation"] = CheckOK
		} else {
			checks["generation"] = CheckUnconfigured
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	return Report{Status: status, Checks: checks, Records: records}
}
