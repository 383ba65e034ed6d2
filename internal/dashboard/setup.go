// Package dashboard serves the circuit map: an HTML page driving Leaflet plus the JSON
// API it reads from. Every request recomputes the pipeline over the cached snapshot.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/EmpoweredVote/EV-Circuits/internal/config"
	"github.com/EmpoweredVote/EV-Circuits/internal/logging"
	"github.com/EmpoweredVote/EV-Circuits/internal/pipeline"
	"github.com/EmpoweredVote/EV-Circuits/internal/sources"
)

// Service runs the pipeline over the memoized source snapshot.
type Service struct {
	cache    *sources.Cache
	election config.Election
	log      *zap.Logger
}

// NewService wraps cache for the given election mapping.
func NewService(cache *sources.Cache, e config.Election, log *zap.Logger) *Service {
	return &Service{cache: cache, election: e, log: log.Named("dashboard")}
}

// Init builds the loader, cache and service described by cfg.
func Init(cfg config.Config, log *zap.Logger) *Service {
	loader := sources.NewLoader(cfg.Sources, cfg.FetchTimeout, log)
	cache := sources.NewCache(loader, cfg.Sources.Key())
	log.Info("dashboard module initialized",
		zap.String("current", cfg.Sources.CurrentURL),
		zap.String("prior", cfg.Sources.PriorURL),
		zap.String("geometry", cfg.Sources.GeometryURL))
	return NewService(cache, cfg.Election, log)
}

// Election returns the party/column mapping in use.
func (s *Service) Election() config.Election { return s.election }

// Result returns the pipeline output for the current snapshot, loading it on first use.
func (s *Service) Result(ctx context.Context) (*pipeline.Result, error) {
	start := time.Now()

	snap, err := s.cache.Get(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.LogError(s.log, "load sources", err)
		}
		return nil, err
	}

	res, err := pipeline.Run(snap, s.election)
	if err != nil {
		logging.LogError(s.log, "pipeline", err)
		return nil, err
	}

	if res.Coverage.Mismatched() {
		s.log.Warn("circuit join mismatch",
			zap.String("snapshot", res.SnapshotID),
			zap.Int("matched", res.Coverage.Matched),
			zap.Int("geometry_only", res.Coverage.GeometryOnly),
			zap.Strings("metrics_only", res.Coverage.MetricsOnly))
	}
	logging.LogPipeline(s.log, res.SnapshotID, len(res.Circuits), res.Coverage.Matched, time.Since(start))
	return res, nil
}

// Refresh drops the cached snapshot and loads a fresh one.
func (s *Service) Refresh(ctx context.Context) (*pipeline.Result, error) {
	s.cache.Invalidate()
	s.log.Info("source cache invalidated")

	res, err := s.Result(ctx)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return res, nil
}
