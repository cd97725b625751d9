package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sniper/internal/config"
	"sniper/internal/domain"
	"sniper/internal/identity"
	"sniper/internal/monitoring"
)

// registry is the slice of the storage layer a batch run needs.
type registry interface {
	LoadTrackingTargets(ctx context.Context) ([]domain.TrackedTarget, error)
	UpdateListing(ctx context.Context, id string, upd domain.ListingUpdate) error
}

// CheckCache is the optional recently-checked skip cache.
type CheckCache interface {
	IsRecentlyChecked(ctx context.Context, targetID string) (bool, error)
	MarkChecked(ctx context.Context, targetID string, ttl time.Duration) error
}

// listingFetcher performs one full page visit for a target.
type listingFetcher interface {
	FetchListing(ctx context.Context, target domain.TrackedTarget, ident domain.BrowsingIdentity) (domain.ExtractionResult, error)
}

// Sniper runs one batch pass over every actively tracked target: fresh
// identity, page visit, extraction and reconciliation per target, strictly
// sequentially. One target's failure never reaches another; a fixed
// spacing delay caps the outbound request rate regardless of per-target
// latency.
type Sniper struct {
	cfg      *config.Config
	registry registry
	cache    CheckCache // nil when the skip cache is disabled
	fetcher  listingFetcher
	picker   *identity.Picker
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

func NewSniper(cfg *config.Config, reg registry, cache CheckCache, fetcher listingFetcher, picker *identity.Picker, m *monitoring.Metrics, logger *zap.Logger) *Sniper {
	return &Sniper{
		cfg:      cfg,
		registry: reg,
		cache:    cache,
		fetcher:  fetcher,
		picker:   picker,
		metrics:  m,
		logger:   logger,
	}
}

// Run loads the tracking batch and checks every target. Only a registry
// read failure is fatal; everything downstream is per-target.
func (s *Sniper) Run(ctx context.Context) error {
	targets, err := s.registry.LoadTrackingTargets(ctx)
	if err != nil {
		return fmt.Errorf("loading tracking targets: %w", err)
	}
	if len(targets) == 0 {
		s.logger.Info("no targets to check")
		return nil
	}
	s.logger.Info("loaded tracking targets", zap.Int("count", len(targets)))

	var succeeded, failed int
	spacing := time.Duration(s.cfg.TargetSpacingMs) * time.Millisecond

	for i, target := range targets {
		if s.skipRecentlyChecked(ctx, target) {
			s.metrics.IncChecks("skipped")
			continue
		}

		outcome := s.checkTarget(ctx, target)
		if outcome.Succeeded {
			succeeded++
			s.metrics.IncChecks("success")
			s.logger.Info("check succeeded", zap.String("target", target.DisplayName))
		} else {
			failed++
			s.metrics.IncChecks("failed")
			s.logger.Warn("check failed",
				zap.String("target", target.DisplayName),
				zap.String("reason", outcome.FailureReason))
		}

		// Spacing applies after success and failure alike.
		if i < len(targets)-1 && spacing > 0 {
			time.Sleep(spacing)
		}
	}

	s.logger.Info("batch run finished",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", failed),
		zap.Int("total", len(targets)))
	return nil
}

// checkTarget runs the per-target pipeline and converts any failure into
// an outcome at this boundary; nothing unwinds past it.
func (s *Sniper) checkTarget(ctx context.Context, target domain.TrackedTarget) domain.CheckOutcome {
	ident := s.picker.Pick()
	s.logger.Info("checking target",
		zap.String("target", target.DisplayName),
		zap.String("locator", target.Locator),
		zap.String("device_class", string(ident.DeviceClass)),
		zap.String("user_agent", ident.UserAgent))

	result, err := s.fetcher.FetchListing(ctx, target, ident)
	if err != nil {
		s.metrics.IncFailures("navigation_failed")
		return domain.CheckOutcome{
			TargetID:      target.ID,
			FailureReason: fmt.Sprintf("navigation failed: %v", err),
		}
	}

	return s.reconcile(ctx, target, result)
}

// reconcile writes the extraction result back to the registry. With no
// price there is nothing trustworthy to write: the stored price must never
// be zeroed out by a failed check.
func (s *Sniper) reconcile(ctx context.Context, target domain.TrackedTarget, result domain.ExtractionResult) domain.CheckOutcome {
	if result.Price == nil {
		s.metrics.IncFailures("price_not_found")
		return domain.CheckOutcome{TargetID: target.ID, FailureReason: "price not found"}
	}

	upd := domain.ListingUpdate{
		Price:     *result.Price,
		Stock:     result.Availability,
		CheckedAt: time.Now().UTC(),
	}
	if err := s.registry.UpdateListing(ctx, target.ID, upd); err != nil {
		s.metrics.IncFailures("db_update_failed")
		return domain.CheckOutcome{
			TargetID:      target.ID,
			FailureReason: fmt.Sprintf("storage update failed: %v", err),
		}
	}

	s.logger.Info("listing updated",
		zap.String("target", target.DisplayName),
		zap.Float64("price", *result.Price),
		zap.String("availability", string(result.Availability)))

	s.markChecked(ctx, target)
	return domain.CheckOutcome{TargetID: target.ID, Succeeded: true}
}

func (s *Sniper) skipRecentlyChecked(ctx context.Context, target domain.TrackedTarget) bool {
	if s.cache == nil || s.cfg.RecheckWindowHours <= 0 {
		return false
	}
	recent, err := s.cache.IsRecentlyChecked(ctx, target.ID)
	if err != nil {
		s.logger.Error("failed to query check cache", zap.String("target", target.DisplayName), zap.Error(err))
		return false
	}
	if recent {
		s.logger.Info("skipping recently checked target", zap.String("target", target.DisplayName))
	}
	return recent
}

func (s *Sniper) markChecked(ctx context.Context, target domain.TrackedTarget) {
	if s.cache == nil || s.cfg.RecheckWindowHours <= 0 {
		return
	}
	ttl := time.Duration(s.cfg.RecheckWindowHours) * time.Hour
	if err := s.cache.MarkChecked(ctx, target.ID, ttl); err != nil {
		s.logger.Error("failed to mark target as checked", zap.String("target", target.DisplayName), zap.Error(err))
	}
}
