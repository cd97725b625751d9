package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"sniper/internal/config"
	"sniper/internal/domain"
	"sniper/internal/identity"
	"sniper/internal/monitoring"
)

// promauto registers against the default registry, so the metrics are
// created once for the whole test binary.
var testMetrics = monitoring.NewMetrics()

func testConfig() *config.Config {
	return &config.Config{
		SearchBaseURL:   "https://example.com/s",
		TargetSpacingMs: 0,
		ReadDelayMinMs:  0,
		ReadDelayMaxMs:  0,
	}
}

// Simple in-memory registry for testing.
type fakeRegistry struct {
	targets    []domain.TrackedTarget
	loadErr    error
	updates    map[string]domain.ListingUpdate
	failUpdate map[string]error
}

func newFakeRegistry(targets ...domain.TrackedTarget) *fakeRegistry {
	return &fakeRegistry{
		targets:    targets,
		updates:    make(map[string]domain.ListingUpdate),
		failUpdate: make(map[string]error),
	}
}

func (r *fakeRegistry) LoadTrackingTargets(ctx context.Context) ([]domain.TrackedTarget, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.targets, nil
}

func (r *fakeRegistry) UpdateListing(ctx context.Context, id string, upd domain.ListingUpdate) error {
	if err := r.failUpdate[id]; err != nil {
		return err
	}
	r.updates[id] = upd
	return nil
}

// fakeFetcher returns canned results or errors per target id.
type fakeFetcher struct {
	results map[string]domain.ExtractionResult
	errs    map[string]error
	visited []string
}

func (f *fakeFetcher) FetchListing(ctx context.Context, target domain.TrackedTarget, ident domain.BrowsingIdentity) (domain.ExtractionResult, error) {
	f.visited = append(f.visited, target.ID)
	if err := f.errs[target.ID]; err != nil {
		return domain.ExtractionResult{Availability: domain.Unknown}, err
	}
	return f.results[target.ID], nil
}

type fakeCache struct {
	recent map[string]bool
	marked map[string]time.Duration
}

func (c *fakeCache) IsRecentlyChecked(ctx context.Context, targetID string) (bool, error) {
	return c.recent[targetID], nil
}

func (c *fakeCache) MarkChecked(ctx context.Context, targetID string, ttl time.Duration) error {
	if c.marked == nil {
		c.marked = make(map[string]time.Duration)
	}
	c.marked[targetID] = ttl
	return nil
}

func price(v float64) *float64 { return &v }

func target(id string) domain.TrackedTarget {
	return domain.TrackedTarget{ID: id, Locator: "https://example.com/" + id, DisplayName: "target " + id}
}

func newTestSniper(reg *fakeRegistry, cache CheckCache, fetcher *fakeFetcher, cfg *config.Config) *Sniper {
	if cfg == nil {
		cfg = testConfig()
	}
	return NewSniper(cfg, reg, cache, fetcher, identity.NewPickerWithSeed(7), testMetrics, zap.NewNop())
}

func TestRunIsolatesTargetFailures(t *testing.T) {
	reg := newFakeRegistry(target("a"), target("b"), target("c"))
	fetcher := &fakeFetcher{
		results: map[string]domain.ExtractionResult{
			"a": {Price: price(100), Availability: domain.InStock},
			"c": {Price: price(300), Availability: domain.OutOfStock},
		},
		errs: map[string]error{
			"b": errors.New("navigation timeout"),
		},
	}

	s := newTestSniper(reg, nil, fetcher, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(fetcher.visited) != 3 {
		t.Errorf("visited %d targets, want 3", len(fetcher.visited))
	}
	if _, ok := reg.updates["a"]; !ok {
		t.Error("target a was not updated")
	}
	if _, ok := reg.updates["c"]; !ok {
		t.Error("target c was not updated despite b failing before it")
	}
	if _, ok := reg.updates["b"]; ok {
		t.Error("failed target b must not be updated")
	}
}

func TestNilPriceNeverWrites(t *testing.T) {
	reg := newFakeRegistry(target("a"))
	fetcher := &fakeFetcher{
		results: map[string]domain.ExtractionResult{
			"a": {Price: nil, Availability: domain.Unknown},
		},
	}

	s := newTestSniper(reg, nil, fetcher, nil)
	outcome := s.checkTarget(context.Background(), target("a"))

	if outcome.Succeeded {
		t.Error("outcome should be a failure when no price was found")
	}
	if outcome.FailureReason != "price not found" {
		t.Errorf("failure reason = %q, want %q", outcome.FailureReason, "price not found")
	}
	if len(reg.updates) != 0 {
		t.Errorf("registry was written to %d times, want 0", len(reg.updates))
	}
}

func TestStorageFailureIsPerTarget(t *testing.T) {
	reg := newFakeRegistry(target("a"), target("b"))
	reg.failUpdate["a"] = errors.New("connection reset")
	fetcher := &fakeFetcher{
		results: map[string]domain.ExtractionResult{
			"a": {Price: price(100), Availability: domain.InStock},
			"b": {Price: price(200), Availability: domain.InStock},
		},
	}

	s := newTestSniper(reg, nil, fetcher, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("a per-target storage failure must not fail the run: %v", err)
	}

	if _, ok := reg.updates["b"]; !ok {
		t.Error("target b was not updated after a's storage failure")
	}
}

func TestRegistryLoadFailureIsFatal(t *testing.T) {
	reg := newFakeRegistry()
	reg.loadErr = errors.New("registry unreachable")

	s := newTestSniper(reg, nil, &fakeFetcher{}, nil)
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("Run should fail when the registry cannot be read")
	}
}

func TestEmptyBatchIsNotAnError(t *testing.T) {
	s := newTestSniper(newFakeRegistry(), nil, &fakeFetcher{}, nil)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("empty batch returned error: %v", err)
	}
}

func TestUnknownAvailabilityIsPassedThrough(t *testing.T) {
	// The storage layer drops the stock column for Unknown; the
	// orchestrator must hand it through unmodified.
	reg := newFakeRegistry(target("a"))
	fetcher := &fakeFetcher{
		results: map[string]domain.ExtractionResult{
			"a": {Price: price(150), Availability: domain.Unknown},
		},
	}

	s := newTestSniper(reg, nil, fetcher, nil)
	outcome := s.checkTarget(context.Background(), target("a"))

	if !outcome.Succeeded {
		t.Fatalf("check failed: %s", outcome.FailureReason)
	}
	upd, ok := reg.updates["a"]
	if !ok {
		t.Fatal("no registry write recorded")
	}
	if upd.Stock != domain.Unknown {
		t.Errorf("stock = %s, want %s", upd.Stock, domain.Unknown)
	}
	if upd.Price != 150 {
		t.Errorf("price = %v, want 150", upd.Price)
	}
}

func TestRecentlyCheckedTargetsAreSkipped(t *testing.T) {
	reg := newFakeRegistry(target("a"), target("b"))
	fetcher := &fakeFetcher{
		results: map[string]domain.ExtractionResult{
			"b": {Price: price(200), Availability: domain.InStock},
		},
	}
	cache := &fakeCache{recent: map[string]bool{"a": true}}

	cfg := testConfig()
	cfg.RecheckWindowHours = 6

	s := newTestSniper(reg, cache, fetcher, cfg)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for _, id := range fetcher.visited {
		if id == "a" {
			t.Error("recently checked target a was visited")
		}
	}
	if _, ok := reg.updates["b"]; !ok {
		t.Error("target b was not updated")
	}
	if ttl := cache.marked["b"]; ttl != 6*time.Hour {
		t.Errorf("target b marked with ttl %v, want 6h", ttl)
	}
}
