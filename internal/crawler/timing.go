package crawler

import (
	"time"

	"go.uber.org/zap"
)

// readingDelay sleeps for a uniformly sampled duration inside the
// configured window before extraction, so the navigate-to-read latency
// isn't a fixed fingerprint. Runs on every visit, no early exit.
func (b *Browser) readingDelay() {
	lo, hi := b.cfg.ReadDelayMinMs, b.cfg.ReadDelayMaxMs
	if hi < lo {
		hi = lo
	}

	d := time.Duration(lo) * time.Millisecond
	if span := hi - lo; span > 0 {
		d += time.Duration(b.rng.Intn(span+1)) * time.Millisecond
	}
	if d <= 0 {
		return
	}

	b.logger.Debug("simulating reading delay", zap.Duration("wait", d))
	time.Sleep(d)
}
