package identity

import (
	"testing"

	"sniper/internal/domain"
)

func TestDeviceClassSplit(t *testing.T) {
	p := NewPickerWithSeed(1)

	const samples = 10000
	var mobile int
	for i := 0; i < samples; i++ {
		if p.Pick().DeviceClass == domain.DeviceMobile {
			mobile++
		}
	}

	frac := float64(mobile) / samples
	if frac < 0.45 || frac > 0.55 {
		t.Errorf("mobile fraction %f outside [0.45, 0.55]", frac)
	}
}

func TestPickIsConsistentPerClass(t *testing.T) {
	p := NewPickerWithSeed(42)

	for i := 0; i < 1000; i++ {
		ident := p.Pick()

		pool, ok := userAgents[ident.DeviceClass]
		if !ok {
			t.Fatalf("unexpected device class %q", ident.DeviceClass)
		}
		if !contains(pool, ident.UserAgent) {
			t.Errorf("user agent %q not in %s pool", ident.UserAgent, ident.DeviceClass)
		}
		if ident.Viewport != viewports[ident.DeviceClass] {
			t.Errorf("viewport %+v does not match device class %s", ident.Viewport, ident.DeviceClass)
		}
		if ident.Locale == "" || ident.Timezone == "" {
			t.Error("identity missing locale or timezone")
		}
	}
}

func TestPoolSizes(t *testing.T) {
	for class, pool := range userAgents {
		if len(pool) < 5 {
			t.Errorf("%s pool has %d user agents, want at least 5", class, len(pool))
		}
	}
}

func contains(pool []string, s string) bool {
	for _, ua := range pool {
		if ua == s {
			return true
		}
	}
	return false
}
