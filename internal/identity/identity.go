package identity

import (
	"math/rand"
	"sync"
	"time"

	"sniper/internal/domain"
)

// User-agent pools keyed by device class. In production, refresh these as
// browser releases age out.
var userAgents = map[domain.DeviceClass][]string{
	domain.DeviceMobile: {
		"Mozilla/5.0 (iPhone; CPU iPhone OS 20_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/20.0 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 19_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/19.1 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 19_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/19.0 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 18_2 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.2 Mobile/15E148 Safari/604.1",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 18_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/18.0 Mobile/15E148 Safari/604.1",
	},
	domain.DeviceDesktop: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 11.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0",
	},
}

var viewports = map[domain.DeviceClass]domain.Viewport{
	domain.DeviceMobile:  {Width: 390, Height: 844},
	domain.DeviceDesktop: {Width: 1920, Height: 1080},
}

var timezones = []string{
	"America/New_York",
	"America/Chicago",
	"America/Los_Angeles",
}

// Picker hands out a randomized browsing identity per page visit.
// Picks are independent; repeats across targets are expected.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewPicker() *Picker {
	return &Picker{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewPickerWithSeed is used by tests that need deterministic picks.
func NewPickerWithSeed(seed int64) *Picker {
	return &Picker{rng: rand.New(rand.NewSource(seed))}
}

// Pick selects a device class 50/50, then a user agent uniformly from that
// class's pool, plus a matching viewport and a locale/timezone.
func (p *Picker) Pick() domain.BrowsingIdentity {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := domain.DeviceDesktop
	if p.rng.Intn(2) == 0 {
		class = domain.DeviceMobile
	}
	pool := userAgents[class]

	return domain.BrowsingIdentity{
		DeviceClass: class,
		UserAgent:   pool[p.rng.Intn(len(pool))],
		Viewport:    viewports[class],
		Locale:      "en-US",
		Timezone:    timezones[p.rng.Intn(len(timezones))],
	}
}
