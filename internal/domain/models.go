package domain

import "time"

// DeviceClass identifies the kind of device a browsing identity simulates.
type DeviceClass string

const (
	DeviceMobile  DeviceClass = "mobile"
	DeviceDesktop DeviceClass = "desktop"
)

// Availability is the stock signal extracted from a listing page.
type Availability string

const (
	InStock    Availability = "in_stock"
	OutOfStock Availability = "out_of_stock"
	Unknown    Availability = "unknown"
)

// TrackedTarget is a registry row the crawler is asked to check.
// Rows are owned by the external CRUD layer; the crawler only reads them
// and writes back price/stock via the reconciler.
type TrackedTarget struct {
	ID          string
	Locator     string // direct page URL or a search identifier
	DisplayName string
}

// Viewport is the emulated screen size for one page visit.
type Viewport struct {
	Width  int64
	Height int64
}

// BrowsingIdentity is the simulated fingerprint for a single page visit.
// It is created per target and discarded when the tab closes.
type BrowsingIdentity struct {
	DeviceClass DeviceClass
	UserAgent   string
	Viewport    Viewport
	Locale      string
	Timezone    string
}

// ExtractionResult holds what the extractor could read off a listing page.
// A nil Price means "not found" and must never be written to the registry.
type ExtractionResult struct {
	Price        *float64
	Availability Availability
}

// ListingUpdate is the reconciler's write payload for one registry row.
// Stock is only persisted when it is not Unknown.
type ListingUpdate struct {
	Price     float64
	Stock     Availability
	CheckedAt time.Time
}

// CheckOutcome records how one target's check ended, for run-level reporting.
type CheckOutcome struct {
	TargetID      string
	Succeeded     bool
	FailureReason string
}
