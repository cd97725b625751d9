package crawler

import (
	"fmt"
	"testing"

	"sniper/internal/domain"
)

func listingHTML(body string) string {
	return fmt.Sprintf(`<!DOCTYPE html><html><head><title>listing</title></head><body>%s</body></html>`, body)
}

func TestParseListingPriceAndCartFallback(t *testing.T) {
	// Indian-style digit grouping, no availability text, add-to-cart present.
	html := listingHTML(`
		<span class="a-price-whole">1,23,456</span>
		<input id="add-to-cart-button" type="submit">`)

	res := ParseListing(html)

	if res.Price == nil {
		t.Fatal("expected a price, got nil")
	}
	if *res.Price != 123456 {
		t.Errorf("price = %v, want 123456", *res.Price)
	}
	if res.Availability != domain.InStock {
		t.Errorf("availability = %s, want %s", res.Availability, domain.InStock)
	}
}

func TestParseListingNoPrice(t *testing.T) {
	res := ParseListing(listingHTML(`<div>search results, nothing useful</div>`))

	if res.Price != nil {
		t.Errorf("price = %v, want nil", *res.Price)
	}
	if res.Availability != domain.Unknown {
		t.Errorf("availability = %s, want %s", res.Availability, domain.Unknown)
	}
}

func TestParseListingUnparseablePrice(t *testing.T) {
	res := ParseListing(listingHTML(`<span class="a-price-whole">Currently unavailable</span>`))

	if res.Price != nil {
		t.Errorf("price = %v, want nil for unparseable text", *res.Price)
	}
}

func TestParseListingAvailabilityText(t *testing.T) {
	cases := []struct {
		name string
		body string
		want domain.Availability
	}{
		{
			name: "in stock via availability span",
			body: `<div id="availability"><span>In Stock.</span></div>`,
			want: domain.InStock,
		},
		{
			name: "out of stock via availability span",
			body: `<div id="availability"><span>Currently Out of Stock</span></div>`,
			want: domain.OutOfStock,
		},
		{
			name: "case insensitive substring",
			body: `<span class="a-color-success">only 2 left in stock</span>`,
			want: domain.InStock,
		},
		{
			name: "unrecognized text falls through to cart control",
			body: `<div id="availability"><span>Ships in 3 days</span></div><input id="buy-now-button">`,
			want: domain.InStock,
		},
		{
			name: "no signal at all",
			body: `<div id="availability"><span>Ships in 3 days</span></div>`,
			want: domain.Unknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := ParseListing(listingHTML(tc.body))
			if res.Availability != tc.want {
				t.Errorf("availability = %s, want %s", res.Availability, tc.want)
			}
		})
	}
}

func TestStripPriceText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1,23,456", "123456"},
		{"₹1,299", "1299"},
		{"$ 99.99", "99.99"},
		{"1,234.", "1234"},
		{" 2 499 ", "2499"},
	}

	for _, tc := range cases {
		if got := stripPriceText(tc.in); got != tc.want {
			t.Errorf("stripPriceText(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsDirectURL(t *testing.T) {
	cases := []struct {
		locator string
		want    bool
	}{
		{"https://www.amazon.in/dp/B0EXAMPLE", true},
		{"http://example.com/listing", true},
		{"B0EXAMPLE12", false},
		{"wireless headphones", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := isDirectURL(tc.locator); got != tc.want {
			t.Errorf("isDirectURL(%q) = %v, want %v", tc.locator, got, tc.want)
		}
	}
}
