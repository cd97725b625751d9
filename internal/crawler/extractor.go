package crawler

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"sniper/internal/config"
	"sniper/internal/domain"
)

// Selectors for the retail site's listing markup. Availability probes are
// tried in order; adding a probe is a data change, not a code change.
const priceSelector = ".a-price-whole"

var availabilityProbes = []string{
	"#availability span",
	".a-color-success",
	"#availability .a-color-state",
}

// Purchase-action controls, used as a weaker in-stock signal when no
// availability text resolves.
const cartSelector = "#add-to-cart-button, #buy-now-button"

// Extractor reads a price figure and an availability signal off the loaded
// page. DOM misses are data states (nil price, unknown stock), never
// errors; only losing the browser session itself fails an extraction.
type Extractor struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewExtractor(cfg *config.Config, logger *zap.Logger) *Extractor {
	return &Extractor{cfg: cfg, logger: logger}
}

// ExtractListing waits for the price element to render, then captures the
// page's HTML and parses it. A price element that never appears is
// tolerated: listing pages without one still get probed for availability.
func (e *Extractor) ExtractListing(ctx context.Context, displayName string) (domain.ExtractionResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, time.Duration(e.cfg.PriceWaitTimeout)*time.Second)
	err := chromedp.Run(waitCtx, chromedp.WaitVisible(priceSelector, chromedp.ByQuery))
	cancel()
	if err != nil {
		e.logger.Debug("price element did not appear", zap.String("target", displayName))
	}

	var htmlContent string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &htmlContent, chromedp.ByQuery)); err != nil {
		return domain.ExtractionResult{Availability: domain.Unknown}, err
	}

	result := ParseListing(htmlContent)
	if result.Price == nil {
		e.logger.Info("no price found on page", zap.String("target", displayName))
	}
	return result, nil
}

// ParseListing extracts price and availability from listing HTML.
func ParseListing(htmlContent string) domain.ExtractionResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return domain.ExtractionResult{Availability: domain.Unknown}
	}
	return domain.ExtractionResult{
		Price:        extractPrice(doc),
		Availability: extractAvailability(doc),
	}
}

// extractPrice reads the price element's text and parses it as a decimal.
// Missing element, empty text and unparseable text all yield nil.
func extractPrice(doc *goquery.Document) *float64 {
	text := strings.TrimSpace(doc.Find(priceSelector).First().Text())
	if text == "" {
		return nil
	}

	cleaned := stripPriceText(text)
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || price < 0 {
		return nil
	}
	return &price
}

// stripPriceText removes currency symbols, thousands separators and
// whitespace. The site renders the fraction separately, so a trailing
// decimal point is dropped too.
func stripPriceText(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSuffix(cleaned, ".")
}

// extractAvailability walks the probe chain: the first probe with
// recognizable stock text wins, otherwise the presence of a purchase
// control counts as in stock, otherwise the signal is unknown.
func extractAvailability(doc *goquery.Document) domain.Availability {
	for _, sel := range availabilityProbes {
		text := strings.ToLower(strings.TrimSpace(doc.Find(sel).First().Text()))
		if text == "" {
			continue
		}
		if strings.Contains(text, "out of stock") {
			return domain.OutOfStock
		}
		if strings.Contains(text, "in stock") {
			return domain.InStock
		}
	}

	if doc.Find(cartSelector).Length() > 0 {
		return domain.InStock
	}
	return domain.Unknown
}
