package crawler

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"sniper/internal/config"
	"sniper/internal/domain"
)

// First-result selector on the retail site's search page. Matches the
// broad keyword-search flow: whatever listing the site ranks first wins,
// even if it is not the exact product.
const searchResultSelector = `[data-asin]`

// navStage says which page a search-flow session ended up on.
type navStage int

const (
	stageDetailLoaded navStage = iota // clicked through to a product page
	stageSearchLoaded                 // drill-down failed, still on results page
)

// Browser owns the shared headless-chrome allocator and performs one full
// page visit per target: fresh tab context, identity overrides, navigation,
// reading delay, extraction. The allocator lives for the whole batch; each
// visit's context is always cancelled on that visit's exit path.
type Browser struct {
	cfg       *config.Config
	logger    *zap.Logger
	extractor *Extractor
	allocCtx  context.Context
	allocStop context.CancelFunc
	rng       *rand.Rand
}

func NewBrowser(cfg *config.Config, logger *zap.Logger) *Browser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", ""),
		chromedp.Flag("disable-dev-shm-usage", ""),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Browser{
		cfg:       cfg,
		logger:    logger,
		extractor: NewExtractor(cfg, logger),
		allocCtx:  allocCtx,
		allocStop: cancel,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Close tears down the allocator and every browser it spawned.
func (b *Browser) Close() {
	b.allocStop()
}

// FetchListing runs one complete visit for a target and returns whatever
// the extractor could read off the final page.
func (b *Browser) FetchListing(ctx context.Context, target domain.TrackedTarget, ident domain.BrowsingIdentity) (domain.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.ExtractionResult{Availability: domain.Unknown}, err
	}

	taskCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	if err := applyIdentity(taskCtx, ident); err != nil {
		return domain.ExtractionResult{Availability: domain.Unknown}, fmt.Errorf("applying browsing identity: %w", err)
	}

	if err := b.navigateToTarget(taskCtx, target); err != nil {
		return domain.ExtractionResult{Availability: domain.Unknown}, err
	}

	b.readingDelay()

	return b.extractor.ExtractListing(taskCtx, target.DisplayName)
}

// applyIdentity configures the tab to present this visit's fingerprint
// before any request goes out.
func applyIdentity(ctx context.Context, ident domain.BrowsingIdentity) error {
	return chromedp.Run(ctx,
		emulation.SetUserAgentOverride(ident.UserAgent).WithAcceptLanguage(ident.Locale),
		emulation.SetDeviceMetricsOverride(ident.Viewport.Width, ident.Viewport.Height, 1, ident.DeviceClass == domain.DeviceMobile),
		emulation.SetTimezoneOverride(ident.Timezone),
		emulation.SetLocaleOverride().WithLocale(ident.Locale),
	)
}

// navigateToTarget drives the session to the target's page. Direct URLs
// load under a hard timeout; identifier-only locators go through the
// search flow, which may legitimately end on the results page.
func (b *Browser) navigateToTarget(ctx context.Context, target domain.TrackedTarget) error {
	if isDirectURL(target.Locator) {
		navCtx, cancel := context.WithTimeout(ctx, time.Duration(b.cfg.NavTimeout)*time.Second)
		defer cancel()

		if err := chromedp.Run(navCtx,
			chromedp.Navigate(target.Locator),
			chromedp.WaitVisible("body", chromedp.ByQuery),
		); err != nil {
			return fmt.Errorf("loading %s: %w", target.Locator, err)
		}
		return nil
	}

	stage, err := b.navigateViaSearch(ctx, target.Locator)
	if err != nil {
		return err
	}
	if stage == stageSearchLoaded {
		b.logger.Info("drill-down failed, extracting from search page",
			zap.String("target", target.DisplayName),
			zap.String("identifier", target.Locator))
	}
	return nil
}

// navigateViaSearch loads a keyword search for the identifier and tries to
// click through to the first result. The click-through is best effort: if
// no result appears or the follow-on navigation stalls, the session stays
// on the results page and extraction works with what is there.
func (b *Browser) navigateViaSearch(ctx context.Context, identifier string) (navStage, error) {
	searchURL := fmt.Sprintf("%s?k=%s", b.cfg.SearchBaseURL, url.QueryEscape(identifier))

	loadCtx, cancel := context.WithTimeout(ctx, time.Duration(b.cfg.NavTimeout)*time.Second)
	defer cancel()
	if err := chromedp.Run(loadCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
	); err != nil {
		return stageSearchLoaded, fmt.Errorf("loading search page for %q: %w", identifier, err)
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, time.Duration(b.cfg.ResultWaitTimeout)*time.Second)
	defer cancelWait()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(searchResultSelector, chromedp.ByQuery)); err != nil {
		return stageSearchLoaded, nil
	}

	clickCtx, cancelClick := context.WithTimeout(ctx, time.Duration(b.cfg.ResultNavTimeout)*time.Second)
	defer cancelClick()
	if err := chromedp.Run(clickCtx,
		chromedp.Click(searchResultSelector, chromedp.ByQuery),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return stageSearchLoaded, nil
	}

	return stageDetailLoaded, nil
}

func isDirectURL(locator string) bool {
	u, err := url.Parse(locator)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
