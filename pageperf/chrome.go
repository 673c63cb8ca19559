package pageperf

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
)

const (
	viewportWidth  = 1366
	viewportHeight = 768
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	networkIdleWindow = 500 * time.Millisecond
)

// metricsScript is evaluated against the loaded page with awaitPromise. It
// resolves as soon as both FCP and LCP have been observed, or after 5
// seconds, whichever comes first; unresolved values stay 0. FCP is read once
// from the paint entries already present and is not retried. LCP candidates
// can be superseded, so the last entry observed wins. Without user input
// there is no first-input entry, and the interactivity value falls back to
// the time elapsed since evaluation began - a best-effort approximation.
const metricsScript = `new Promise((resolve) => {
	const startedAt = performance.now();
	const result = {
		domContentLoaded: 0,
		firstContentfulPaint: 0,
		largestContentfulPaint: 0,
		timeToInteractive: 0,
	};

	const nav = performance.getEntriesByType('navigation')[0];
	if (nav) {
		result.domContentLoaded = nav.domContentLoadedEventEnd - nav.startTime;
	}

	const fcp = performance.getEntriesByType('paint').find((entry) => entry.name === 'first-contentful-paint');
	if (fcp) {
		result.firstContentfulPaint = fcp.startTime;
	}

	let settled = false;
	const settle = () => {
		if (settled) {
			return;
		}
		settled = true;
		if (result.timeToInteractive === 0) {
			result.timeToInteractive = performance.now() - startedAt;
		}
		resolve(result);
	};
	const settleIfComplete = () => {
		if (result.firstContentfulPaint > 0 && result.largestContentfulPaint > 0) {
			settle();
		}
	};

	try {
		new PerformanceObserver((list) => {
			const entries = list.getEntries();
			if (entries.length > 0) {
				result.largestContentfulPaint = entries[entries.length - 1].startTime;
			}
			settleIfComplete();
		}).observe({ type: 'largest-contentful-paint', buffered: true });

		new PerformanceObserver((list) => {
			const first = list.getEntries()[0];
			if (first) {
				result.timeToInteractive = first.processingStart;
			}
		}).observe({ type: 'first-input', buffered: true });
	} catch (err) {
		// Entry types unsupported; the timeout path settles.
	}

	setTimeout(settle, 5000);
	settleIfComplete();
})`

// idleTracker watches CDP network events and signals once no request has
// been in flight for the quiet window.
type idleTracker struct {
	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	timer    *time.Timer
	once     sync.Once
	idle     chan struct{}
}

// trackNetworkIdle must be installed before the navigation starts; the
// document request itself is the first event that arms the tracker.
func trackNetworkIdle(ctx context.Context, window time.Duration) <-chan struct{} {
	tracker := &idleTracker{
		inflight: map[network.RequestID]struct{}{},
		idle:     make(chan struct{}),
	}
	tracker.timer = time.AfterFunc(window, func() {
		tracker.once.Do(func() { close(tracker.idle) })
	})

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch event := ev.(type) {
		case *network.EventRequestWillBeSent:
			tracker.begin(event.RequestID)
		case *network.EventLoadingFinished:
			tracker.end(event.RequestID, window)
		case *network.EventLoadingFailed:
			tracker.end(event.RequestID, window)
		}
	})

	return tracker.idle
}

func (t *idleTracker) begin(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.inflight[id] = struct{}{}
	t.timer.Stop()
}

func (t *idleTracker) end(id network.RequestID, window time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.inflight, id)
	if len(t.inflight) == 0 {
		t.timer.Reset(window)
	}
}

// ChromeBrowser implements Browser on top of a headless Chrome instance
// driven over the DevTools protocol.
type ChromeBrowser struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChromeBrowser prepares a headless Chrome allocator. The browser process
// launches lazily with the first browsing context, so launch failures
// surface from OpenContext.
func NewChromeBrowser(ctx context.Context) *ChromeBrowser {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)

	return &ChromeBrowser{allocCtx: allocCtx, cancel: cancel}
}

func (b *ChromeBrowser) OpenContext(_ context.Context, cfg *RunConfig) (BrowsingContext, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)

	// A fresh jar for this simulated user. Pages opened from this context
	// share the cleared state for the duration of the session.
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.ClearBrowserCookies(),
		network.ClearBrowserCache(),
	); err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not initialise browsing context")
	}

	return &chromeContext{ctx: tabCtx, cancel: cancel, cfg: cfg}, nil
}

func (b *ChromeBrowser) Close() error {
	b.cancel()
	return nil
}

type chromeContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *RunConfig
}

func (c *chromeContext) OpenPage(_ context.Context) (Page, error) {
	pageCtx, cancel := chromedp.NewContext(c.ctx)

	// Emulation is per target, so viewport, user agent and throttling are
	// applied to every page rather than once per session.
	tasks := chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(userAgent),
		chromedp.EmulateViewport(viewportWidth, viewportHeight),
	}
	if c.cfg.Throttle.Enabled {
		tasks = append(tasks, network.EmulateNetworkConditions(
			false,
			float64(c.cfg.Throttle.LatencyMS),
			kbpsToBytesPerSecond(c.cfg.Throttle.DownloadKbps),
			kbpsToBytesPerSecond(c.cfg.Throttle.UploadKbps),
		))
	}

	if err := chromedp.Run(pageCtx, tasks); err != nil {
		cancel()
		return nil, errors.Wrap(err, "could not prepare page")
	}

	return &chromePage{ctx: pageCtx, cancel: cancel}, nil
}

func (c *chromeContext) Close() error {
	c.cancel()
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	idle := trackNetworkIdle(p.ctx, networkIdleWindow)

	if err := chromedp.Run(p.ctx, chromedp.Navigate(url)); err != nil {
		return errors.Wrap(err, "navigation failed")
	}

	select {
	case <-idle:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *chromePage) CollectMetrics(_ context.Context) (*PageMetrics, error) {
	metrics := &PageMetrics{}

	err := chromedp.Run(p.ctx, chromedp.Evaluate(metricsScript, metrics, func(params *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
		return params.WithAwaitPromise(true)
	}))
	if err != nil {
		return nil, errors.Wrap(err, "metrics evaluation failed")
	}

	return metrics, nil
}

func (p *chromePage) Close() error {
	p.cancel()
	return nil
}

func kbpsToBytesPerSecond(kbps int) float64 {
	return float64(kbps) * 1000 / 8
}
