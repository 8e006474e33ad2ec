package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// ChromeFetcher renders pages in headless Chrome so content injected by
// scripts is present in the returned HTML.
type ChromeFetcher struct {
	Timeout          time.Duration
	WaitSelector     string
	NetworkIdleAfter time.Duration
}

func NewChromeFetcher(timeout time.Duration) *ChromeFetcher {
	return &ChromeFetcher{
		Timeout:          timeout,
		NetworkIdleAfter: 500 * time.Millisecond,
	}
}

func (f *ChromeFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if err := ValidateURL(pageURL); err != nil {
		return "", err
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	html, err := renderPageHTML(ctx, pageURL, timeout, f.WaitSelector, f.NetworkIdleAfter)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", pageURL, err)
	}
	return html, nil
}

// renderPageHTML launches a headless browser, waits for readiness and network idle, then returns HTML
func renderPageHTML(parent context.Context, urlStr string, timeout time.Duration, waitSelector string, networkIdleAfter time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(browserUserAgent),
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var html string

	// Step 1: Navigate
	if err := chromedp.Run(browserCtx, chromedp.Navigate(urlStr)); err != nil {
		return "", err
	}

	// Step 2: Quick ready check (soft-fail)
	if stepCtx, cancelStep := context.WithTimeout(browserCtx, 10*time.Second); true {
		defer cancelStep()
		_ = chromedp.Run(stepCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	// Step 3: Optional selector wait (soft-fail)
	if waitSelector != "" {
		if stepCtx, cancelStep := context.WithTimeout(browserCtx, 15*time.Second); true {
			defer cancelStep()
			_ = chromedp.Run(stepCtx, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
		}
	}

	// Step 4: Optional network idle (soft-fail, cap to 5s)
	if networkIdleAfter > 0 {
		idleCap := networkIdleAfter
		if idleCap > 5*time.Second {
			idleCap = 5 * time.Second
		}
		if stepCtx, cancelStep := context.WithTimeout(browserCtx, idleCap+1*time.Second); true {
			defer cancelStep()
			_ = chromedp.Run(stepCtx, waitForNetworkIdle(idleCap))
		}
	}

	// Step 5: Always attempt to read HTML
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// waitForNetworkIdle waits until no network requests are in flight for the given duration
func waitForNetworkIdle(d time.Duration) chromedp.ActionFunc {
	// Heuristic implemented in the page: track last network activity via PerformanceObserver
	js := `(function(waitMs){
      return new Promise((resolve)=>{
        if (!('PerformanceObserver' in window)) {
          setTimeout(resolve, waitMs);
          return;
        }
        let last = Date.now();
        const obs = new PerformanceObserver(()=>{ last = Date.now(); });
        try { obs.observe({entryTypes:['resource','navigation']}); } catch(e) {}
        const tick = () => {
          if (Date.now()-last >= waitMs) { try { obs.disconnect(); } catch(e){} resolve(); return; }
          setTimeout(tick, 100);
        };
        tick();
      });
    })(%d);`
	return func(ctx context.Context) error {
		return chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(js, int(d.Milliseconds())), nil,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}))
	}
}
