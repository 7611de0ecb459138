// Package browser renders storefront pages in headless Chrome for pages
// whose markup is filled in by script.
package browser

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"shipscore/utils"
)

// Renderer implements scraper.PageFetcher with a shared headless Chrome.
// Each FetchPage call opens its own tab.
type Renderer struct {
	logger  *utils.Logger
	wait    time.Duration
	timeout time.Duration

	cancelAlloc context.CancelFunc
	browserCtx  context.Context
	cancelTab   context.CancelFunc
}

// Options configures a Renderer.
type Options struct {
	ChromeBin string
	UserAgent string
	// Wait is how long to let the page settle after navigation.
	Wait    time.Duration
	Timeout time.Duration
}

// New starts a browser process. Close must be called to stop it.
func New(opts Options, logger *utils.Logger) (*Renderer, error) {
	chromeBin := opts.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if chromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)

	// Suppress chromedp log noise
	browserCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Start the browser now so a missing binary fails here, not mid-request.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("browser: start: %w", err)
	}

	return &Renderer{
		logger:      logger,
		wait:        opts.Wait,
		timeout:     opts.Timeout,
		cancelAlloc: cancelAlloc,
		browserCtx:  browserCtx,
		cancelTab:   cancelTab,
	}, nil
}

// FetchPage navigates a new tab to url and returns the rendered document.
func (r *Renderer) FetchPage(ctx context.Context, url string) (string, error) {
	tabCtx, cancel := chromedp.NewContext(r.browserCtx)
	defer cancel()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	// Stop the tab if the caller gives up first.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(r.wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("browser: render %s: %w", url, err)
	}

	r.logger.Debug("[browser] rendered %s (%d bytes)", url, len(html))
	return html, nil
}

// Close stops the browser.
func (r *Renderer) Close() {
	r.cancelTab()
	r.cancelAlloc()
}

// findChromeBinary looks for a Chrome or Chromium executable on PATH and in
// the usual install locations. An empty result lets chromedp use its default.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
