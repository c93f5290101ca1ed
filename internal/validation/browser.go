package validation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Viewport is one of the fixed widths the rendered artifact is inspected at.
type Viewport struct {
	Name   string
	Width  int64
	Height int64
}

var defaultViewports = []Viewport{
	{Name: "mobile", Width: 375, Height: 667},
	{Name: "tablet", Width: 768, Height: 1024},
	{Name: "desktop", Width: 1280, Height: 800},
}

// ViewportOverflow records horizontal overflow at one viewport width.
type ViewportOverflow struct {
	Viewport    string
	Width       int64
	ScrollWidth int64
	ClientWidth int64
}

// RenderReport is the outcome of loading the artifact in a headless browser.
type RenderReport struct {
	ConsoleErrors    []string
	Overflows        []ViewportOverflow
	MissingAltImages int
	UnlabeledButtons int
	Screenshot       []byte
}

// Renderer loads an artifact in a browser and reports runtime findings.
type Renderer interface {
	Render(ctx context.Context, artifact string) (*RenderReport, error)
}

// ChromeRenderer drives an isolated headless Chrome instance per call. A
// weighted semaphore bounds how many browsers are alive at once; each
// instance is torn down on every exit path, including cancellation.
type ChromeRenderer struct {
	sem       *semaphore.Weighted
	timeout   time.Duration
	viewports []Viewport
	logger    *zap.Logger
}

const (
	DefaultMaxConcurrentRenders = 2
	DefaultRenderTimeout        = 30 * time.Second
)

func NewChromeRenderer(maxConcurrent int64, timeout time.Duration, logger *zap.Logger) *ChromeRenderer {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRenders
	}
	if timeout <= 0 {
		timeout = DefaultRenderTimeout
	}
	return &ChromeRenderer{
		sem:       semaphore.NewWeighted(maxConcurrent),
		timeout:   timeout,
		viewports: defaultViewports,
		logger:    logger,
	}
}

// Render loads the artifact as a standalone document and collects console
// errors, horizontal overflow at three viewport widths, baseline
// accessibility counts and a full-page screenshot.
func (r *ChromeRenderer) Render(ctx context.Context, artifact string) (*RenderReport, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire render slot: %w", err)
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	report := &RenderReport{}

	var mu sync.Mutex
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		switch e := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			if e.Type != runtime.APITypeError {
				return
			}
			mu.Lock()
			report.ConsoleErrors = append(report.ConsoleErrors, formatConsoleArgs(e.Args))
			mu.Unlock()
		case *runtime.EventExceptionThrown:
			mu.Lock()
			report.ConsoleErrors = append(report.ConsoleErrors, e.ExceptionDetails.Error())
			mu.Unlock()
		}
	})

	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, artifact).Do(ctx)
		}),
		// Give scripts a beat to run so console errors surface.
		chromedp.Sleep(500*time.Millisecond),
	)
	if err != nil {
		return nil, fmt.Errorf("load artifact: %w", err)
	}

	for _, vp := range r.viewports {
		var dims struct {
			ScrollWidth int64 `json:"scrollWidth"`
			ClientWidth int64 `json:"clientWidth"`
		}
		err := chromedp.Run(tabCtx,
			chromedp.EmulateViewport(vp.Width, vp.Height),
			chromedp.Evaluate(`({
				scrollWidth: document.documentElement.scrollWidth,
				clientWidth: document.documentElement.clientWidth,
			})`, &dims),
		)
		if err != nil {
			return nil, fmt.Errorf("inspect %s viewport: %w", vp.Name, err)
		}
		if dims.ScrollWidth > dims.ClientWidth {
			report.Overflows = append(report.Overflows, ViewportOverflow{
				Viewport:    vp.Name,
				Width:       vp.Width,
				ScrollWidth: dims.ScrollWidth,
				ClientWidth: dims.ClientWidth,
			})
		}
	}

	var a11y struct {
		MissingAlt       int `json:"missingAlt"`
		UnlabeledButtons int `json:"unlabeledButtons"`
	}
	err = chromedp.Run(tabCtx, chromedp.Evaluate(`({
		missingAlt: Array.from(document.querySelectorAll('img')).filter(i => !i.hasAttribute('alt')).length,
		unlabeledButtons: Array.from(document.querySelectorAll('button')).filter(b =>
			!b.textContent.trim() && !b.getAttribute('aria-label') && !b.getAttribute('title')).length,
	})`, &a11y))
	if err != nil {
		return nil, fmt.Errorf("accessibility checks: %w", err)
	}
	report.MissingAltImages = a11y.MissingAlt
	report.UnlabeledButtons = a11y.UnlabeledButtons

	if err := chromedp.Run(tabCtx, chromedp.FullScreenshot(&report.Screenshot, 80)); err != nil {
		// Screenshot only feeds the optional visual phase.
		if r.logger != nil {
			r.logger.Warn("screenshot capture failed", zap.Error(err))
		}
		report.Screenshot = nil
	}

	return report, nil
}

func formatConsoleArgs(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		if arg == nil {
			continue
		}
		if len(arg.Value) > 0 {
			parts = append(parts, string(arg.Value))
		} else if arg.Description != "" {
			parts = append(parts, arg.Description)
		}
	}
	if len(parts) == 0 {
		return "console.error called"
	}
	return strings.Join(parts, " ")
}
