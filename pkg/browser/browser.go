// Package browser launches isolated headless Chrome sessions through
// chromedp. Each session owns its own browser process and is never shared.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"igfeed/pkg/config"
	"igfeed/pkg/extract"
	"igfeed/pkg/logger"
)

// Session is one live browser tab
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitReady(ctx context.Context) error
	// DismissDialog closes a modal dialog if one is showing and reports
	// whether there was one.
	DismissDialog(ctx context.Context) (bool, error)
	ScrollHeight(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
	Snapshot(ctx context.Context) (extract.Snapshot, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// SessionFactory hands out fresh sessions
type SessionFactory interface {
	Acquire(ctx context.Context) (Session, error)
}

// Chrome launches chromedp sessions in local or packaged mode
type Chrome struct {
	cfg    config.BrowserConfig
	mode   string
	logger logger.Logger
}

// NewChrome resolves the launch mode once and returns a factory
func NewChrome(cfg config.BrowserConfig, log logger.Logger) *Chrome {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Chrome{
		cfg:    cfg,
		mode:   cfg.ResolvedBrowserMode(),
		logger: log.WithField("component", "browser"),
	}
}

// Mode returns the resolved launch mode
func (c *Chrome) Mode() string {
	return c.mode
}

// Flags returns the command line switches passed to Chrome
func (c *Chrome) Flags() map[string]interface{} {
	flags := map[string]interface{}{
		"headless":    c.cfg.Headless,
		"disable-gpu": true,
	}
	if c.mode == config.BrowserModePackaged {
		for _, f := range []string{"no-sandbox", "disable-setuid-sandbox", "single-process", "no-zygote", "disable-dev-shm-usage"} {
			flags[f] = true
		}
	}
	return flags
}

func (c *Chrome) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range c.Flags() {
		opts = append(opts, chromedp.Flag(name, value))
	}
	opts = append(opts,
		chromedp.UserAgent(c.cfg.UserAgent),
		chromedp.WindowSize(c.cfg.ViewportWidth, c.cfg.ViewportHeight),
	)
	if c.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.cfg.ExecPath))
	}
	return opts
}

// AcceptLanguage pins page language so stat labels render in English
const AcceptLanguage = "en-US,en;q=0.9"

// prepareTab sets viewport and request headers on a fresh tab
func (c *Chrome) prepareTab() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return err
		}
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return err
		}
		if err := network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": AcceptLanguage}).Do(ctx); err != nil {
			return err
		}
		return chromedp.EmulateViewport(int64(c.cfg.ViewportWidth), int64(c.cfg.ViewportHeight)).Do(ctx)
	})
}

// Acquire starts a new browser process. The browser outlives ctx and is
// released by Session.Close; ctx only bounds the launch.
func (c *Chrome) Acquire(ctx context.Context) (Session, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), c.allocatorOptions()...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...interface{}) {
		c.logger.Debug(fmt.Sprintf(format, args...))
	}))

	stop := context.AfterFunc(ctx, tabCancel)
	start := time.Now()
	err := chromedp.Run(tabCtx, c.prepareTab())
	stop()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser (%s mode): %w", c.mode, err)
	}

	c.logger.DebugWithFields("Browser launched", map[string]interface{}{
		"mode":     c.mode,
		"duration": time.Since(start),
	})

	return &chromeSession{
		cfg:         c.cfg,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}, nil
}

type chromeSession struct {
	cfg         config.BrowserConfig
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc
}

// run executes actions on the tab, bounded by ctx and an optional timeout
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.tabCtx)
	defer cancel()
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

const (
	// fired once no more than two connections stayed open for 500ms
	networkIdleEvent = "networkAlmostIdle"
	// pages that keep polling never go idle
	networkIdleWait = 10 * time.Second
)

// Navigate loads url and then waits for network activity to settle
func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	idle := make(chan struct{})
	var once sync.Once
	armed := false

	listenCtx, stopListening := context.WithCancel(s.tabCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev interface{}) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case "init":
			armed = true
		case networkIdleEvent:
			if armed {
				once.Do(func() { close(idle) })
			}
		}
	})

	waitIdle := chromedp.ActionFunc(func(ctx context.Context) error {
		timer := time.NewTimer(networkIdleWait)
		defer timer.Stop()
		select {
		case <-idle:
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	return s.run(ctx, s.cfg.NavigationTimeout, chromedp.Navigate(url), waitIdle)
}

func (s *chromeSession) WaitReady(ctx context.Context) error {
	return s.run(ctx, s.cfg.ReadyTimeout, chromedp.WaitReady("img", chromedp.ByQuery))
}

func (s *chromeSession) DismissDialog(ctx context.Context) (bool, error) {
	var outcome string
	if err := s.run(ctx, 0, chromedp.Evaluate(dismissScript, &outcome)); err != nil {
		return false, err
	}
	switch outcome {
	case "none":
		return false, nil
	case "outside":
		return true, s.run(ctx, 0, chromedp.MouseClickXY(10, 10))
	default:
		return true, nil
	}
}

func (s *chromeSession) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	err := s.run(ctx, 0, chromedp.Evaluate(scrollHeightScript, &height))
	return height, err
}

func (s *chromeSession) ScrollToBottom(ctx context.Context) error {
	return s.run(ctx, 0, chromedp.Evaluate(scrollToBottomScript, nil))
}

func (s *chromeSession) Snapshot(ctx context.Context) (extract.Snapshot, error) {
	var snap extract.Snapshot
	err := s.run(ctx, 0, chromedp.Evaluate(snapshotScript, &snap))
	return snap, err
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, 0, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

// Close shuts the browser down gracefully, then kills the allocator
func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.tabCtx)
	s.tabCancel()
	s.allocCancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}
