// File: internal/browser/cdpdom/session.go
package cdpdom

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/prunact/internal/config"
)

const defaultPageLoadTimeout = 30 * time.Second

// DefaultAllocatorOptions returns the launch flags for a local Chrome.
func DefaultAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.Flag("mute-audio", true),
		chromedp.WindowSize(1600, 1000),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	return opts
}

// Session is one browser tab showing the game client.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	logger  *zap.Logger

	closeOnce sync.Once
}

// Launch attaches to the browser at cfg.RemoteURL, or starts one, and opens
// cfg.GameURL in a new tab. Attaching keeps the user's logged in profile,
// which is how the client is normally driven.
func Launch(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	log := logger.Named("browser")

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if cfg.RemoteURL != "" {
		log.Info("Attaching to remote browser", zap.String("url", cfg.RemoteURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
	} else {
		log.Info("Launching browser", zap.Bool("headless", cfg.Headless), zap.String("exec_path", cfg.ExecPath))
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, DefaultAllocatorOptions(cfg)...)
	}

	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Sugar().Debugf))
	s := &Session{ctx: tabCtx, cancels: []context.CancelFunc{tabCancel, allocCancel}, logger: log}

	timeout := cfg.PageLoadTimeout
	if timeout <= 0 {
		timeout = defaultPageLoadTimeout
	}
	navCtx, navCancel := context.WithTimeout(tabCtx, timeout)
	defer navCancel()

	actions := []chromedp.Action{}
	if cfg.GameURL != "" {
		actions = append(actions, chromedp.Navigate(cfg.GameURL), chromedp.WaitReady("body", chromedp.ByQuery))
	}
	if err := chromedp.Run(navCtx, actions...); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to open game client: %w", err)
	}
	return s, nil
}

// Context returns the tab context; chromedp actions run against it.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Driver returns a page driver for the tab.
func (s *Session) Driver(ratePerSecond float64, burst int) *Driver {
	return NewDriver(s.ctx, ratePerSecond, burst, s.logger)
}

// Close closes the tab and, when it was launched here, the browser.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session")
		for _, cancel := range s.cancels {
			cancel()
		}
	})
}
