package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"go.uber.org/zap"
)

// LaunchConfig holds Chrome launch settings
type LaunchConfig struct {
	// Bin is an explicit Chrome/Chromium binary; empty lets rod locate or download one
	Bin string
	// ControlURL connects to an already running Chrome instead of launching
	ControlURL string
	Headless   bool
}

// Chrome is a connected browser plus the launcher that owns its process
type Chrome struct {
	Browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewChromePool returns a pool that launches Chrome on first Acquire
func NewChromePool(cfg LaunchConfig, logger *zap.Logger) *Pool[*Chrome] {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("browser")
	return NewPool(openChrome(cfg, logger), closeChrome(logger))
}

func openChrome(cfg LaunchConfig, logger *zap.Logger) OpenFunc[*Chrome] {
	return func(ctx context.Context) (*Chrome, error) {
		if cfg.ControlURL != "" {
			wsURL, err := launcher.ResolveURL(cfg.ControlURL)
			if err != nil {
				return nil, fmt.Errorf("resolve control url: %w", err)
			}
			b := rod.New().ControlURL(wsURL)
			if err := b.Connect(); err != nil {
				return nil, fmt.Errorf("connect to chrome: %w", err)
			}
			logger.Info("connected to remote chrome", zap.String("control_url", cfg.ControlURL))
			return &Chrome{Browser: b}, nil
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Not bound to ctx: the process must outlive the request that launched it.
		// Containers rarely allow the chrome sandbox.
		l := launcher.New().
			Headless(cfg.Headless).
			NoSandbox(true).
			Set(flags.Flag("disable-dev-shm-usage")).
			Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}

		wsURL, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}

		b := rod.New().ControlURL(wsURL)
		if err := b.Connect(); err != nil {
			l.Kill()
			return nil, fmt.Errorf("connect to chrome: %w", err)
		}

		logger.Info("launched headless chrome", zap.Bool("headless", cfg.Headless))
		return &Chrome{Browser: b, launcher: l}, nil
	}
}

func closeChrome(logger *zap.Logger) CloseFunc[*Chrome] {
	return func(c *Chrome) error {
		if c == nil || c.launcher == nil {
			// remote browsers are not ours to close
			return nil
		}
		err := c.Browser.Close()
		c.launcher.Cleanup()
		logger.Info("chrome shut down", zap.Error(err))
		return err
	}
}
