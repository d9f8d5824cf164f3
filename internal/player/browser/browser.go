// Package browser opens the player page in a Chromium window controlled
// through go-rod.
package browser

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
)

// Window is a launched browser showing one page.
type Window struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Options control how the browser is launched.
type Options struct {
	Headless bool
	Bin      string // browser binary, downloaded by rod when empty
	Timeout  time.Duration
}

// Open launches a browser and navigates it to url.
func Open(url string, opts Options) (*Window, error) {
	l := launcher.New().Headless(opts.Headless)
	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}
	// Autoplay would otherwise need a user gesture in the tab.
	l = l.Set(flags.Flag("autoplay-policy"), "no-user-gesture-required")

	control, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(control)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	w := &Window{launcher: l, browser: b}
	if err := w.navigate(url, opts.Timeout); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

func (w *Window) navigate(url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	page, err := w.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("creating page: %w", err)
	}
	w.page = page
	p := page.Timeout(timeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s: %w", url, err)
	}
	return nil
}

// Close shuts the browser down. It is safe to call on a partially opened
// window.
func (w *Window) Close() {
	if w.page != nil {
		w.page.Close()
	}
	if w.browser != nil {
		w.browser.Close()
	}
	if w.launcher != nil {
		w.launcher.Cleanup()
	}
}
