package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Session is one long-lived page/navigation context. A session belongs to
// exactly one worker for the run's duration; its underlying browser state
// (cookies, navigation context) is not safe for concurrent use.
type Session interface {
	Navigate(url string, timeout time.Duration) error
	WaitSettle(timeout time.Duration) error
	HTML() (string, error)
	Close()
}

// TabSession drives a dedicated browser tab via chromedp.
type TabSession struct {
	tab    context.Context
	cancel context.CancelFunc
}

// NewTabSession opens a tab under the given allocator context.
func NewTabSession(allocCtx context.Context, logf func(string, ...interface{})) *TabSession {
	var opts []chromedp.ContextOption
	if logf != nil {
		opts = append(opts, chromedp.WithLogf(logf))
	}
	tab, cancel := chromedp.NewContext(allocCtx, opts...)
	return &TabSession{tab: tab, cancel: cancel}
}

func (s *TabSession) Navigate(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()

	if err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(PageReadySelector, chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *TabSession) WaitSettle(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(s.tab, timeout+time.Second)
	defer cancel()

	// Result pages fill their ad sections after load; a fixed settle sleep
	// matches how the markup actually behaves better than readiness events.
	if err := chromedp.Run(ctx, chromedp.Sleep(timeout)); err != nil {
		return fmt.Errorf("settle wait: %w", err)
	}
	return nil
}

func (s *TabSession) HTML() (string, error) {
	ctx, cancel := context.WithTimeout(s.tab, 10*time.Second)
	defer cancel()

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture page html: %w", err)
	}
	return html, nil
}

func (s *TabSession) Close() {
	s.cancel()
}
