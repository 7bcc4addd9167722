package utils

import (
	"context"

	"github.com/chromedp/chromedp"

	"keyword-bid-analyzer/config"
	"keyword-bid-analyzer/models"
)

// NewAllocator creates a Chrome exec allocator for one device. Desktop and
// mobile get their own user agent and viewport so each result page renders
// its device-specific ad layout.
func NewAllocator(parent context.Context, cfg config.Config, dev models.Device) (context.Context, context.CancelFunc) {
	ua := cfg.PCUserAgent
	width, height := 1440, 900
	if dev == models.DeviceMobile {
		ua = cfg.MobileUserAgent
		width, height = 390, 844
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(ua),
		chromedp.WindowSize(width, height),
	)
	return chromedp.NewExecAllocator(parent, opts...)
}
