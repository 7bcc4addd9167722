package scraper

import (
	"context"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"keyword-bid-analyzer/config"
	"keyword-bid-analyzer/models"
)

// extraction retries after a double-zero signal read, escalating delays.
var extractRetryDelays = []time.Duration{1 * time.Second, 2 * time.Second}

// Worker owns one device session and walks the keyword list sequentially.
// Concurrency exists only across the two device workers, never inside one.
type Worker struct {
	dev     models.Device
	session Session
	log     *zap.SugaredLogger

	urlTemplate   string
	navTimeout    time.Duration
	settleDelay   time.Duration
	navRetryDelay time.Duration
	pace          *rate.Limiter

	sleep func(context.Context, time.Duration) error
}

// NewWorker builds a navigation worker for one device.
func NewWorker(dev models.Device, session Session, cfg config.Config, log *zap.SugaredLogger) *Worker {
	tmpl := cfg.PCSearchURL
	if dev == models.DeviceMobile {
		tmpl = cfg.MobileSearchURL
	}
	return &Worker{
		dev:           dev,
		session:       session,
		log:           log,
		urlTemplate:   tmpl,
		navTimeout:    cfg.NavTimeout,
		settleDelay:   cfg.SettleDelay,
		navRetryDelay: cfg.NavRetryDelay,
		pace:          rate.NewLimiter(rate.Limit(cfg.SerpPerSecond), 1),
		sleep:         sleepCtx,
	}
}

// Run visits one result page per keyword and returns the extracted ad
// signals keyed by keyword. Per-keyword failures substitute device defaults
// and never abort the stream. The cancellation flag is polled before each
// keyword; in-flight work finishes.
func (w *Worker) Run(ctx context.Context, keywords []string, cancelled *atomic.Bool, progress func(fraction float64, keyword string)) map[string]models.AdSignals {
	tag := deviceTag(w.dev)
	out := make(map[string]models.AdSignals, len(keywords))

	for i, keyword := range keywords {
		if cancelled.Load() || ctx.Err() != nil {
			w.log.Infof("[%s] cancelled after %d/%d keywords", tag, i, len(keywords))
			break
		}
		if err := w.pace.Wait(ctx); err != nil {
			break
		}

		sig, err := w.analyze(keyword)
		if err != nil {
			w.log.Warnf("[%s] %s: %v — using device defaults", tag, keyword, err)
			sig = models.DefaultAdSignals(w.dev)
		}
		out[keyword] = sig

		if progress != nil {
			progress(float64(i+1)/float64(len(keywords)), keyword)
		}
		w.log.Debugf("[%s] %s → block %d, %d links (%d/%d)",
			tag, keyword, sig.BlockIndex, sig.LinkCount, i+1, len(keywords))
	}

	return out
}

// analyze navigates to the keyword's result page and extracts its signals.
func (w *Worker) analyze(keyword string) (models.AdSignals, error) {
	target := fmt.Sprintf(w.urlTemplate, url.QueryEscape(keyword))

	if err := w.session.Navigate(target, w.navTimeout); err != nil {
		// One local navigation retry after a short delay.
		_ = w.sleep(context.Background(), w.navRetryDelay)
		if err = w.session.Navigate(target, w.navTimeout); err != nil {
			return models.AdSignals{}, err
		}
	}

	if err := w.session.WaitSettle(w.settleDelay); err != nil {
		return models.AdSignals{}, err
	}

	sig, err := w.extract()
	if err != nil {
		return models.AdSignals{}, err
	}

	// A double zero usually means the ad section had not rendered yet.
	for attempt := 0; sig.BlockIndex == 0 && sig.LinkCount == 0 && attempt < len(extractRetryDelays); attempt++ {
		_ = w.sleep(context.Background(), extractRetryDelays[attempt])
		if sig, err = w.extract(); err != nil {
			return models.AdSignals{}, err
		}
	}
	if sig.BlockIndex == 0 && sig.LinkCount == 0 {
		return models.DefaultAdSignals(w.dev), nil
	}
	return sig, nil
}

func (w *Worker) extract() (models.AdSignals, error) {
	html, err := w.session.HTML()
	if err != nil {
		return models.AdSignals{}, err
	}
	return ExtractAdSignals(html, w.dev)
}

func deviceTag(dev models.Device) string {
	if dev == models.DeviceMobile {
		return "mobile"
	}
	return "pc"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
