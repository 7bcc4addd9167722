package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"keyword-bid-analyzer/analysis"
	"keyword-bid-analyzer/models"
	"keyword-bid-analyzer/ratelimit"
	"keyword-bid-analyzer/retry"
	"keyword-bid-analyzer/searchad"
)

// statsCollector fans per-keyword API fetches across a small worker pool.
// Every request goes through the shared adaptive limiter; the whole
// per-keyword fetch (stats plus both bid ladders) is one retryable unit.
type statsCollector struct {
	client   searchad.StatsClient
	limiter  *ratelimit.Limiter
	policy   retry.Policy
	workers  int
	bidDepth int
	log      *zap.SugaredLogger
}

type keywordResult struct {
	keyword string
	data    analysis.KeywordData
	err     error
}

// Collect fetches statistics for every keyword and returns the per-keyword
// data plus the count of keywords that exhausted their retries. A failed
// keyword is omitted from the output, never emitted with partial data.
func (c *statsCollector) Collect(ctx context.Context, keywords []string, cancelled *atomic.Bool, progress func(fraction float64, keyword string)) (map[string]analysis.KeywordData, int) {
	workers := c.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(keywords) {
		workers = len(keywords)
	}

	jobs := make(chan string)
	results := make(chan keywordResult, len(keywords))
	var done atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for keyword := range jobs {
				if cancelled.Load() || ctx.Err() != nil {
					continue
				}
				data, err := c.fetchKeyword(ctx, keyword)
				results <- keywordResult{keyword: keyword, data: data, err: err}
				if progress != nil {
					progress(float64(done.Add(1))/float64(len(keywords)), keyword)
				}
			}
		}()
	}

	go func() {
		for _, keyword := range keywords {
			jobs <- keyword
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	out := make(map[string]analysis.KeywordData, len(keywords))
	failed := 0
	for res := range results {
		if res.err != nil {
			c.log.Warnf("[api] %s: dropped after retries: %v", res.keyword, res.err)
			failed++
			continue
		}
		out[res.keyword] = res.data
	}
	return out, failed
}

// fetchKeyword performs the full per-keyword fetch: statistics, then one bid
// ladder per device (the API rejects a combined request).
func (c *statsCollector) fetchKeyword(ctx context.Context, keyword string) (analysis.KeywordData, error) {
	upper := strings.ToUpper(keyword)
	positions := make([]int, c.bidDepth)
	for i := range positions {
		positions[i] = i + 1
	}

	var data analysis.KeywordData
	err := retry.Do(ctx, c.policy, func() error {
		stats, err := limitedCall(ctx, c, func() (searchad.KeywordStats, error) {
			return c.client.KeywordStats(ctx, upper)
		})
		if err != nil {
			return err
		}

		pcBids, err := limitedCall(ctx, c, func() ([]models.BidPosition, error) {
			return c.client.BidEstimates(ctx, upper, models.DevicePC, positions)
		})
		if err != nil {
			return err
		}

		mobileBids, err := limitedCall(ctx, c, func() ([]models.BidPosition, error) {
			return c.client.BidEstimates(ctx, upper, models.DeviceMobile, positions)
		})
		if err != nil {
			return err
		}

		data = analysis.KeywordData{Stats: stats, PCBids: pcBids, MobileBids: mobileBids}
		return nil
	})
	return data, err
}

// limitedCall serializes one API call through the shared limiter and feeds
// the outcome back into it. Every call reports individually, success and
// failure alike, so the delay adapts at the same granularity in both
// directions.
func limitedCall[T any](ctx context.Context, c *statsCollector, call func() (T, error)) (T, error) {
	var zero T
	if err := c.limiter.Wait(ctx); err != nil {
		return zero, err
	}
	v, err := call()
	if err != nil {
		var rle *searchad.RateLimitedError
		if errors.As(err, &rle) {
			c.limiter.OnRateLimited(rle.RetryAfter, rle.HasRetryAfter)
		} else if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			c.limiter.OnError()
		}
		return zero, err
	}
	c.limiter.OnSuccess()
	return v, nil
}
