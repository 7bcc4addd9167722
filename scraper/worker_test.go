package scraper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"keyword-bid-analyzer/config"
	"keyword-bid-analyzer/logx"
	"keyword-bid-analyzer/models"
)

type fakeSession struct {
	navErrs    []error // consumed per Navigate call; nil past the end
	htmls      []string
	navCalls   int
	htmlCalls  int
	settleRuns int
}

func (f *fakeSession) Navigate(url string, timeout time.Duration) error {
	f.navCalls++
	if f.navCalls <= len(f.navErrs) {
		return f.navErrs[f.navCalls-1]
	}
	return nil
}

func (f *fakeSession) WaitSettle(timeout time.Duration) error {
	f.settleRuns++
	return nil
}

func (f *fakeSession) HTML() (string, error) {
	f.htmlCalls++
	if f.htmlCalls <= len(f.htmls) {
		return f.htmls[f.htmlCalls-1], nil
	}
	return noAdsHTML, nil
}

func (f *fakeSession) Close() {}

func testWorker(dev models.Device, session Session) (*Worker, *[]time.Duration) {
	cfg := config.Default()
	cfg.SerpPerSecond = 10000 // keep pacing out of unit tests
	w := NewWorker(dev, session, cfg, logx.Nop())

	var slept []time.Duration
	w.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return w, &slept
}

func TestWorkerExtractsSignalsPerKeyword(t *testing.T) {
	require := require.New(t)

	session := &fakeSession{htmls: []string{pcResultsHTML, pcResultsHTML}}
	w, _ := testWorker(models.DevicePC, session)

	var cancelled atomic.Bool
	var fractions []float64
	out := w.Run(context.Background(), []string{"CHAIR", "TABLE"}, &cancelled, func(f float64, _ string) {
		fractions = append(fractions, f)
	})

	require.Equal(models.AdSignals{BlockIndex: 2, LinkCount: 3}, out["CHAIR"])
	require.Equal(models.AdSignals{BlockIndex: 2, LinkCount: 3}, out["TABLE"])
	require.Equal([]float64{0.5, 1.0}, fractions)
}

func TestWorkerRetriesExtractionThenFallsBackToDefaults(t *testing.T) {
	require := require.New(t)

	// Every capture comes back without a sponsored section.
	session := &fakeSession{}
	w, slept := testWorker(models.DevicePC, session)

	var cancelled atomic.Bool
	out := w.Run(context.Background(), []string{"CHAIR"}, &cancelled, nil)

	require.Equal(models.DefaultAdSignals(models.DevicePC), out["CHAIR"])
	require.Equal(3, session.htmlCalls) // initial read + 2 retries
	require.Equal([]time.Duration{1 * time.Second, 2 * time.Second}, *slept)
}

func TestWorkerSecondExtractionAttemptCanSucceed(t *testing.T) {
	require := require.New(t)

	session := &fakeSession{htmls: []string{noAdsHTML, pcResultsHTML}}
	w, slept := testWorker(models.DevicePC, session)

	var cancelled atomic.Bool
	out := w.Run(context.Background(), []string{"CHAIR"}, &cancelled, nil)

	require.Equal(models.AdSignals{BlockIndex: 2, LinkCount: 3}, out["CHAIR"])
	require.Equal(2, session.htmlCalls)
	require.Equal([]time.Duration{1 * time.Second}, *slept)
}

func TestWorkerRetriesNavigationOnce(t *testing.T) {
	require := require.New(t)

	session := &fakeSession{
		navErrs: []error{errors.New("timeout")},
		htmls:   []string{mobileResultsHTML},
	}
	w, slept := testWorker(models.DeviceMobile, session)

	var cancelled atomic.Bool
	out := w.Run(context.Background(), []string{"CHAIR"}, &cancelled, nil)

	require.Equal(models.AdSignals{BlockIndex: 1, LinkCount: 2}, out["CHAIR"])
	require.Equal(2, session.navCalls)
	require.Contains(*slept, config.Default().NavRetryDelay)
}

func TestWorkerPersistentNavigationFailureYieldsDefaults(t *testing.T) {
	require := require.New(t)

	session := &fakeSession{navErrs: []error{errors.New("down"), errors.New("down")}}
	w, _ := testWorker(models.DeviceMobile, session)

	var cancelled atomic.Bool
	out := w.Run(context.Background(), []string{"CHAIR", "TABLE"}, &cancelled, nil)

	// First keyword fails into defaults; the stream continues to the next.
	require.Equal(models.DefaultAdSignals(models.DeviceMobile), out["CHAIR"])
	require.Contains(out, "TABLE")
}

func TestWorkerStopsAtCancellationFlag(t *testing.T) {
	require := require.New(t)

	session := &fakeSession{htmls: []string{pcResultsHTML}}
	w, _ := testWorker(models.DevicePC, session)

	var cancelled atomic.Bool
	cancelled.Store(true)
	out := w.Run(context.Background(), []string{"CHAIR", "TABLE"}, &cancelled, nil)

	require.Empty(out)
	require.Equal(0, session.navCalls)
}
