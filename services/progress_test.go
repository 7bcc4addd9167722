package services

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"keyword-bid-analyzer/models"
)

func TestProgressSinkMapsFractionIntoStageRange(t *testing.T) {
	require := require.New(t)

	var got []models.Progress
	sink := &progressSink{emit: func(p models.Progress) { got = append(got, p) }}

	sink.report(StageAPI, 0, "a", "")
	sink.report(StageAPI, 0.5, "b", "")
	sink.report(StageAPI, 1, "c", "")

	require.Equal([]int{10, 25, 40}, []int{got[0].Percentage, got[1].Percentage, got[2].Percentage})
	require.Equal("api", got[0].Stage)
}

func TestProgressSinkSuppressesBackwardEmissions(t *testing.T) {
	require := require.New(t)

	var got []int
	sink := &progressSink{emit: func(p models.Progress) { got = append(got, p.Percentage) }}

	// The mobile stream can race ahead of the pc stream; once 70 was seen,
	// a late pc report below it must be swallowed.
	sink.report(StageMobile, 0.2, "m", "")
	sink.report(StagePC, 0.1, "p", "")
	sink.report(StageMobile, 0.4, "m", "")

	require.Equal([]int{70, 75}, got)
}

func TestProgressSinkClampsFraction(t *testing.T) {
	require := require.New(t)

	var got []int
	sink := &progressSink{emit: func(p models.Progress) { got = append(got, p.Percentage) }}

	sink.report(StageCombine, 1.7, "", "")
	require.Equal([]int{100}, got)
}

func TestProgressSinkMonotonicUnderConcurrentWriters(t *testing.T) {
	require := require.New(t)

	var mu sync.Mutex
	var got []int
	sink := &progressSink{emit: func(p models.Progress) {
		mu.Lock()
		got = append(got, p.Percentage)
		mu.Unlock()
	}}

	stages := []Stage{StageAPI, StagePC, StageMobile}
	var wg sync.WaitGroup
	for _, stage := range stages {
		wg.Add(1)
		go func(st Stage) {
			defer wg.Done()
			for i := 0; i <= 100; i++ {
				sink.report(st, float64(i)/100, "kw", "")
			}
		}(stage)
	}
	wg.Wait()

	require.True(sort.IntsAreSorted(got), "progress went backwards: %v", got)
}
