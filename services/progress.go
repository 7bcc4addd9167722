package services

import (
	"sync"

	"keyword-bid-analyzer/models"
)

// Stage is a named slice of the overall progress range.
type Stage struct {
	Label string
	Start int
	End   int
}

// The five run stages and their fixed percentage ranges.
var (
	StageInit    = Stage{Label: "init", Start: 0, End: 10}
	StageAPI     = Stage{Label: "api", Start: 10, End: 40}
	StagePC      = Stage{Label: "pc", Start: 40, End: 65}
	StageMobile  = Stage{Label: "mobile", Start: 65, End: 90}
	StageCombine = Stage{Label: "combine", Start: 90, End: 100}
)

// progressSink maps per-stage fractions onto the overall percentage and
// guarantees the emitted sequence is monotonic non-decreasing even with the
// three streams reporting concurrently. lastEmitted is guarded by one lock;
// emission happens under it so concurrent writers cannot reorder.
type progressSink struct {
	mu   sync.Mutex
	last int
	emit func(models.Progress)
}

func (s *progressSink) report(stage Stage, fraction float64, keyword, detail string) {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	actual := stage.Start + int(fraction*float64(stage.End-stage.Start))

	s.mu.Lock()
	defer s.mu.Unlock()
	if actual < s.last {
		return
	}
	s.last = actual
	if s.emit != nil {
		s.emit(models.Progress{
			Percentage: actual,
			Keyword:    keyword,
			Stage:      stage.Label,
			Detail:     detail,
		})
	}
}
