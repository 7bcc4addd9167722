package analysis

import (
	"sort"

	"keyword-bid-analyzer/models"
)

// Alpha weights realized performance against theoretical opportunity in the
// hybrid score.
const Alpha = 0.7

// HybridScore blends a reality score (observed clicks per bid unit) with a
// potential score (volume-derived expected clicks per bid unit). Zero and
// MISSING inputs contribute nothing; the guards compare against zero, not
// the sentinel, and that distinction is load-bearing.
func HybridScore(stats models.DeviceStats) float64 {
	bid := float64(stats.MinExposureBid)

	reality := 0.0
	if stats.Clicks > 0 {
		reality = stats.Clicks / bid
	}
	potential := 0.0
	if stats.SearchVolume > 0 && stats.CTR > 0 {
		potential = (float64(stats.SearchVolume) * stats.CTR / 100) / bid
	}
	return Alpha*reality + (1-Alpha)*potential
}

// RankDevice assigns dense ranks 1..N for one device across the record set.
// Only keywords with a positive min exposure bid compete; everything else is
// left at rank -1. Ordering: hybrid score desc, search volume desc, min
// exposure bid asc, keyword asc. The function is idempotent over unchanged
// inputs and mutates rank fields in place.
func RankDevice(records map[string]*models.KeywordRecord, dev models.Device) {
	type scored struct {
		keyword string
		stats   *models.DeviceStats
		score   float64
	}

	candidates := make([]scored, 0, len(records))
	for keyword, rec := range records {
		stats := rec.Stats(dev)
		stats.Rank = models.Unranked
		if stats.MinExposureBid <= 0 {
			continue
		}
		candidates = append(candidates, scored{keyword: keyword, stats: stats, score: HybridScore(*stats)})
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.stats.SearchVolume != b.stats.SearchVolume {
			return a.stats.SearchVolume > b.stats.SearchVolume
		}
		if a.stats.MinExposureBid != b.stats.MinExposureBid {
			return a.stats.MinExposureBid < b.stats.MinExposureBid
		}
		return a.keyword < b.keyword
	})

	for i := range candidates {
		candidates[i].stats.Rank = i + 1
	}
}

// Rank ranks both devices independently.
func Rank(records map[string]*models.KeywordRecord) {
	RankDevice(records, models.DevicePC)
	RankDevice(records, models.DeviceMobile)
}
