package utils

import (
	"sort"

	"keyword-bid-analyzer/models"
)

type RunSummary struct {
	TotalKeywords  int
	PCRanked       int
	MobileRanked   int
	TopPCKeywords  []*models.KeywordRecord // by desktop rank, at most 5
	HighestVolume  *models.KeywordRecord   // by combined device volume
	CheapestMinBid *models.KeywordRecord   // lowest positive desktop min exposure bid
}

// BuildRunSummary condenses a record set into the numbers printed at the end
// of a run.
func BuildRunSummary(records map[string]*models.KeywordRecord) RunSummary {
	summary := RunSummary{TotalKeywords: len(records)}
	if len(records) == 0 {
		return summary
	}

	all := make([]*models.KeywordRecord, 0, len(records))
	for _, rec := range records {
		all = append(all, rec)
		if rec.PC.Rank != models.Unranked {
			summary.PCRanked++
		}
		if rec.Mobile.Rank != models.Unranked {
			summary.MobileRanked++
		}

		if summary.HighestVolume == nil ||
			totalVolume(rec) > totalVolume(summary.HighestVolume) {
			summary.HighestVolume = rec
		}
		if rec.PC.MinExposureBid > 0 &&
			(summary.CheapestMinBid == nil || rec.PC.MinExposureBid < summary.CheapestMinBid.PC.MinExposureBid) {
			summary.CheapestMinBid = rec
		}
	}

	ranked := make([]*models.KeywordRecord, 0, summary.PCRanked)
	for _, rec := range all {
		if rec.PC.Rank != models.Unranked {
			ranked = append(ranked, rec)
		}
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].PC.Rank < ranked[j].PC.Rank })
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	summary.TopPCKeywords = ranked

	return summary
}

func totalVolume(rec *models.KeywordRecord) int {
	total := 0
	if rec.PC.SearchVolume > 0 {
		total += rec.PC.SearchVolume
	}
	if rec.Mobile.SearchVolume > 0 {
		total += rec.Mobile.SearchVolume
	}
	return total
}
