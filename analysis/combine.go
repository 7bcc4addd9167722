package analysis

import (
	"keyword-bid-analyzer/models"
	"keyword-bid-analyzer/searchad"
)

// KeywordData is one keyword's raw collector output: API statistics plus the
// per-device bid ladders.
type KeywordData struct {
	Stats      searchad.KeywordStats
	PCBids     []models.BidPosition
	MobileBids []models.BidPosition
}

// Combine merges the three collection streams into one record per keyword.
// Only keywords present in the stats output produce records — a keyword the
// statistics API never answered for is excluded entirely, not emitted with
// MISSING fields. Keywords absent from a navigation stream (cancelled runs)
// fall back to device defaults. onResult, when non-nil, fires exactly once
// per combined record.
func Combine(
	data map[string]KeywordData,
	pcSignals, mobileSignals map[string]models.AdSignals,
	onResult func(*models.KeywordRecord),
) map[string]*models.KeywordRecord {
	out := make(map[string]*models.KeywordRecord, len(data))
	for keyword, d := range data {
		rec := combineOne(keyword, d, pcSignals, mobileSignals)
		out[keyword] = rec
		if onResult != nil {
			onResult(rec)
		}
	}
	return out
}

func combineOne(keyword string, d KeywordData, pcSignals, mobileSignals map[string]models.AdSignals) *models.KeywordRecord {
	rec := &models.KeywordRecord{Keyword: keyword}

	rec.PC = deviceStats(
		d.Stats.PCVolume, d.Stats.PCClicks, d.Stats.PCCtr,
		d.PCBids, signalsOr(pcSignals, keyword, models.DevicePC),
	)
	rec.Mobile = deviceStats(
		d.Stats.MobileVolume, d.Stats.MobileClicks, d.Stats.MobileCtr,
		d.MobileBids, signalsOr(mobileSignals, keyword, models.DeviceMobile),
	)
	return rec
}

func signalsOr(signals map[string]models.AdSignals, keyword string, dev models.Device) models.AdSignals {
	if s, ok := signals[keyword]; ok {
		return s
	}
	return models.DefaultAdSignals(dev)
}

func deviceStats(volume int, clicks, ctr float64, bids []models.BidPosition, sig models.AdSignals) models.DeviceStats {
	ds := models.DeviceStats{
		SearchVolume:     volume,
		Clicks:           clicks,
		CTR:              ctr,
		FirstPageSlots:   sig.LinkCount,
		FirstPositionBid: models.MissingInt,
		MinExposureBid:   models.MissingInt,
		BidPositions:     bids,
		Rank:             models.Unranked,
	}
	if len(bids) > 0 {
		ds.FirstPositionBid = bids[0].BidPrice
		ds.MinExposureBid = MinExposureBid(bids, sig.LinkCount)
	}
	return ds
}
