package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"keyword-bid-analyzer/models"
)

func record(kw string, pc models.DeviceStats) *models.KeywordRecord {
	return &models.KeywordRecord{Keyword: kw, PC: pc, Mobile: models.DeviceStats{
		SearchVolume: models.MissingInt,
		Clicks:       models.MissingFloat,
		CTR:          models.MissingFloat,
		Rank:         models.Unranked,
	}}
}

func TestRankOrdersByHybridScore(t *testing.T) {
	require := require.New(t)

	records := map[string]*models.KeywordRecord{
		"CHEAP":  record("CHEAP", models.DeviceStats{MinExposureBid: 100, Clicks: 50, SearchVolume: 1000, CTR: 2}),
		"PRICEY": record("PRICEY", models.DeviceStats{MinExposureBid: 1000, Clicks: 50, SearchVolume: 1000, CTR: 2}),
	}

	RankDevice(records, models.DevicePC)

	require.Equal(1, records["CHEAP"].PC.Rank)
	require.Equal(2, records["PRICEY"].PC.Rank)
}

func TestRankTieBreakOrder(t *testing.T) {
	require := require.New(t)

	// All four have zero clicks/volume, so every hybrid score is 0 and the
	// secondary keys decide.
	records := map[string]*models.KeywordRecord{
		"BBB": record("BBB", models.DeviceStats{MinExposureBid: 100, SearchVolume: 500}),
		"AAA": record("AAA", models.DeviceStats{MinExposureBid: 100, SearchVolume: 500}),
		"CCC": record("CCC", models.DeviceStats{MinExposureBid: 50, SearchVolume: 500}),
		"DDD": record("DDD", models.DeviceStats{MinExposureBid: 100, SearchVolume: 900}),
	}

	RankDevice(records, models.DevicePC)

	// Higher volume first, then lower bid, then lexical order.
	require.Equal(1, records["DDD"].PC.Rank)
	require.Equal(2, records["CCC"].PC.Rank)
	require.Equal(3, records["AAA"].PC.Rank)
	require.Equal(4, records["BBB"].PC.Rank)
}

func TestRankExcludesNonPositiveMinExposureBid(t *testing.T) {
	require := require.New(t)

	records := map[string]*models.KeywordRecord{
		"LIVE":    record("LIVE", models.DeviceStats{MinExposureBid: 100, Clicks: 5}),
		"ZERO":    record("ZERO", models.DeviceStats{MinExposureBid: 0, Clicks: 5}),
		"MISSING": record("MISSING", models.DeviceStats{MinExposureBid: models.MissingInt, Clicks: 5}),
	}

	RankDevice(records, models.DevicePC)

	require.Equal(1, records["LIVE"].PC.Rank)
	require.Equal(models.Unranked, records["ZERO"].PC.Rank)
	require.Equal(models.Unranked, records["MISSING"].PC.Rank)
}

func TestRankIsIdempotent(t *testing.T) {
	require := require.New(t)

	records := map[string]*models.KeywordRecord{
		"A": record("A", models.DeviceStats{MinExposureBid: 100, Clicks: 9}),
		"B": record("B", models.DeviceStats{MinExposureBid: 100, Clicks: 5}),
		"C": record("C", models.DeviceStats{MinExposureBid: 0}),
	}

	RankDevice(records, models.DevicePC)
	first := map[string]int{}
	for k, r := range records {
		first[k] = r.PC.Rank
	}

	RankDevice(records, models.DevicePC)
	for k, r := range records {
		require.Equal(first[k], r.PC.Rank, k)
	}
}

func TestRankDevicesIndependently(t *testing.T) {
	require := require.New(t)

	rec := &models.KeywordRecord{
		Keyword: "A",
		PC:      models.DeviceStats{MinExposureBid: 100, Clicks: 5},
		Mobile:  models.DeviceStats{MinExposureBid: 0},
	}
	records := map[string]*models.KeywordRecord{"A": rec}

	Rank(records)

	require.Equal(1, rec.PC.Rank)
	require.Equal(models.Unranked, rec.Mobile.Rank)
}

func TestHybridScoreZeroVersusMissingGuards(t *testing.T) {
	require := require.New(t)

	// MISSING clicks (-1) and zero clicks must behave identically: both
	// contribute no reality score.
	missing := models.DeviceStats{MinExposureBid: 100, Clicks: models.MissingFloat, SearchVolume: 1000, CTR: 2}
	zero := models.DeviceStats{MinExposureBid: 100, Clicks: 0, SearchVolume: 1000, CTR: 2}
	require.Equal(HybridScore(zero), HybridScore(missing))

	// potential = (1000 * 2 / 100) / 100 = 0.2; hybrid = 0.3 * 0.2
	require.InDelta(0.06, HybridScore(zero), 1e-9)

	with := models.DeviceStats{MinExposureBid: 100, Clicks: 10, SearchVolume: 1000, CTR: 2}
	// reality = 10/100 = 0.1; hybrid = 0.7*0.1 + 0.3*0.2
	require.InDelta(0.13, HybridScore(with), 1e-9)
}
