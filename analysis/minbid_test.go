package analysis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"keyword-bid-analyzer/models"
)

func ladder(prices ...int) []models.BidPosition {
	out := make([]models.BidPosition, len(prices))
	for i, p := range prices {
		out[i] = models.BidPosition{Position: i + 1, BidPrice: p}
	}
	return out
}

func TestMinExposureBidAnomalousFloorUsesSecondLast(t *testing.T) {
	// 900/70 > 10, so the trailing floor price is a data anomaly.
	require.Equal(t, 900, MinExposureBid(ladder(1000, 900, 70), 3))
}

func TestMinExposureBidAllFloorIsGenuinelyCheap(t *testing.T) {
	require.Equal(t, 70, MinExposureBid(ladder(70, 70, 70), 3))
}

func TestMinExposureBidEmptyLadder(t *testing.T) {
	require.Equal(t, 0, MinExposureBid(nil, 5))
	require.Equal(t, 0, MinExposureBid(ladder(100, 90), 0))
}

func TestMinExposureBidPlainLastPrice(t *testing.T) {
	require.Equal(t, 310, MinExposureBid(ladder(800, 500, 310), 3))
}

func TestMinExposureBidCutoffSlicesLadder(t *testing.T) {
	require.Equal(t, 500, MinExposureBid(ladder(800, 500, 310), 2))
	// Cutoff past the end clamps to the full ladder.
	require.Equal(t, 310, MinExposureBid(ladder(800, 500, 310), 10))
}

func TestMinExposureBidHalfFloorKeepsFloor(t *testing.T) {
	// secondLast 300/70 <= 10 and two of four entries are floor-priced.
	require.Equal(t, 70, MinExposureBid(ladder(400, 70, 300, 70), 4))
}

func TestMinExposureBidMinorityFloorCorrectsToSecondLast(t *testing.T) {
	// Only one floor entry among five and secondLast 200/70 <= 10.
	require.Equal(t, 200, MinExposureBid(ladder(500, 400, 300, 200, 70), 5))
}

func TestMinExposureBidSingleFloorEntry(t *testing.T) {
	require.Equal(t, 70, MinExposureBid(ladder(70), 1))
}
