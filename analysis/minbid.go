package analysis

import "keyword-bid-analyzer/models"

// FloorBid is the platform's minimum chargeable bid. Ladders routinely
// bottom out at this value, sometimes as a data artifact rather than a real
// market price.
const FloorBid = 70

// MinExposureBid estimates the minimum bid that still places an ad within
// the first cutoff positions of the ladder. A floor-priced last slot is
// treated as suspect: when the slot above it is more than 10x the floor the
// floor value is discarded as an anomaly, and only ladders that are at least
// half floor-priced are accepted as genuinely low-competition. The
// thresholds are empirical; keep them as they are.
func MinExposureBid(ladder []models.BidPosition, cutoff int) int {
	if cutoff > len(ladder) {
		cutoff = len(ladder)
	}
	if cutoff < 0 {
		cutoff = 0
	}
	relevant := ladder[:cutoff]
	if len(relevant) == 0 {
		return 0
	}

	lastPrice := relevant[len(relevant)-1].BidPrice
	if lastPrice != FloorBid || len(relevant) < 2 {
		return lastPrice
	}

	hasNonFloor := false
	for _, p := range relevant[:len(relevant)-1] {
		if p.BidPrice > FloorBid {
			hasNonFloor = true
			break
		}
	}
	if !hasNonFloor {
		return lastPrice
	}

	secondLast := relevant[len(relevant)-2].BidPrice
	if float64(secondLast)/FloorBid > 10 {
		return secondLast
	}

	floorCount := 0
	for _, p := range relevant {
		if p.BidPrice == FloorBid {
			floorCount++
		}
	}
	if floorCount >= len(relevant)/2 {
		return FloorBid
	}
	return secondLast
}
