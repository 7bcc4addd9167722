package models

import "time"

// Sentinel values marking "not collected". Zero is a legitimate value for
// every metric, so absence is encoded out-of-band.
const (
	MissingInt   = -1
	MissingFloat = -1.0

	// Unranked keywords keep Rank at -1.
	Unranked = -1
)

// Device identifies which search surface a metric belongs to.
type Device string

const (
	DevicePC     Device = "PC"
	DeviceMobile Device = "MOBILE"
)

// BidPosition is one entry of a per-device bid ladder, ordered by Position
// ascending.
type BidPosition struct {
	Position int `json:"position"`
	BidPrice int `json:"bidPrice"`
}

// DeviceStats holds every per-device field of a keyword record.
type DeviceStats struct {
	SearchVolume     int           `json:"searchVolume"`
	Clicks           float64       `json:"clicks"`
	CTR              float64       `json:"ctr"`
	FirstPageSlots   int           `json:"firstPageSlots"`
	FirstPositionBid int           `json:"firstPositionBid"`
	MinExposureBid   int           `json:"minExposureBid"`
	BidPositions     []BidPosition `json:"bidPositions"`
	Rank             int           `json:"rank"`
}

// KeywordRecord is the combined analysis result for one keyword. Records
// exist only for keywords the statistics API returned data for; a keyword
// whose stats fetch failed permanently is dropped, never emitted with
// MISSING fields.
type KeywordRecord struct {
	Keyword string      `json:"keyword"`
	PC      DeviceStats `json:"pc"`
	Mobile  DeviceStats `json:"mobile"`
}

// Stats returns the per-device stats for dev.
func (r *KeywordRecord) Stats(dev Device) *DeviceStats {
	if dev == DeviceMobile {
		return &r.Mobile
	}
	return &r.PC
}

// AdSignals is one navigation worker's output for one keyword: the ordinal
// of the sponsored block among result blocks and the count of sponsored
// link elements on the first page.
type AdSignals struct {
	BlockIndex int
	LinkCount  int
}

// DefaultAdSignals returns the per-device fallback used when extraction
// failed persistently or a keyword never reached the navigation stream.
func DefaultAdSignals(dev Device) AdSignals {
	if dev == DeviceMobile {
		return AdSignals{BlockIndex: 4, LinkCount: 4}
	}
	return AdSignals{BlockIndex: 8, LinkCount: 8}
}

// Progress is delivered to the progress callback. Percentage is monotonic
// non-decreasing within one run.
type Progress struct {
	Percentage int
	Keyword    string
	Stage      string
	Detail     string
}

// RunTally summarizes one analysis run.
type RunTally struct {
	RunID     string        `json:"runId"`
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Cancelled bool          `json:"cancelled"`
	Elapsed   time.Duration `json:"elapsed"`
}
