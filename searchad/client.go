package searchad

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"keyword-bid-analyzer/config"
	"keyword-bid-analyzer/models"
)

// ErrNotConfigured signals missing credentials; the whole run fails before
// any stream starts.
var ErrNotConfigured = errors.New("searchad: api credentials not configured")

// RateLimitedError is returned for 429-class responses. RetryAfter carries
// the server's Retry-After header when one was present.
type RateLimitedError struct {
	RetryAfter    time.Duration
	HasRetryAfter bool
}

func (e *RateLimitedError) Error() string {
	if e.HasRetryAfter {
		return fmt.Sprintf("searchad: rate limited (retry after %s)", e.RetryAfter)
	}
	return "searchad: rate limited"
}

// KeywordStats is the per-keyword statistics payload, both devices in one
// response. A textual below-threshold volume from the API maps to 0.
type KeywordStats struct {
	PCVolume     int
	MobileVolume int
	PCClicks     float64
	PCCtr        float64
	MobileClicks float64
	MobileCtr    float64
}

// StatsClient is what the collector depends on. The HTTP Client below is the
// production implementation; tests substitute fakes.
type StatsClient interface {
	KeywordStats(ctx context.Context, keyword string) (KeywordStats, error)
	BidEstimates(ctx context.Context, keyword string, dev models.Device, positions []int) ([]models.BidPosition, error)
}

// Client talks to the search-ad statistics API. Credentials are assumed
// pre-validated and held opaquely.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	customerID string
	http       *http.Client
}

// NewClient builds a Client from configuration.
func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.APIBaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		customerID: cfg.CustomerID,
		http:       &http.Client{Timeout: cfg.APITimeout},
	}
}

// Configured reports whether the client holds a usable credential set.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.apiSecret != "" && c.customerID != ""
}

// keywordStatsResponse mirrors the wire format. Volume fields arrive either
// as numbers or as below-threshold strings, hence RawMessage.
type keywordStatsResponse struct {
	KeywordList []struct {
		RelKeyword         string          `json:"relKeyword"`
		MonthlyPcQcCnt     json.RawMessage `json:"monthlyPcQcCnt"`
		MonthlyMobileQcCnt json.RawMessage `json:"monthlyMobileQcCnt"`
		MonthlyAvePcClk    float64         `json:"monthlyAvePcClkCnt"`
		MonthlyAvePcCtr    float64         `json:"monthlyAvePcCtr"`
		MonthlyAveMoClk    float64         `json:"monthlyAveMobileClkCnt"`
		MonthlyAveMoCtr    float64         `json:"monthlyAveMobileCtr"`
	} `json:"keywordList"`
}

// KeywordStats fetches monthly volume, clicks and CTR for both devices.
// keyword must already be upper-cased by the caller.
func (c *Client) KeywordStats(ctx context.Context, keyword string) (KeywordStats, error) {
	q := url.Values{}
	q.Set("hintKeywords", keyword)
	q.Set("showDetail", "1")

	body, err := c.do(ctx, http.MethodGet, "/keywordstool", q, nil)
	if err != nil {
		return KeywordStats{}, err
	}

	var resp keywordStatsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return KeywordStats{}, fmt.Errorf("decode keyword stats: %w", err)
	}
	if len(resp.KeywordList) == 0 {
		return KeywordStats{}, fmt.Errorf("no stats returned for %q", keyword)
	}

	entry := resp.KeywordList[0]
	for _, e := range resp.KeywordList {
		if strings.EqualFold(e.RelKeyword, keyword) {
			entry = e
			break
		}
	}

	return KeywordStats{
		PCVolume:     parseVolume(entry.MonthlyPcQcCnt),
		MobileVolume: parseVolume(entry.MonthlyMobileQcCnt),
		PCClicks:     entry.MonthlyAvePcClk,
		PCCtr:        entry.MonthlyAvePcCtr,
		MobileClicks: entry.MonthlyAveMoClk,
		MobileCtr:    entry.MonthlyAveMoCtr,
	}, nil
}

type bidEstimateRequest struct {
	Device string            `json:"device"`
	Items  []bidEstimateItem `json:"items"`
}

type bidEstimateItem struct {
	Key      string `json:"key"`
	Position int    `json:"position"`
}

type bidEstimateResponse struct {
	Estimate []struct {
		Position int `json:"position"`
		Bid      int `json:"bid"`
	} `json:"estimate"`
}

// BidEstimates fetches the bid ladder for one keyword on one device. The API
// rejects combined or omitted-device requests, so each device is requested
// individually.
func (c *Client) BidEstimates(ctx context.Context, keyword string, dev models.Device, positions []int) ([]models.BidPosition, error) {
	if dev != models.DevicePC && dev != models.DeviceMobile {
		return nil, fmt.Errorf("bid estimates require a single explicit device, got %q", dev)
	}

	req := bidEstimateRequest{Device: string(dev)}
	for _, p := range positions {
		req.Items = append(req.Items, bidEstimateItem{Key: keyword, Position: p})
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode bid estimate request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/estimate/average-position-bid/keyword", nil, payload)
	if err != nil {
		return nil, err
	}

	var resp bidEstimateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode bid estimates: %w", err)
	}

	out := make([]models.BidPosition, 0, len(resp.Estimate))
	for _, e := range resp.Estimate {
		out = append(out, models.BidPosition{Position: e.Position, BidPrice: e.Bid})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	c.sign(req, method, path)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, rateLimited(resp)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// sign adds the API's HMAC request signature headers.
func (c *Client) sign(req *http.Request, method, path string) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(ts + "." + method + "." + path))

	req.Header.Set("X-Timestamp", ts)
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-Customer", c.customerID)
	req.Header.Set("X-Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
}

func rateLimited(resp *http.Response) error {
	e := &RateLimitedError{}
	if h := resp.Header.Get("Retry-After"); h != "" {
		if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
			e.RetryAfter = time.Duration(secs) * time.Second
			e.HasRetryAfter = true
		}
	}
	return e
}

// parseVolume handles volume fields that arrive as numbers or as textual
// below-threshold markers ("< 10").
func parseVolume(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "<") {
			return 0
		}
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return 0
}
