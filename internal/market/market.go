// Package market serves commodity price data and simple trading signals.
// Live prices come from the data.gov.in mandi price feed when an API key is
// configured; otherwise a deterministic simulated price walk stands in.
// Results are cached for 30 minutes per commodity+mandi pair.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/farm-guru/farmguru-go/internal/cache"
	"github.com/farm-guru/farmguru-go/internal/logging"
)

// cacheTTL is how long one commodity+mandi result stays fresh.
const cacheTTL = 30 * time.Minute

// signalBandPct is the deviation from the 7-day moving average, in percent,
// beyond which the signal switches from HOLD to BUY or SELL.
const signalBandPct = 5

// Trading signals.
const (
	SignalBuy  = "BUY"
	SignalSell = "SELL"
	SignalHold = "HOLD"
)

// PricePoint is one day's price.
type PricePoint struct {
	// Date is the price date in YYYY-MM-DD.
	Date string `json:"date"`
	// Price is the modal price in rupees per quintal.
	Price float64 `json:"price"`
}

// Meta records where a market response came from.
type Meta struct {
	// Source names the data origin.
	Source string `json:"source"`
	// APIUsed is true when a live upstream supplied the data.
	APIUsed bool `json:"api_used"`
	// Note carries caveats for simulated data.
	Note string `json:"note,omitempty"`
}

// Response is the market view for one commodity at one mandi.
type Response struct {
	// Commodity is the requested commodity name.
	Commodity string `json:"commodity"`
	// Mandi is the requested market name.
	Mandi string `json:"mandi"`
	// LatestPrice is today's price in rupees per quintal.
	LatestPrice float64 `json:"latest_price"`
	// SevenDayMA is the 7-day moving average price.
	SevenDayMA float64 `json:"seven_day_ma"`
	// Signal is BUY, SELL, or HOLD relative to the moving average.
	Signal string `json:"signal"`
	// History is the recent daily price series, oldest first.
	History []PricePoint `json:"history"`
	// Meta records the data origin.
	Meta Meta `json:"meta"`
}

// Config holds market service settings.
type Config struct {
	// DataGovAPIKey enables the live data.gov.in mandi price feed.
	DataGovAPIKey string

	// BaseURL overrides the data.gov.in API base, for tests.
	BaseURL string
}

// Service answers market queries. Safe for concurrent use.
type Service struct {
	cfg    Config
	client *http.Client
	cache  *cache.TTL[*Response]

	// now is swappable for tests.
	now func() time.Time
}

// NewService constructs a market Service.
func NewService(cfg Config) *Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.data.gov.in"
	}
	return &Service{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  cache.NewTTL[*Response](cacheTTL),
		now:    time.Now,
	}
}

// Lookup returns the market view for a commodity at a mandi. Total: upstream
// failures degrade to simulated data, never an error.
func (s *Service) Lookup(ctx context.Context, commodity, mandi string) *Response {
	key := commodity + "_" + mandi
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	resp := s.fetchLive(ctx, commodity, mandi)
	if resp == nil {
		resp = s.simulated(commodity, mandi)
	}

	resp.SevenDayMA = round2(movingAverage(resp.History, 7, resp.LatestPrice))
	resp.Signal = signal(resp.LatestPrice, resp.SevenDayMA)

	s.cache.Set(key, resp)
	return resp
}

// dataGovRecord is one row of the data.gov.in mandi price resource.
type dataGovRecord struct {
	ArrivalDate string `json:"arrival_date"`
	ModalPrice  string `json:"modal_price"`
}

// dataGovResponse is the envelope of the data.gov.in resource API.
type dataGovResponse struct {
	Records []dataGovRecord `json:"records"`
}

// mandiPriceResource is the data.gov.in resource ID for daily mandi prices.
const mandiPriceResource = "9ef84268-d588-465a-a308-a864a43d0070"

// fetchLive queries the data.gov.in mandi price feed. Nil on any failure or
// when no API key is configured.
func (s *Service) fetchLive(ctx context.Context, commodity, mandi string) *Response {
	if s.cfg.DataGovAPIKey == "" {
		return nil
	}

	log := logging.FromContext(ctx)

	q := url.Values{}
	q.Set("api-key", s.cfg.DataGovAPIKey)
	q.Set("format", "json")
	q.Set("filters[commodity]", commodity)
	q.Set("filters[market]", mandi)
	q.Set("limit", "8")

	endpoint := s.cfg.BaseURL + "/resource/" + mandiPriceResource + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Warn("market: building upstream request failed", slog.Any("error", err))
		return nil
	}

	httpResp, err := s.client.Do(req)
	if err != nil {
		log.Warn("market: upstream fetch failed, using simulated data", slog.Any("error", err))
		return nil
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		log.Warn("market: upstream returned non-200, using simulated data",
			slog.Int("status", httpResp.StatusCode))
		return nil
	}

	var data dataGovResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&data); err != nil {
		log.Warn("market: upstream decode failed, using simulated data", slog.Any("error", err))
		return nil
	}
	if len(data.Records) == 0 {
		return nil
	}

	history := make([]PricePoint, 0, len(data.Records))
	for i := len(data.Records) - 1; i >= 0; i-- {
		rec := data.Records[i]
		price, err := strconv.ParseFloat(rec.ModalPrice, 64)
		if err != nil {
			continue
		}
		history = append(history, PricePoint{Date: rec.ArrivalDate, Price: price})
	}
	if len(history) == 0 {
		return nil
	}

	return &Response{
		Commodity:   commodity,
		Mandi:       mandi,
		LatestPrice: history[len(history)-1].Price,
		History:     history,
		Meta:        Meta{Source: "data.gov.in", APIUsed: true},
	}
}

// basePrices are the per-quintal baseline prices used by the simulated walk.
var basePrices = map[string]float64{
	"wheat":     2300,
	"rice":      3200,
	"tomato":    1800,
	"onion":     1500,
	"potato":    1200,
	"cotton":    5500,
	"sugarcane": 350,
	"maize":     1800,
	"soybean":   4200,
	"groundnut": 5800,
}

// defaultBasePrice is used for commodities outside the baseline table.
const defaultBasePrice = 2000

// simulated builds a deterministic 8-day price walk seeded from the
// commodity and mandi names, so repeated calls agree and tests are stable.
func (s *Service) simulated(commodity, mandi string) *Response {
	base := defaultBasePrice * 1.0
	if p, ok := basePrices[lower(commodity)]; ok {
		base = p
	}

	rng := rand.New(rand.NewSource(seed(commodity, mandi))) //nolint:gosec // simulated demo prices, not crypto

	history := make([]PricePoint, 0, 8)
	price := base
	for i := 7; i >= 1; i-- {
		date := s.now().AddDate(0, 0, -i).Format("2006-01-02")
		variation := (rng.Float64() - 0.5) * 0.1 // ±5%
		price = math.Max(base*0.8, price*(1+variation))
		history = append(history, PricePoint{Date: date, Price: round2(price)})
	}

	todayVariation := (rng.Float64() - 0.5) * 0.06 // ±3%
	latest := round2(price * (1 + todayVariation))
	history = append(history, PricePoint{Date: s.now().Format("2006-01-02"), Price: latest})

	return &Response{
		Commodity:   commodity,
		Mandi:       mandi,
		LatestPrice: latest,
		History:     history,
		Meta: Meta{
			Source:  "Simulated data",
			APIUsed: false,
			Note:    "This is simulated market data for demonstration",
		},
	}
}

// movingAverage averages the last n history points, or returns latest when
// the history is shorter than n.
func movingAverage(history []PricePoint, n int, latest float64) float64 {
	if len(history) < n {
		return latest
	}
	var sum float64
	for _, p := range history[len(history)-n:] {
		sum += p.Price
	}
	return sum / float64(n)
}

// signal compares the latest price against the moving average: more than
// signalBandPct above is SELL, more than signalBandPct below is BUY,
// otherwise HOLD.
func signal(latest, ma float64) string {
	if ma == 0 {
		return SignalHold
	}
	diffPct := (latest - ma) / ma * 100
	switch {
	case diffPct > signalBandPct:
		return SignalSell
	case diffPct < -signalBandPct:
		return SignalBuy
	default:
		return SignalHold
	}
}

// seed derives a stable PRNG seed from the commodity and mandi names.
func seed(commodity, mandi string) int64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s|%s", lower(commodity), lower(mandi))
	return int64(h.Sum64())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
