package market

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLookup_SimulatedDeterminism(t *testing.T) {
	t.Parallel()

	s := NewService(Config{})

	first := s.Lookup(t.Context(), "wheat", "Ludhiana")

	// Second call is a cache hit; a fresh service must still agree because
	// the walk is seeded from the names.
	fresh := NewService(Config{})
	second := fresh.Lookup(t.Context(), "wheat", "Ludhiana")

	if first.LatestPrice != second.LatestPrice {
		t.Errorf("simulated walk not deterministic: %v vs %v", first.LatestPrice, second.LatestPrice)
	}
	if len(first.History) != 8 {
		t.Errorf("expected 8 history points, got %d", len(first.History))
	}
	if first.Meta.APIUsed {
		t.Error("simulated data must not claim a live API")
	}
	if first.Meta.Note == "" {
		t.Error("simulated data must carry its caveat note")
	}
}

func TestLookup_DifferentMandisDiffer(t *testing.T) {
	t.Parallel()

	s := NewService(Config{})

	a := s.Lookup(t.Context(), "wheat", "Ludhiana")
	b := s.Lookup(t.Context(), "wheat", "Indore")

	if a.LatestPrice == b.LatestPrice {
		t.Error("expected different walks for different mandis")
	}
}

func TestLookup_CacheHit(t *testing.T) {
	t.Parallel()

	s := NewService(Config{})

	first := s.Lookup(t.Context(), "rice", "Chennai")
	second := s.Lookup(t.Context(), "rice", "Chennai")

	if first != second {
		t.Error("expected the cached pointer on the second lookup")
	}
}

func TestLookup_SignalAndMovingAverage(t *testing.T) {
	t.Parallel()

	s := NewService(Config{})
	resp := s.Lookup(t.Context(), "tomato", "Pune")

	if resp.SevenDayMA == 0 {
		t.Fatal("moving average not computed")
	}

	diffPct := (resp.LatestPrice - resp.SevenDayMA) / resp.SevenDayMA * 100
	var want string
	switch {
	case diffPct > signalBandPct:
		want = SignalSell
	case diffPct < -signalBandPct:
		want = SignalBuy
	default:
		want = SignalHold
	}
	if resp.Signal != want {
		t.Errorf("signal = %q, want %q for %.2f%% deviation", resp.Signal, want, diffPct)
	}
}

func TestSignal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		latest, ma float64
		want       string
	}{
		{"well above average", 1100, 1000, SignalSell},
		{"well below average", 900, 1000, SignalBuy},
		{"within band", 1030, 1000, SignalHold},
		{"exactly at band edge", 1050, 1000, SignalHold},
		{"zero average", 100, 0, SignalHold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := signal(tt.latest, tt.ma); got != tt.want {
				t.Errorf("signal(%v, %v) = %q, want %q", tt.latest, tt.ma, got, tt.want)
			}
		})
	}
}

func TestMovingAverage(t *testing.T) {
	t.Parallel()

	history := []PricePoint{
		{Price: 10}, {Price: 20}, {Price: 30}, {Price: 40},
		{Price: 50}, {Price: 60}, {Price: 70}, {Price: 80},
	}

	// Last 7 of 8: (20+30+40+50+60+70+80)/7 = 50.
	if got := movingAverage(history, 7, 999); math.Abs(got-50) > 1e-9 {
		t.Errorf("movingAverage = %v, want 50", got)
	}

	// Shorter than the window: fall back to the latest price.
	if got := movingAverage(history[:3], 7, 42); got != 42 {
		t.Errorf("movingAverage on short history = %v, want latest 42", got)
	}
}

func TestLookup_LiveFeed(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filters[commodity]"); got != "wheat" {
			t.Errorf("commodity filter = %q", got)
		}
		if got := r.URL.Query().Get("api-key"); got != "test-key" {
			t.Errorf("api-key = %q", got)
		}
		// Upstream returns newest first; the service reverses to oldest-first.
		json.NewEncoder(w).Encode(dataGovResponse{Records: []dataGovRecord{
			{ArrivalDate: "2026-08-23", ModalPrice: "2450"},
			{ArrivalDate: "2026-08-22", ModalPrice: "2400"},
			{ArrivalDate: "2026-08-21", ModalPrice: "not-a-number"},
			{ArrivalDate: "2026-08-20", ModalPrice: "2350"},
		}})
	}))
	defer upstream.Close()

	s := NewService(Config{DataGovAPIKey: "test-key", BaseURL: upstream.URL})
	resp := s.Lookup(t.Context(), "wheat", "Ludhiana")

	if !resp.Meta.APIUsed || resp.Meta.Source != "data.gov.in" {
		t.Fatalf("expected live data, got meta %+v", resp.Meta)
	}
	if resp.LatestPrice != 2450 {
		t.Errorf("latest price = %v, want the newest record 2450", resp.LatestPrice)
	}
	if len(resp.History) != 3 {
		t.Errorf("expected 3 parseable points, got %d", len(resp.History))
	}
	if resp.History[0].Date != "2026-08-20" {
		t.Errorf("history not oldest-first: %+v", resp.History)
	}
}

func TestLookup_LiveFeedFailure_FallsBackToSimulated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"empty records", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(dataGovResponse{})
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			upstream := httptest.NewServer(tt.handler)
			defer upstream.Close()

			s := NewService(Config{DataGovAPIKey: "test-key", BaseURL: upstream.URL})
			resp := s.Lookup(t.Context(), "wheat", "Ludhiana")

			if resp.Meta.APIUsed {
				t.Error("expected simulated fallback")
			}
			if resp.LatestPrice <= 0 {
				t.Errorf("simulated price = %v", resp.LatestPrice)
			}
		})
	}
}

func TestCommodities(t *testing.T) {
	t.Parallel()

	list := Commodities()
	if len(list) == 0 {
		t.Fatal("empty commodity catalog")
	}
	for _, c := range list {
		if c.Name == "" || c.Value == "" || c.Unit == "" {
			t.Errorf("incomplete commodity entry: %+v", c)
		}
	}
}

func TestMandis_StateFilter(t *testing.T) {
	t.Parallel()

	all := Mandis("")
	if len(all) == 0 {
		t.Fatal("empty mandi catalog")
	}

	maha := Mandis("maharashtra")
	if len(maha) != 2 {
		t.Fatalf("expected 2 Maharashtra mandis, got %d", len(maha))
	}
	for _, m := range maha {
		if m.State != "Maharashtra" {
			t.Errorf("state filter leaked %+v", m)
		}
	}

	if got := Mandis("nowhere"); len(got) != 0 {
		t.Errorf("expected no mandis for unknown state, got %d", len(got))
	}
}
