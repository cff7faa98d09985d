package weather

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLookup_SimulatedDeterminism(t *testing.T) {
	t.Parallel()

	first := NewService(Config{}).Lookup(t.Context(), "Punjab", "Ludhiana")
	second := NewService(Config{}).Lookup(t.Context(), "Punjab", "Ludhiana")

	if first.Forecast != second.Forecast {
		t.Errorf("simulated forecast not deterministic: %+v vs %+v", first.Forecast, second.Forecast)
	}
	if first.Meta.APIUsed {
		t.Error("simulated forecast must not claim a live API")
	}
	if first.Recommendation == "" {
		t.Error("recommendation not derived")
	}
}

func TestSimulated_RegionalBaselines(t *testing.T) {
	t.Parallel()

	s := NewService(Config{})

	tests := []struct {
		state string
		base  float64
	}{
		{"Punjab", 25},
		{"Haryana", 25},
		{"Rajasthan", 32},
		{"Kerala", 30},
		{"Tamil Nadu", 30},
		{"Maharashtra", 28},
	}

	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			t.Parallel()
			f, _ := s.simulated(tt.state, "District")
			// The walk perturbs the baseline by at most ±5°C.
			if f.Temperature < tt.base-5 || f.Temperature > tt.base+5 {
				t.Errorf("temperature %v outside %v±5 for %s", f.Temperature, tt.base, tt.state)
			}
			if f.Humidity < 45 || f.Humidity > 85 {
				t.Errorf("humidity %v outside the simulated range", f.Humidity)
			}
			if f.Rainfall < 0 || f.Rainfall > 5 {
				t.Errorf("rainfall %v outside the simulated range", f.Rainfall)
			}
		})
	}
}

func TestLookup_CacheHit(t *testing.T) {
	t.Parallel()

	s := NewService(Config{})

	first := s.Lookup(t.Context(), "Kerala", "Kochi")
	second := s.Lookup(t.Context(), "Kerala", "Kochi")

	if first != second {
		t.Error("expected the cached pointer on the second lookup")
	}
}

func TestIrrigationRecommendation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		forecast Forecast
		want     []string
		absent   []string
	}{
		{
			name:     "heavy rain delays irrigation",
			forecast: Forecast{Rainfall: 3, Humidity: 60, Temperature: 28},
			want:     []string{"Delay irrigation for 24-48 hours"},
		},
		{
			name:     "light rain monitors moisture",
			forecast: Forecast{Rainfall: 1, Humidity: 60, Temperature: 28},
			want:     []string{"Monitor soil moisture before irrigating"},
		},
		{
			name:     "dry spell keeps the schedule",
			forecast: Forecast{Rainfall: 0, Humidity: 60, Temperature: 28},
			want:     []string{"Continue regular irrigation schedule"},
		},
		{
			name:     "high humidity flags disease risk",
			forecast: Forecast{Rainfall: 0, Humidity: 85, Temperature: 28},
			want:     []string{"disease risk"},
		},
		{
			name:     "low humidity flags water stress",
			forecast: Forecast{Rainfall: 0, Humidity: 30, Temperature: 28},
			want:     []string{"water stress"},
		},
		{
			name:     "heat advises off-peak irrigation",
			forecast: Forecast{Rainfall: 0, Humidity: 60, Temperature: 38},
			want:     []string{"early morning or evening irrigation"},
		},
		{
			name:     "cold flags frost risk",
			forecast: Forecast{Rainfall: 0, Humidity: 60, Temperature: 10},
			want:     []string{"frost risk"},
		},
		{
			name:     "rules compose",
			forecast: Forecast{Rainfall: 3, Humidity: 85, Temperature: 38},
			want: []string{
				"Delay irrigation for 24-48 hours",
				"disease risk",
				"early morning or evening irrigation",
			},
		},
		{
			name:     "moderate conditions skip optional rules",
			forecast: Forecast{Rainfall: 0, Humidity: 60, Temperature: 25},
			want:     []string{"Continue regular irrigation schedule"},
			absent:   []string{"humidity", "temperature alert", "frost"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := IrrigationRecommendation(&tt.forecast)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("recommendation %q missing %q", got, w)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(got, a) {
					t.Errorf("recommendation %q unexpectedly contains %q", got, a)
				}
			}
		})
	}
}

func TestLookup_GovernmentFeed(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filters[district]"); got != "Ludhiana" {
			t.Errorf("district filter = %q", got)
		}
		json.NewEncoder(w).Encode(imdResponse{Records: []imdRecord{
			{Temperature: "31.5", Humidity: "72", Rainfall: "1.2", WeatherDesc: "Light showers"},
		}})
	}))
	defer upstream.Close()

	s := NewService(Config{DataGovAPIKey: "test-key", DataGovBaseURL: upstream.URL})
	resp := s.Lookup(t.Context(), "Punjab", "Ludhiana")

	if !resp.Meta.APIUsed || resp.Meta.Source != "IMD/Data.gov.in" {
		t.Fatalf("expected government feed data, got meta %+v", resp.Meta)
	}
	want := Forecast{Temperature: 31.5, Humidity: 72, Rainfall: 1.2, Description: "Light showers"}
	if resp.Forecast != want {
		t.Errorf("forecast = %+v, want %+v", resp.Forecast, want)
	}
	if !strings.Contains(resp.Recommendation, "Monitor soil moisture") {
		t.Errorf("recommendation %q does not reflect the light rain", resp.Recommendation)
	}
}

func TestLookup_GovernmentFeedUnparseableFields(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(imdResponse{Records: []imdRecord{
			{Temperature: "n/a", Humidity: "", Rainfall: "", WeatherDesc: ""},
		}})
	}))
	defer upstream.Close()

	s := NewService(Config{DataGovAPIKey: "test-key", DataGovBaseURL: upstream.URL})
	resp := s.Lookup(t.Context(), "Punjab", "Ludhiana")

	want := Forecast{Temperature: 28, Humidity: 65, Rainfall: 0, Description: "Partly cloudy"}
	if resp.Forecast != want {
		t.Errorf("expected field defaults, got %+v", resp.Forecast)
	}
}

func TestLookup_GovernmentFailure_FallsThrough(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	// No OpenWeatherMap key, so the failure lands on the simulated forecast.
	s := NewService(Config{DataGovAPIKey: "test-key", DataGovBaseURL: upstream.URL})
	resp := s.Lookup(t.Context(), "Punjab", "Ludhiana")

	if resp.Meta.APIUsed {
		t.Error("expected simulated fallback after upstream failure")
	}
	if resp.Meta.Note == "" {
		t.Error("simulated forecast must carry its caveat note")
	}
}

func TestLookup_OpenWeatherFallback(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/geo/"):
			json.NewEncoder(w).Encode([]geoResult{{Lat: 30.9, Lon: 75.85}})
		case strings.HasPrefix(r.URL.Path, "/data/"):
			var wx owmResponse
			wx.Main.Temp = 29.4
			wx.Main.Humidity = 58
			wx.Rain.OneHour = 0
			wx.Weather = []struct {
				Description string `json:"description"`
			}{{Description: "scattered clouds"}}
			json.NewEncoder(w).Encode(wx)
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	s := NewService(Config{OpenWeatherAPIKey: "test-key", OpenWeatherBaseURL: upstream.URL})
	resp := s.Lookup(t.Context(), "Punjab", "Ludhiana")

	if !resp.Meta.APIUsed || resp.Meta.Source != "OpenWeatherMap" {
		t.Fatalf("expected OpenWeatherMap data, got meta %+v", resp.Meta)
	}
	if resp.Forecast.Temperature != 29.4 || resp.Forecast.Description != "scattered clouds" {
		t.Errorf("forecast = %+v", resp.Forecast)
	}
}
