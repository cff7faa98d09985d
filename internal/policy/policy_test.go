package policy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/farm-guru/farmguru-go/internal/store"
)

// fakeSchemeStore serves a fixed scheme list, or fails.
type fakeSchemeStore struct {
	store.Store
	schemes []store.SchemeRecord
	err     error
}

func (f *fakeSchemeStore) ListSchemes(context.Context, string, string) ([]store.SchemeRecord, error) {
	return f.schemes, f.err
}

func ptr(v float64) *float64 { return &v }

func TestEligible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		scheme store.SchemeRecord
		req    MatchRequest
		want   bool
	}{
		{
			name:   "unconstrained scheme matches anyone",
			scheme: store.SchemeRecord{Code: "OPEN"},
			req:    MatchRequest{State: "Kerala"},
			want:   true,
		},
		{
			name:   "state match is case-insensitive",
			scheme: store.SchemeRecord{States: []string{"punjab"}},
			req:    MatchRequest{State: "Punjab"},
			want:   true,
		},
		{
			name:   "state mismatch excludes",
			scheme: store.SchemeRecord{States: []string{"punjab"}},
			req:    MatchRequest{State: "Kerala"},
			want:   false,
		},
		{
			name:   "pan-india marker overrides state list",
			scheme: store.SchemeRecord{States: []string{"Pan-India"}},
			req:    MatchRequest{State: "Kerala"},
			want:   true,
		},
		{
			name:   "crop mismatch excludes",
			scheme: store.SchemeRecord{Crops: []string{"wheat"}},
			req:    MatchRequest{State: "Punjab", Crop: "rice"},
			want:   false,
		},
		{
			name:   "unknown crop passes crop-bound scheme",
			scheme: store.SchemeRecord{Crops: []string{"wheat"}},
			req:    MatchRequest{State: "Punjab"},
			want:   true,
		},
		{
			name:   "land size over cap excludes",
			scheme: store.SchemeRecord{MaxLandSize: 2},
			req:    MatchRequest{State: "Punjab", LandSize: ptr(3)},
			want:   false,
		},
		{
			name:   "land size at cap passes",
			scheme: store.SchemeRecord{MaxLandSize: 2},
			req:    MatchRequest{State: "Punjab", LandSize: ptr(2)},
			want:   true,
		},
		{
			name:   "unknown land size passes capped scheme",
			scheme: store.SchemeRecord{MaxLandSize: 2},
			req:    MatchRequest{State: "Punjab"},
			want:   true,
		},
		{
			name:   "farmer type mismatch excludes",
			scheme: store.SchemeRecord{FarmerTypes: []string{"small", "marginal"}},
			req:    MatchRequest{State: "Punjab", FarmerType: "large"},
			want:   false,
		},
		{
			name:   "farmer type match passes",
			scheme: store.SchemeRecord{FarmerTypes: []string{"small", "marginal"}},
			req:    MatchRequest{State: "Punjab", FarmerType: "Small"},
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := eligible(&tt.scheme, &tt.req); got != tt.want {
				t.Errorf("eligible = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatch_BuiltinFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		st   store.Store
	}{
		{"nil store", nil},
		{"failing store", &fakeSchemeStore{err: errors.New("db locked")}},
		{"empty store", &fakeSchemeStore{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMatcher(tt.st)
			resp := m.Match(t.Context(), &MatchRequest{State: "Punjab", FarmerType: "small"})

			if resp.TotalMatches == 0 {
				t.Fatal("expected builtin schemes to match")
			}
			found := false
			for _, s := range resp.MatchedSchemes {
				if s.Code == "PMFBY" {
					found = true
				}
			}
			if !found {
				t.Error("builtin PMFBY missing from match result")
			}
		})
	}
}

func TestMatch_LandSizeGatesIncomeSupport(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)

	small := m.Match(t.Context(), &MatchRequest{State: "Punjab", LandSize: ptr(1.5)})
	large := m.Match(t.Context(), &MatchRequest{State: "Punjab", LandSize: ptr(10)})

	hasPMKisan := func(r *MatchResponse) bool {
		for _, s := range r.MatchedSchemes {
			if s.Code == "PM-KISAN" {
				return true
			}
		}
		return false
	}
	if !hasPMKisan(small) {
		t.Error("small holding should match PM-KISAN")
	}
	if hasPMKisan(large) {
		t.Error("10ha holding matched the 2ha-capped PM-KISAN")
	}
	if large.TotalMatches == 0 {
		t.Error("large holding should still match uncapped schemes")
	}
}

func TestMatch_Recommendations(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)

	resp := m.Match(t.Context(), &MatchRequest{State: "Punjab", Crop: "wheat", LandSize: ptr(1.5)})
	joined := strings.Join(resp.Recommendations, " ")
	if !strings.Contains(joined, "PM-KISAN") {
		t.Errorf("expected an income-support hint, got %v", resp.Recommendations)
	}
	if !strings.Contains(joined, "small/marginal") {
		t.Errorf("expected the small-holding priority hint, got %v", resp.Recommendations)
	}
	if !strings.Contains(resp.Recommendations[len(resp.Recommendations)-1], "Common Service Center") {
		t.Errorf("expected the CSC hint last, got %v", resp.Recommendations)
	}
}

func TestMatch_NoMatchesRecommendation(t *testing.T) {
	t.Parallel()

	st := &fakeSchemeStore{schemes: []store.SchemeRecord{
		{Code: "HR", Name: "Haryana Only", States: []string{"haryana"}},
	}}
	m := NewMatcher(st)

	resp := m.Match(t.Context(), &MatchRequest{State: "Kerala"})

	if resp.TotalMatches != 0 {
		t.Fatalf("expected no matches, got %d", resp.TotalMatches)
	}
	if len(resp.Recommendations) == 0 || !strings.Contains(resp.Recommendations[0], "No specific schemes") {
		t.Errorf("expected the no-match guidance, got %v", resp.Recommendations)
	}
}

func TestAllSchemes_FiltersAndLimit(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)

	all := m.AllSchemes(t.Context(), "", "", 0)
	if len(all) != len(BuiltinSchemes()) {
		t.Errorf("expected the full builtin set, got %d", len(all))
	}

	limited := m.AllSchemes(t.Context(), "", "", 2)
	if len(limited) != 2 {
		t.Errorf("limit not applied: got %d", len(limited))
	}

	// Crop filter keeps crop-unbound schemes and crop-matching ones.
	wheat := m.AllSchemes(t.Context(), "", "wheat", 0)
	for _, s := range wheat {
		if len(s.Crops) > 0 && !containsFold(s.Crops, "wheat") {
			t.Errorf("crop filter leaked scheme %q", s.Code)
		}
	}
}

func TestMatch_MetaEchoesRequest(t *testing.T) {
	t.Parallel()

	m := NewMatcher(nil)
	resp := m.Match(t.Context(), &MatchRequest{State: "Punjab", Crop: "wheat", FarmerType: "small"})

	if resp.Meta.State != "Punjab" || resp.Meta.Crop != "wheat" || resp.Meta.FarmerType != "small" {
		t.Errorf("meta does not echo the request: %+v", resp.Meta)
	}
}
