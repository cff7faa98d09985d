// Package policy matches farmers to government support schemes. Schemes come
// from the store when one is configured, with a bundled national set as
// fallback; eligibility is a conjunction of per-field predicates over the
// farmer's profile.
package policy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/farm-guru/farmguru-go/internal/logging"
	"github.com/farm-guru/farmguru-go/internal/store"
)

// MatchRequest is a farmer profile to match schemes against.
type MatchRequest struct {
	// UserID identifies the asking user, possibly empty.
	UserID string `json:"user_id,omitempty"`
	// State is the farmer's state. Required.
	State string `json:"state"`
	// Crop is the primary crop, optional.
	Crop string `json:"crop,omitempty"`
	// LandSize is the land holding in hectares; nil means unknown.
	LandSize *float64 `json:"land_size,omitempty"`
	// FarmerType is small, marginal, or large; empty means unknown.
	FarmerType string `json:"farmer_type,omitempty"`
}

// MatchMeta echoes the search criteria of a match response.
type MatchMeta struct {
	State      string   `json:"state"`
	Crop       string   `json:"crop,omitempty"`
	LandSize   *float64 `json:"land_size,omitempty"`
	FarmerType string   `json:"farmer_type,omitempty"`
}

// MatchResponse is the result of one policy match.
type MatchResponse struct {
	// MatchedSchemes are the schemes the farmer appears eligible for.
	MatchedSchemes []store.SchemeRecord `json:"matched_schemes"`
	// TotalMatches is len(MatchedSchemes).
	TotalMatches int `json:"total_matches"`
	// Recommendations are personalized application hints.
	Recommendations []string `json:"recommendations"`
	// Meta echoes the search criteria.
	Meta MatchMeta `json:"meta"`
}

// Matcher matches farmer profiles to schemes. Safe for concurrent use.
type Matcher struct {
	// store is the optional scheme source. Nil means builtin schemes only.
	store store.Store
}

// NewMatcher constructs a Matcher. st may be nil.
func NewMatcher(st store.Store) *Matcher {
	return &Matcher{store: st}
}

// Match returns the schemes the farmer appears eligible for plus
// personalized recommendations. Total: store failures degrade to the
// builtin scheme set.
func (m *Matcher) Match(ctx context.Context, req *MatchRequest) *MatchResponse {
	schemes := m.schemes(ctx, req.State, req.Crop)

	var matched []store.SchemeRecord
	for _, s := range schemes {
		if eligible(&s, req) {
			matched = append(matched, s)
		}
	}

	return &MatchResponse{
		MatchedSchemes:  matched,
		TotalMatches:    len(matched),
		Recommendations: recommendations(req, matched),
		Meta: MatchMeta{
			State:      req.State,
			Crop:       req.Crop,
			LandSize:   req.LandSize,
			FarmerType: req.FarmerType,
		},
	}
}

// AllSchemes returns every known scheme matching the optional state and crop
// filters, capped at limit.
func (m *Matcher) AllSchemes(ctx context.Context, state, crop string, limit int) []store.SchemeRecord {
	schemes := m.schemes(ctx, state, crop)

	filtered := schemes[:0]
	for _, s := range schemes {
		if state != "" && len(s.States) > 0 && !containsFold(s.States, state) {
			continue
		}
		if crop != "" && len(s.Crops) > 0 && !containsFold(s.Crops, crop) {
			continue
		}
		filtered = append(filtered, s)
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// schemes fetches from the store, degrading to the builtin set when the
// store is missing, failing, or empty.
func (m *Matcher) schemes(ctx context.Context, state, crop string) []store.SchemeRecord {
	if m.store == nil {
		return BuiltinSchemes()
	}
	schemes, err := m.store.ListSchemes(ctx, state, crop)
	if err != nil {
		logging.FromContext(ctx).Warn("policy: scheme lookup failed, using builtin set", slog.Any("error", err))
		return BuiltinSchemes()
	}
	if len(schemes) == 0 {
		return BuiltinSchemes()
	}
	return schemes
}

// eligible checks every profile constraint the scheme declares. Empty scheme
// fields constrain nothing.
func eligible(s *store.SchemeRecord, req *MatchRequest) bool {
	if len(s.States) > 0 && !containsFold(s.States, req.State) && !panIndia(s.States) {
		return false
	}
	if req.Crop != "" && len(s.Crops) > 0 && !containsFold(s.Crops, req.Crop) {
		return false
	}
	if req.LandSize != nil && s.MaxLandSize > 0 && *req.LandSize > s.MaxLandSize {
		return false
	}
	if req.FarmerType != "" && len(s.FarmerTypes) > 0 && !containsFold(s.FarmerTypes, req.FarmerType) {
		return false
	}
	return true
}

// panIndia reports whether a state list marks the scheme as nationwide.
func panIndia(states []string) bool {
	for _, s := range states {
		switch strings.ToLower(s) {
		case "all", "india", "pan-india":
			return true
		}
	}
	return false
}

// recommendations builds the application hints for a match result.
func recommendations(req *MatchRequest, matched []store.SchemeRecord) []string {
	if len(matched) == 0 {
		return []string{
			"No specific schemes found for your profile. Consider visiting your local KVK for guidance.",
			"Check eligibility for general farmer welfare schemes like PM-KISAN.",
		}
	}

	var recs []string
	names := make([]string, 0, len(matched))
	for _, s := range matched {
		names = append(names, strings.ToLower(s.Name))
	}

	if anyContains(names, "pm-kisan") {
		recs = append(recs, "Apply for PM-KISAN first as it provides direct income support with minimal documentation.")
	}
	if anyContains(names, "insurance") || anyContains(names, "pmfby") {
		recs = append(recs, "Consider crop insurance (PMFBY) to protect against weather risks and crop losses.")
	}
	if anyContains(names, "credit") || anyContains(names, "kcc") {
		recs = append(recs, "Kisan Credit Card can provide easy access to agricultural credit at subsidized rates.")
	}
	if req.LandSize != nil && *req.LandSize <= 2 {
		recs = append(recs, "As a small/marginal farmer, you may get priority in most government schemes.")
	}
	if len(matched) > 3 {
		recs = append(recs, "You're eligible for multiple schemes. Start with income support schemes, then consider credit and insurance.")
	}

	return append(recs, "Visit your nearest Common Service Center (CSC) for application assistance.")
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func anyContains(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
