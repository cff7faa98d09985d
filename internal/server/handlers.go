package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/farm-guru/farmguru-go/internal/chemreco"
	"github.com/farm-guru/farmguru-go/internal/imagery"
	"github.com/farm-guru/farmguru-go/internal/logging"
	"github.com/farm-guru/farmguru-go/internal/market"
	"github.com/farm-guru/farmguru-go/internal/policy"
	"github.com/farm-guru/farmguru-go/internal/store"
)

// maxUploadBytes caps the accepted image upload size at 8 MiB.
const maxUploadBytes = 8 << 20

// defaultHistoryLimit bounds GET /api/query/history when no limit is given.
const defaultHistoryLimit = 20

// writeJSON encodes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}

// handleQuery handles POST /api/query. Request validation is the only error
// path: the answering pipeline itself degrades instead of failing.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	ans := s.deps.Assistant.AnswerQuery(r.Context(), req.UserID, req.Text, req.ImageID)

	s.metrics.queryRequestsTotal.WithLabelValues(ans.Meta.Mode).Inc()
	s.metrics.queryDurationSeconds.WithLabelValues(ans.Meta.Mode).Observe(time.Since(start).Seconds())

	writeJSON(w, r, http.StatusOK, ans)
}

// handleHistory handles GET /api/query/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	queries := []store.QueryRecord{}
	if s.deps.Store != nil {
		recs, err := s.deps.Store.RecentQueries(r.Context(), r.URL.Query().Get("user_id"), limit)
		if err != nil {
			logging.FromContext(r.Context()).Warn("history lookup failed", slog.Any("error", err))
		} else {
			queries = recs
		}
	}

	writeJSON(w, r, http.StatusOK, historyResponse{Queries: queries, Total: len(queries)})
}

// handleUpload handles POST /api/upload-image. The image bytes are analyzed
// and discarded; only the metadata is persisted.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "reading upload failed", http.StatusBadRequest)
		return
	}

	result := imagery.Analyze(header.Filename, data)

	resp := uploadResponse{
		Filename:   header.Filename,
		Label:      result.Label,
		Confidence: result.Confidence,
	}

	if s.deps.Store != nil {
		id, err := s.deps.Store.InsertImage(r.Context(), &store.ImageRecord{
			UserID:     r.FormValue("user_id"),
			Filename:   header.Filename,
			Label:      result.Label,
			Confidence: result.Confidence,
		})
		if err != nil {
			logging.FromContext(r.Context()).Warn("image persist failed", slog.Any("error", err))
		} else {
			resp.ImageID = id
		}
	}

	writeJSON(w, r, http.StatusOK, resp)
}

// handleChemReco handles POST /api/chem-reco.
func (s *Server) handleChemReco(w http.ResponseWriter, r *http.Request) {
	if s.deps.ChemReco == nil {
		http.Error(w, "chemical recommendations unavailable", http.StatusNotFound)
		return
	}

	var req chemreco.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Crop == "" || req.Symptom == "" {
		http.Error(w, "crop and symptom are required", http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusOK, s.deps.ChemReco.Recommend(r.Context(), &req))
}

// handleChemRecoCrops handles GET /api/chem-reco/crops.
func (s *Server) handleChemRecoCrops(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"crops": chemreco.SupportedCrops()})
}

// handleChemRecoSymptoms handles GET /api/chem-reco/symptoms.
func (s *Server) handleChemRecoSymptoms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"symptoms": chemreco.CommonSymptoms()})
}

// handlePolicyMatch handles POST /api/policy-match.
func (s *Server) handlePolicyMatch(w http.ResponseWriter, r *http.Request) {
	if s.deps.Policy == nil {
		http.Error(w, "policy matching unavailable", http.StatusNotFound)
		return
	}

	var req policy.MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.State == "" {
		http.Error(w, "state is required", http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusOK, s.deps.Policy.Match(r.Context(), &req))
}

// handlePolicySchemes handles GET /api/policy/schemes.
func (s *Server) handlePolicySchemes(w http.ResponseWriter, r *http.Request) {
	if s.deps.Policy == nil {
		http.Error(w, "policy matching unavailable", http.StatusNotFound)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	schemes := s.deps.Policy.AllSchemes(r.Context(),
		r.URL.Query().Get("state"), r.URL.Query().Get("crop"), limit)

	writeJSON(w, r, http.StatusOK, map[string]any{
		"schemes": schemes,
		"total":   len(schemes),
	})
}

// handlePolicyStates handles GET /api/policy/states.
func (s *Server) handlePolicyStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"states": policy.States()})
}

// handleMarket handles GET /api/market. Upstream failures never surface:
// the service degrades to simulated data.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	if s.deps.Market == nil {
		http.Error(w, "market data unavailable", http.StatusNotFound)
		return
	}

	commodity := r.URL.Query().Get("commodity")
	mandi := r.URL.Query().Get("mandi")
	if commodity == "" || mandi == "" {
		http.Error(w, "commodity and mandi are required", http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusOK, s.deps.Market.Lookup(r.Context(), commodity, mandi))
}

// handleMarketCommodities handles GET /api/market/commodities.
func (s *Server) handleMarketCommodities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{"commodities": market.Commodities()})
}

// handleMarketMandis handles GET /api/market/mandis.
func (s *Server) handleMarketMandis(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"mandis": market.Mandis(r.URL.Query().Get("state")),
	})
}

// handleWeather handles GET /api/weather. Upstream failures never surface:
// the service degrades to a simulated forecast.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	if s.deps.Weather == nil {
		http.Error(w, "weather data unavailable", http.StatusNotFound)
		return
	}

	state := r.URL.Query().Get("state")
	district := r.URL.Query().Get("district")
	if state == "" || district == "" {
		http.Error(w, "state and district are required", http.StatusBadRequest)
		return
	}

	writeJSON(w, r, http.StatusOK, s.deps.Weather.Lookup(r.Context(), state, district))
}

// handleReload handles POST /api/reload. The knowledge snapshot is rebuilt
// copy-then-swap, so in-flight retrievals keep their old view.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Library == nil {
		http.Error(w, "reload unavailable", http.StatusNotFound)
		return
	}

	s.deps.Library.Reload(r.Context())
	corpus, _ := s.deps.Library.Current()

	writeJSON(w, r, http.StatusOK, reloadResponse{
		Status:    "reloaded",
		Documents: corpus.Len(),
	})
}
