// Package chemreco produces conservative chemical and management
// recommendations for crop problems. Everything here is rule-driven:
// diagnosis tables keyed by crop and symptom, severity-gated treatment
// tiers, and a bounded confidence score. Chemical treatment is only ever
// suggested for severe cases, behind mandatory expert-consultation warnings.
package chemreco

import (
	"context"
	"log/slog"
	"strings"

	"github.com/farm-guru/farmguru-go/internal/logging"
	"github.com/farm-guru/farmguru-go/internal/retrieval"
	"github.com/farm-guru/farmguru-go/internal/store"
)

// Severity levels accepted in requests.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"
)

// maxConfidence caps the recommendation confidence for safety.
const maxConfidence = 0.8

// Request describes a crop problem.
type Request struct {
	// Crop is the affected crop name.
	Crop string `json:"crop"`
	// Symptom is the farmer's description of the problem.
	Symptom string `json:"symptom"`
	// ImageID optionally references an uploaded image of the problem.
	ImageID string `json:"image_id,omitempty"`
	// Severity is one of mild, moderate, severe. Defaults to moderate.
	Severity string `json:"severity,omitempty"`
	// AffectedArea is the plant part affected (leaves, stem, fruit, root).
	AffectedArea string `json:"affected_area,omitempty"`
}

// Recommendation is one management measure.
type Recommendation struct {
	// Type is the measure category: cultural, biological, or chemical.
	Type string `json:"type"`
	// Method is the measure's short name.
	Method string `json:"method"`
	// Description is the full guidance text.
	Description string `json:"description"`
	// Timing states when to apply the measure.
	Timing string `json:"timing"`
	// Precautions lists safety requirements for the measure.
	Precautions []string `json:"precautions"`
}

// Meta carries request echo and provenance for a response.
type Meta struct {
	Crop          string `json:"crop"`
	Symptom       string `json:"symptom"`
	HasImage      bool   `json:"has_image"`
	RetrievedDocs int    `json:"retrieved_docs"`
	Severity      string `json:"severity"`
}

// Response is the full recommendation package.
type Response struct {
	// Diagnosis is the preliminary assessment of the problem.
	Diagnosis string `json:"diagnosis"`
	// Confidence is the diagnosis confidence in [0, 0.8].
	Confidence float64 `json:"confidence"`
	// Recommendations are the management measures, cultural first.
	Recommendations []Recommendation `json:"recommendations"`
	// NextSteps are concrete follow-ups for the farmer.
	NextSteps []string `json:"next_steps"`
	// Warnings are the mandatory safety disclaimers.
	Warnings []string `json:"warnings"`
	// Meta echoes the request and records evidence counts.
	Meta Meta `json:"meta"`
}

// Engine generates recommendations. Safe for concurrent use.
type Engine struct {
	// retriever supplies supporting evidence documents.
	retriever retrieval.Retriever

	// store is the optional persistence layer for image label lookups.
	store store.Store
}

// New constructs an Engine. st may be nil.
func New(retriever retrieval.Retriever, st store.Store) *Engine {
	return &Engine{retriever: retriever, store: st}
}

// Recommend produces the full recommendation package for a request. Total:
// store and retrieval failures degrade to symptom-only analysis.
func (e *Engine) Recommend(ctx context.Context, req *Request) *Response {
	if req.Severity == "" {
		req.Severity = SeverityModerate
	}

	imageContext := e.imageLabel(ctx, req.ImageID)

	query := req.Crop + " " + req.Symptom + " disease pest management treatment"
	docs := e.retriever.Retrieve(ctx, query, 3)

	diagnosis := diagnose(req.Crop, req.Symptom, imageContext)

	return &Response{
		Diagnosis:       diagnosis,
		Confidence:      confidence(req, imageContext, len(docs)),
		Recommendations: recommendations(req),
		NextSteps:       nextSteps(req, diagnosis),
		Warnings:        warnings(req),
		Meta: Meta{
			Crop:          req.Crop,
			Symptom:       req.Symptom,
			HasImage:      req.ImageID != "",
			RetrievedDocs: len(docs),
			Severity:      req.Severity,
		},
	}
}

// imageLabel looks up the analyzed label of an uploaded image. Empty on any
// failure.
func (e *Engine) imageLabel(ctx context.Context, imageID string) string {
	if imageID == "" || e.store == nil {
		return ""
	}
	img, err := e.store.GetImage(ctx, imageID)
	if err != nil {
		logging.FromContext(ctx).Warn("chemreco: image lookup failed",
			slog.String("image_id", imageID), slog.Any("error", err))
		return ""
	}
	if img == nil {
		return ""
	}
	return img.Label
}

// symptomDiagnosis pairs a symptom keyword with its diagnosis text.
type symptomDiagnosis struct {
	keyword   string
	diagnosis string
}

// cropDiagnoses maps crop → ordered (symptom keyword, diagnosis) pairs for
// the crop-symptom pairs the rules know well. Order matters: the first
// keyword contained in the symptom wins, so a description matching several
// keywords diagnoses the same way on every call.
var cropDiagnoses = map[string][]symptomDiagnosis{
	"tomato": {
		{"yellow", "Possible nutrient deficiency (nitrogen) or early blight"},
		{"spots", "Likely fungal disease - early blight or septoria leaf spot"},
		{"wilt", "Possible bacterial wilt or fusarium wilt"},
		{"curl", "Leaf curl virus or physiological stress"},
	},
	"wheat": {
		{"rust", "Wheat rust (yellow, brown, or black rust)"},
		{"spots", "Leaf spot or septoria tritici blotch"},
		{"yellow", "Nutrient deficiency or stripe rust"},
		{"wilt", "Root rot or take-all disease"},
	},
	"rice": {
		{"blast", "Rice blast disease"},
		{"brown", "Brown spot or bacterial leaf blight"},
		{"yellow", "Bacterial leaf blight or nutrient deficiency"},
		{"sheath", "Sheath blight disease"},
	},
}

// genericDiagnoses maps symptom keyword groups to a generic assessment,
// evaluated in order.
var genericDiagnoses = []struct {
	keywords  []string
	diagnosis string
}{
	{[]string{"yellow", "yellowing"}, "Possible nutrient deficiency, disease, or environmental stress"},
	{[]string{"spot", "spots", "lesion"}, "Likely fungal or bacterial disease causing leaf spots"},
	{[]string{"wilt", "wilting"}, "Possible vascular disease or water stress"},
	{[]string{"curl", "curling"}, "Possible viral infection or environmental stress"},
}

// diagnose builds the preliminary diagnosis from the crop-specific table,
// falling back to generic symptom patterns.
func diagnose(crop, symptom, imageContext string) string {
	cropLower := strings.ToLower(crop)
	symptomLower := strings.ToLower(symptom)

	for _, entry := range cropDiagnoses[cropLower] {
		if strings.Contains(symptomLower, entry.keyword) {
			if imageContext != "" {
				return "Based on symptoms and image analysis (" + imageContext + "): " + entry.diagnosis
			}
			return "Based on described symptoms: " + entry.diagnosis
		}
	}

	diagnosis := "Requires detailed examination for accurate diagnosis"
	for _, g := range genericDiagnoses {
		if containsAny(symptomLower, g.keywords...) {
			diagnosis = g.diagnosis
			break
		}
	}

	if imageContext != "" {
		return "Based on symptoms and image analysis: " + diagnosis
	}
	return "Preliminary assessment: " + diagnosis
}

// recommendations builds the tiered measure list: cultural practice always,
// biological control for fungal symptoms, chemical only when severe, and
// nutrient management for deficiency symptoms.
func recommendations(req *Request) []Recommendation {
	symptomLower := strings.ToLower(req.Symptom)
	fungal := containsAny(symptomLower, "fungal", "spot", "blight", "rust")

	recs := []Recommendation{{
		Type:        "cultural",
		Method:      "Sanitation and Cultural Practices",
		Description: "Remove affected plant parts and destroy them. Improve air circulation and avoid overhead watering. Ensure proper plant spacing.",
		Timing:      "Immediate and ongoing",
		Precautions: []string{
			"Disinfect tools between plants",
			"Do not compost diseased plant material",
			"Wash hands after handling affected plants",
		},
	}}

	if fungal {
		recs = append(recs, Recommendation{
			Type:        "biological",
			Method:      "Biological Control",
			Description: "Apply beneficial microorganisms like Trichoderma or Pseudomonas. Use neem oil or other organic fungicides as preventive measure.",
			Timing:      "Early morning or evening application",
			Precautions: []string{
				"Test on small area first",
				"Avoid application during flowering",
				"Follow organic certification guidelines if applicable",
			},
		})
	}

	if req.Severity == SeveritySevere && fungal {
		recs = append(recs, Recommendation{
			Type:        "chemical",
			Method:      "Fungicide Application (if severe)",
			Description: "Consider copper-based fungicides or other approved fungicides. Use only as last resort and follow integrated pest management principles.",
			Timing:      "As per product label, typically early morning",
			Precautions: []string{
				"MANDATORY: Consult local agricultural extension officer",
				"Read and follow all label instructions",
				"Use protective equipment (gloves, mask, long sleeves)",
				"Observe pre-harvest intervals",
				"Rotate active ingredients to prevent resistance",
				"Do not spray during windy conditions",
			},
		})
	}

	if containsAny(symptomLower, "yellow", "pale", "stunted") {
		recs = append(recs, Recommendation{
			Type:        "cultural",
			Method:      "Nutrient Management",
			Description: "Conduct soil test to identify nutrient deficiencies. Apply balanced fertilizers or organic amendments based on soil test results.",
			Timing:      "Based on crop growth stage and soil test recommendations",
			Precautions: []string{
				"Avoid over-fertilization",
				"Apply fertilizers when soil moisture is adequate",
				"Follow recommended application rates",
			},
		})
	}

	return recs
}

// nextSteps builds the follow-up list, expanding for undiagnosed or
// spreading problems.
func nextSteps(req *Request, diagnosis string) []string {
	steps := []string{
		"Monitor the affected plants daily for changes in symptoms",
		"Take clear photos of symptoms for documentation and expert consultation",
	}

	if strings.Contains(strings.ToLower(diagnosis), "requires detailed examination") {
		steps = append(steps,
			"Contact your local Krishi Vigyan Kendra (KVK) for expert diagnosis",
			"Consider sending plant samples to nearest plant pathology lab",
		)
	}

	if req.Severity == SeverityModerate || req.Severity == SeveritySevere {
		steps = append(steps,
			"Isolate affected plants if possible to prevent spread",
			"Check neighboring plants for similar symptoms",
		)
	}

	return append(steps,
		"Keep records of treatments applied and their effectiveness",
		"Implement preventive measures for next growing season",
		"Consider crop rotation if disease persists",
	)
}

// warnings builds the mandatory disclaimer list.
func warnings(req *Request) []string {
	w := []string{
		"IMPORTANT: This is preliminary guidance only. Always consult local agricultural experts for accurate diagnosis.",
		"Chemical pesticides should be used only when necessary and as per expert recommendation.",
		"Always read and follow pesticide labels completely before use.",
		"Use appropriate protective equipment when handling any chemicals.",
		"Observe pre-harvest intervals and maximum residue limits for food safety.",
	}

	if req.Severity == SeveritySevere {
		w = append([]string{w[0], "URGENT: Severe symptoms detected. Seek immediate expert consultation."}, w[1:]...)
	}

	if req.ImageID == "" {
		w = append(w, "NOTE: Recommendations are based on symptom description only. Image analysis would improve accuracy.")
	}

	return w
}

// commonCombinations are crop-symptom pairs the rules are more confident
// about.
var commonCombinations = []struct{ crop, symptom string }{
	{"tomato", "blight"}, {"wheat", "rust"}, {"rice", "blast"},
	{"potato", "blight"}, {"cotton", "bollworm"},
}

// confidence scores the diagnosis: a conservative 0.3 base, plus bonuses for
// image context, evidence documents, a named affected area, and well-known
// crop-symptom combinations, capped at maxConfidence.
func confidence(req *Request, imageContext string, retrieved int) float64 {
	c := 0.3

	if imageContext != "" {
		c += 0.2
	}
	c += 0.1 * float64(retrieved)
	if req.AffectedArea != "" {
		c += 0.1
	}

	cropLower := strings.ToLower(req.Crop)
	symptomLower := strings.ToLower(req.Symptom)
	for _, combo := range commonCombinations {
		if strings.Contains(cropLower, combo.crop) && strings.Contains(symptomLower, combo.symptom) {
			c += 0.2
			break
		}
	}

	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
