// Package imagery classifies uploaded crop images. No ML model is bundled:
// classification is a deterministic heuristic over the image dimensions and
// filename, good enough to drive the advice pipeline's image-context branch
// and trivially replaceable by a real vision backend later.
package imagery

import (
	"bytes"
	"hash/fnv"
	"image"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
)

// Confidence levels per heuristic branch.
const (
	fieldConfidence   = 0.6
	closeupConfidence = 0.4
	failedConfidence  = 0.2
)

// highResThreshold is the pixel dimension above which an image is assumed to
// show a whole field rather than a close-up.
const highResThreshold = 1000

// fieldLabels are candidate labels for high-resolution field shots.
var fieldLabels = []string{
	"Healthy crop",
	"Wheat field",
	"Rice field",
	"Tomato plant",
	"Cotton crop",
}

// closeupLabels are candidate labels for lower-resolution close-ups.
var closeupLabels = []string{
	"Leaf sample",
	"Plant disease",
	"Pest damage",
	"Nutrient deficiency",
	"Healthy leaf",
}

// Result is the outcome of one image analysis.
type Result struct {
	// Label is the classification assigned to the image.
	Label string `json:"label"`
	// Confidence is the heuristic confidence in the label.
	Confidence float64 `json:"confidence"`
}

// Analyze classifies an uploaded image. Total: undecodable data yields a low
// confidence "analysis failed" result rather than an error. The same
// filename and image always produce the same label.
func Analyze(filename string, data []byte) Result {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{Label: "Unknown (analysis failed)", Confidence: failedConfidence}
	}

	labels := closeupLabels
	confidence := closeupConfidence
	if cfg.Width > highResThreshold && cfg.Height > highResThreshold {
		labels = fieldLabels
		confidence = fieldConfidence
	}

	return Result{Label: labels[pick(filename, len(labels))], Confidence: confidence}
}

// pick maps a filename to a stable index in [0, n).
func pick(filename string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(filename))
	return int(h.Sum32() % uint32(n))
}
