package processor

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/longbridgeapp/opencc"

	"github.com/evany413/OCR-compare/ocr"
)

const DefaultMinConfidence = 0.8

// ResultFilter post-processes raw OCR detections: confidence thresholding,
// optional simplified/traditional script conversion, and trimming.
type ResultFilter struct {
	minConfidence float64
	converter     *opencc.OpenCC
}

type ResultFilterConfig struct {
	// MinConfidence drops detections at or below this confidence.
	MinConfidence float64 `mapstructure:"min_confidence"`
	// Conversion is an OpenCC conversion name such as "s2t" or "t2s".
	// Empty disables script conversion.
	Conversion string `mapstructure:"conversion"`
}

// NewResultFilter creates a new ResultFilter instance
func NewResultFilter(cfg ResultFilterConfig) (*ResultFilter, error) {
	minConfidence := DefaultMinConfidence
	if cfg.MinConfidence > 0 {
		minConfidence = cfg.MinConfidence
	}

	var converter *opencc.OpenCC
	if cfg.Conversion != "" {
		var err error
		converter, err = opencc.New(cfg.Conversion)
		if err != nil {
			return nil, fmt.Errorf("error initializing %q script converter: %v", cfg.Conversion, err)
		}
	}

	return &ResultFilter{
		minConfidence: minConfidence,
		converter:     converter,
	}, nil
}

// FilterFrame keeps the detections of one frame that are strictly above the
// confidence threshold, applying script conversion and trimming. Recognition
// order is preserved.
func (f *ResultFilter) FilterFrame(detections []ocr.Detection) ([]ocr.Detection, error) {
	kept := []ocr.Detection{}
	for _, detection := range detections {
		if detection.Confidence <= f.minConfidence {
			continue
		}
		text := strings.TrimSpace(detection.Text)
		if text == "" {
			continue
		}
		if f.converter != nil {
			converted, err := f.converter.Convert(text)
			if err != nil {
				return nil, fmt.Errorf("error converting %q: %v", text, err)
			}
			text = converted
		}
		kept = append(kept, ocr.Detection{Text: text, Confidence: detection.Confidence})
	}
	return kept, nil
}

// UniqueSorted deduplicates lines and sorts them lexicographically.
func UniqueSorted(lines []string) []string {
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	unique := make([]string, 0, len(set))
	for line := range set {
		unique = append(unique, line)
	}
	sort.Strings(unique)
	return unique
}

// WriteTextFile writes one line per string, truncating any existing file.
func WriteTextFile(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("error writing results file: %v", err)
	}
	return nil
}
