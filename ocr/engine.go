package ocr

import (
	"context"
	"fmt"
	"sort"
)

// Detection is a single piece of text recognized in a frame. Confidence is
// normalized to [0, 1] regardless of the engine that produced it.
type Detection struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Engine recognizes text in still images.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string) ([]Detection, error)
	Close() error
}

// Options carries engine settings. Engines ignore fields they don't use.
type Options struct {
	// Languages are the tesseract language codes (e.g. eng, chi_sim).
	Languages []string
	// PaddleURL is the PaddleOCR serving endpoint.
	PaddleURL string
}

// Constructor builds an Engine from Options.
type Constructor func(Options) (Engine, error)

var engines = map[string]Constructor{
	"tesseract": newTesseractEngine,
	"paddle":    newPaddleEngine,
}

// Register adds an engine constructor under name. A later registration
// replaces an earlier one.
func Register(name string, c Constructor) {
	engines[name] = c
}

// Open builds the engine registered under name.
func Open(name string, opts Options) (Engine, error) {
	c, ok := engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown OCR engine %q, valid engines: %v", name, Names())
	}
	return c(opts)
}

// Names lists the registered engine names in sorted order.
func Names() []string {
	names := make([]string, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
