package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguages are the tesseract models loaded when none are configured:
// English plus simplified Chinese.
var DefaultLanguages = []string{"eng", "chi_sim"}

type tesseractEngine struct {
	client *gosseract.Client
}

func newTesseractEngine(opts Options) (Engine, error) {
	client := gosseract.NewClient()

	languages := opts.Languages
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	if err := client.SetLanguage(languages...); err != nil {
		client.Close() // nolint: errcheck
		return nil, fmt.Errorf("error setting tesseract languages %v: %v", languages, err)
	}

	return &tesseractEngine{client: client}, nil
}

func (t *tesseractEngine) Name() string { return "tesseract" }

func (t *tesseractEngine) Recognize(ctx context.Context, imagePath string) ([]Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("error loading image %s: %v", imagePath, err)
	}

	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("error recognizing %s: %v", imagePath, err)
	}

	detections := make([]Detection, 0, len(boxes))
	for _, box := range boxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		detections = append(detections, Detection{
			Text: text,
			// tesseract reports confidence on a 0-100 scale
			Confidence: box.Confidence / 100,
		})
	}

	return detections, nil
}

func (t *tesseractEngine) Close() error {
	return t.client.Close()
}
