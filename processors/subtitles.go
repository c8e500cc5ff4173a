package processor

import (
	"fmt"
	"time"

	"github.com/asticode/go-astisub"

	"github.com/evany413/OCR-compare/ocr"
)

// FrameDetections groups the accepted detections of one frame.
type FrameDetections struct {
	Timestamp  time.Duration
	Detections []ocr.Detection
}

// WriteSubtitles writes an .srt with one cue per frame that produced text.
// A cue starts at the frame timestamp and lasts until the next frame would
// have been sampled. Frames without accepted text produce no cue; if no
// frame produced text, no file is written.
func WriteSubtitles(path string, frames []FrameDetections, gap time.Duration) error {
	subs := astisub.NewSubtitles()
	for _, frame := range frames {
		if len(frame.Detections) == 0 {
			continue
		}
		item := &astisub.Item{
			StartAt: frame.Timestamp,
			EndAt:   frame.Timestamp + gap,
		}
		for _, detection := range frame.Detections {
			item.Lines = append(item.Lines, astisub.Line{
				Items: []astisub.LineItem{{Text: detection.Text}},
			})
		}
		subs.Items = append(subs.Items, item)
	}

	if len(subs.Items) == 0 {
		return nil
	}
	if err := subs.Write(path); err != nil {
		return fmt.Errorf("error writing subtitles: %v", err)
	}
	return nil
}
