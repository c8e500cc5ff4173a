package metadata

import "time"

// VideoRecord is the result of running one OCR engine over one video.
type VideoRecord struct {
	Path            string            `json:"path"`
	Engine          string            `json:"engine"`
	ProcessedAt     time.Time         `json:"processed_at"`
	DurationSeconds float64           `json:"duration_seconds"`
	FrameCount      int               `json:"frame_count"`
	Keyword         string            `json:"keyword"`
	Detections      []DetectionRecord `json:"detections"`
}

// DetectionRecord is one accepted piece of recognized text.
type DetectionRecord struct {
	FrameTimestampMS int     `json:"frame_ts_ms"`
	Text             string  `json:"text"`
	Confidence       float64 `json:"confidence"`
}
