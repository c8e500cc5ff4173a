package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/evany413/OCR-compare/metadata"
	"github.com/evany413/OCR-compare/ocr"
)

// videoExtensions are the file types picked up by batch processing.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".flv":  true,
	".ts":   true,
	".m4v":  true,
}

type PipelineConfig struct {
	// Engines are the OCR engines to run over every frame.
	Engines []string `mapstructure:"engines"`
	// Languages are the tesseract language codes.
	Languages []string `mapstructure:"languages"`
	// PaddleURL is the PaddleOCR serving endpoint.
	PaddleURL string `mapstructure:"paddle_url"`
	// GapSeconds is the number of seconds between extracted frames.
	GapSeconds float64 `mapstructure:"gap_seconds"`
	// FFmpegPath points at a non-PATH ffmpeg binary. Empty uses PATH.
	FFmpegPath string `mapstructure:"ffmpeg_path"`
	// MinConfidence drops detections at or below this confidence.
	MinConfidence float64 `mapstructure:"min_confidence"`
	// Conversion is an OpenCC conversion name such as "s2t" or "t2s".
	Conversion string `mapstructure:"conversion"`
	// Keywords route a processed video into a subfolder named after the
	// first keyword found in its recognized text.
	Keywords []string `mapstructure:"keywords"`
	// RouteDir is the root for keyword folders. Empty means the video's
	// own directory.
	RouteDir string `mapstructure:"route_dir"`
	// OutputDir is where result files go. Empty means next to the video.
	OutputDir string `mapstructure:"output_dir"`
	// DatabasePath is the SQLite results index. Empty disables recording.
	DatabasePath string `mapstructure:"database_path"`
	// Debug retains the extracted frames after processing.
	Debug bool `mapstructure:"debug"`
}

type Pipeline struct {
	config    *PipelineConfig
	extractor *FrameExtractor
	filter    *ResultFilter
	engines   []ocr.Engine
	recorder  *metadata.Recorder
}

// NewPipeline creates a new Pipeline instance, opening the configured OCR
// engines and, when a database path is set, the results index.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if len(cfg.Engines) == 0 {
		cfg.Engines = []string{"tesseract"}
	}

	filter, err := NewResultFilter(ResultFilterConfig{
		MinConfidence: cfg.MinConfidence,
		Conversion:    cfg.Conversion,
	})
	if err != nil {
		return nil, err
	}

	engines := make([]ocr.Engine, 0, len(cfg.Engines))
	for _, name := range cfg.Engines {
		engine, err := ocr.Open(name, ocr.Options{
			Languages: cfg.Languages,
			PaddleURL: cfg.PaddleURL,
		})
		if err != nil {
			closeEngines(engines)
			return nil, err
		}
		engines = append(engines, engine)
	}

	var recorder *metadata.Recorder
	if cfg.DatabasePath != "" {
		recorder, err = metadata.NewRecorder(cfg.DatabasePath)
		if err != nil {
			closeEngines(engines)
			return nil, err
		}
	}

	return &Pipeline{
		config:    &cfg,
		extractor: NewFrameExtractor(FrameExtractorConfig{GapSeconds: cfg.GapSeconds, FFmpegPath: cfg.FFmpegPath}),
		filter:    filter,
		engines:   engines,
		recorder:  recorder,
	}, nil
}

func closeEngines(engines []ocr.Engine) {
	for _, engine := range engines {
		engine.Close() // nolint: errcheck
	}
}

func (p *Pipeline) Close() error {
	closeEngines(p.engines)
	if p.recorder != nil {
		return p.recorder.Close()
	}
	return nil
}

// EngineResult is the outcome of running one engine over one video.
type EngineResult struct {
	Engine string `json:"engine"`
	// Words is the deduplicated, sorted accepted text.
	Words []string `json:"words"`
	// FrameDetections holds the accepted detections in frame order.
	FrameDetections []FrameDetections `json:"-"`
	TextFile        string            `json:"text_file"`
	SubtitleFile    string            `json:"subtitle_file,omitempty"`
}

// VideoResult is the outcome of processing one video.
type VideoResult struct {
	Video      string         `json:"video"`
	Duration   float64        `json:"duration"`
	FrameCount int            `json:"frame_count"`
	Keyword    string         `json:"keyword,omitempty"`
	RoutedTo   string         `json:"routed_to,omitempty"`
	Engines    []EngineResult `json:"engines"`
}

// ProcessFile runs the full pipeline over a single video: extract frames,
// recognize text with every engine, filter and write results, route by
// keyword, record to the index, and clean up the frames.
func (p *Pipeline) ProcessFile(ctx context.Context, videoPath string) (*VideoResult, error) {
	log.Info().
		Str("video", videoPath).
		Strs("engines", p.config.Engines).
		Msg("processing video")

	frameSet, err := p.extractor.Run(videoPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p.config.Debug {
			log.Info().Str("framesDir", frameSet.Dir).Msg("debug mode, keeping frames")
			return
		}
		if err := os.RemoveAll(frameSet.Dir); err != nil {
			log.Warn().Err(err).Str("framesDir", frameSet.Dir).Msg("failed to remove frames directory")
		}
	}()

	log.Info().
		Float64("duration", frameSet.Duration).
		Int("frames", len(frameSet.Frames)).
		Msg("frames extracted")

	outputDir := p.config.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(videoPath)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating output directory: %v", err)
	}
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	result := &VideoResult{
		Video:      videoPath,
		Duration:   frameSet.Duration,
		FrameCount: len(frameSet.Frames),
	}

	for _, engine := range p.engines {
		engineResult, err := p.runEngine(ctx, engine, frameSet)
		if err != nil {
			return nil, err
		}

		engineResult.TextFile = filepath.Join(outputDir, fmt.Sprintf("%s.%s.txt", stem, engine.Name()))
		if err := WriteTextFile(engineResult.TextFile, engineResult.Words); err != nil {
			return nil, err
		}

		if len(engineResult.FrameDetections) > 0 {
			engineResult.SubtitleFile = filepath.Join(outputDir, fmt.Sprintf("%s.%s.srt", stem, engine.Name()))
			if err := WriteSubtitles(engineResult.SubtitleFile, engineResult.FrameDetections, frameSet.Gap); err != nil {
				return nil, err
			}
		}

		log.Info().
			Str("engine", engine.Name()).
			Int("words", len(engineResult.Words)).
			Str("textFile", engineResult.TextFile).
			Msg("engine finished")

		result.Engines = append(result.Engines, *engineResult)
	}

	if len(p.config.Keywords) > 0 {
		root := p.config.RouteDir
		if root == "" {
			root = filepath.Dir(videoPath)
		}
		router := NewRouter(p.config.Keywords, root)

		var union []string
		for _, engineResult := range result.Engines {
			union = append(union, engineResult.Words...)
		}
		if keyword := router.Match(union); keyword != "" {
			moved, err := router.Route(videoPath, keyword)
			if err != nil {
				return nil, err
			}
			result.Keyword = keyword
			result.RoutedTo = moved
		}
	}

	if p.recorder != nil {
		processedAt := time.Now()
		for _, engineResult := range result.Engines {
			record := buildRecord(result, engineResult, processedAt)
			if err := p.recorder.AddVideoResult(ctx, record); err != nil {
				return nil, fmt.Errorf("error recording results for %s: %v", videoPath, err)
			}
		}
	}

	return result, nil
}

// runEngine recognizes every frame with one engine. A frame that fails OCR
// is logged and skipped; it does not abort the video.
func (p *Pipeline) runEngine(ctx context.Context, engine ocr.Engine, frameSet *FrameSet) (*EngineResult, error) {
	var perFrame []FrameDetections
	var all []string

	for _, frame := range frameSet.Frames {
		detections, err := engine.Recognize(ctx, frame.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("frame", frame.Path).Str("engine", engine.Name()).Msg("skipping frame")
			continue
		}

		kept, err := p.filter.FilterFrame(detections)
		if err != nil {
			return nil, err
		}
		if len(kept) == 0 {
			continue
		}

		perFrame = append(perFrame, FrameDetections{
			Timestamp:  frame.Timestamp,
			Detections: kept,
		})
		for _, detection := range kept {
			all = append(all, detection.Text)
		}
	}

	return &EngineResult{
		Engine:          engine.Name(),
		Words:           UniqueSorted(all),
		FrameDetections: perFrame,
	}, nil
}

func buildRecord(result *VideoResult, engineResult EngineResult, processedAt time.Time) metadata.VideoRecord {
	// Routing moves the file, so the record carries where it actually lives.
	path := result.Video
	if result.RoutedTo != "" {
		path = result.RoutedTo
	}

	record := metadata.VideoRecord{
		Path:            path,
		Engine:          engineResult.Engine,
		ProcessedAt:     processedAt,
		DurationSeconds: result.Duration,
		FrameCount:      result.FrameCount,
		Keyword:         result.Keyword,
	}
	for _, frame := range engineResult.FrameDetections {
		for _, detection := range frame.Detections {
			record.Detections = append(record.Detections, metadata.DetectionRecord{
				FrameTimestampMS: int(frame.Timestamp / time.Millisecond),
				Text:             detection.Text,
				Confidence:       detection.Confidence,
			})
		}
	}
	return record
}

// ProcessDir walks inputDir and processes every video file found. A video
// that fails is logged and the walk continues; the batch fails only when
// nothing could be processed.
func (p *Pipeline) ProcessDir(ctx context.Context, inputDir string) ([]*VideoResult, error) {
	log.Info().
		Interface("config", p.config).
		Str("inputDir", inputDir).
		Msg("processing files")

	var results []*VideoResult
	failed := 0

	err := filepath.WalkDir(inputDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("error walking input directory: %v", err)
		}

		if d.IsDir() {
			// Skip our own byproducts: retained frames directories and
			// keyword folders already holding routed videos.
			if strings.HasPrefix(d.Name(), "frames_") {
				return filepath.SkipDir
			}
			if path != inputDir && p.isKeywordDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !videoExtensions[strings.ToLower(filepath.Ext(path))] {
			log.Warn().Str("path", path).Msg("skipping file")
			return nil
		}

		result, err := p.ProcessFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			log.Error().Err(err).Str("path", path).Msg("error processing video")
			return nil
		}

		results = append(results, result)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error processing files: %v", err)
	}

	if len(results) == 0 {
		if failed > 0 {
			return nil, fmt.Errorf("all %d videos failed to process", failed)
		}
		return nil, fmt.Errorf("no video files found in %s", inputDir)
	}

	log.Info().Int("processed", len(results)).Int("failed", failed).Msg("batch finished")
	return results, nil
}

func (p *Pipeline) isKeywordDir(name string) bool {
	for _, keyword := range p.config.Keywords {
		if strings.EqualFold(keyword, name) {
			return true
		}
	}
	return false
}
