package processor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"
)

const DefaultGapSeconds = 5.0

type FrameExtractor struct {
	// gap is the number of seconds between extracted frames
	gap float64
	// ffmpegPath overrides the ffmpeg binary looked up on PATH
	ffmpegPath string
}

type FrameExtractorConfig struct {
	// GapSeconds is the number of seconds between extracted frames
	GapSeconds float64 `mapstructure:"gap_seconds"`
	// FFmpegPath points at a non-PATH ffmpeg binary. Empty uses PATH.
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

// NewFrameExtractor creates a new FrameExtractor instance
func NewFrameExtractor(cfg FrameExtractorConfig) *FrameExtractor {
	gap := DefaultGapSeconds
	if cfg.GapSeconds > 0 {
		gap = cfg.GapSeconds
	}
	return &FrameExtractor{gap: gap, ffmpegPath: cfg.FFmpegPath}
}

// Frame is a single still image extracted from a video.
type Frame struct {
	// Path is the location of the frame image on disk.
	Path string `json:"path"`
	// Number is the ffmpeg output frame number, starting at 1.
	Number int `json:"number"`
	// Timestamp is the position of the frame in the video.
	Timestamp time.Duration `json:"timestamp"`
}

// FrameSet is the result of extracting frames from one video.
type FrameSet struct {
	// Dir is the directory holding the extracted frames.
	Dir string `json:"dir"`
	// Duration is the container duration in seconds.
	Duration float64 `json:"duration"`
	// Gap is the interval between frames.
	Gap    time.Duration `json:"gap"`
	Frames []Frame       `json:"frames"`
}

type FrameExtractionError struct {
	Msg          string
	ffmpegOutput string
}

func (e *FrameExtractionError) Error() string {
	return e.Msg
}

func (e *FrameExtractionError) VerboseError() string {
	return fmt.Sprintf("FFmpeg Output:\n%s\n\n%s", e.Msg, e.ffmpegOutput)
}

type ffmpegProbe struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		Index     int    `json:"index"`
		CodecType string `json:"codec_type"`
	} `json:"streams"`
}

// Run extracts one frame every gap seconds from videoPath into a fresh
// frames directory next to the video.
func (f *FrameExtractor) Run(videoPath string) (*FrameSet, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	probeStr, err := ffmpeg_go.Probe(videoPath)
	if err != nil {
		return nil, fmt.Errorf("error probing %s: %v", videoPath, err)
	}

	var probe ffmpegProbe
	err = json.Unmarshal([]byte(probeStr), &probe)
	if err != nil {
		return nil, &FrameExtractionError{
			Msg:          fmt.Sprintf("error unmarshalling ffprobe output: %v", err),
			ffmpegOutput: probeStr,
		}
	}

	videoStream := -1
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" {
			videoStream = stream.Index
			break
		}
	}
	if videoStream == -1 {
		return nil, &FrameExtractionError{
			Msg:          fmt.Sprintf("could not find video stream in %s", videoPath),
			ffmpegOutput: probeStr,
		}
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, &FrameExtractionError{
			Msg:          fmt.Sprintf("error parsing container duration: %v", err),
			ffmpegOutput: probeStr,
		}
	}

	framesDir := FramesDir(videoPath)
	// A leftover directory from a previous run would mix stale frames into
	// the result, so start from scratch.
	if err := os.RemoveAll(framesDir); err != nil {
		return nil, fmt.Errorf("error removing stale frames directory: %v", err)
	}
	if err := os.MkdirAll(framesDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating frames directory: %v", err)
	}

	pattern := filepath.Join(framesDir, fmt.Sprintf("%%0%dd.jpg", numberWidth(duration, f.gap)))
	stream := ffmpeg_go.Input(videoPath).
		Filter("fps", ffmpeg_go.Args{fmt.Sprintf("1/%g", f.gap)}).
		Filter("scale", ffmpeg_go.Args{"iw*sar:ih"}).
		Output(pattern, ffmpeg_go.KwArgs{"q:v": "2"}).
		OverWriteOutput().ErrorToStdOut()
	if f.ffmpegPath != "" {
		stream = stream.SetFfmpegPath(f.ffmpegPath)
	}
	err = stream.Run()
	if err != nil {
		os.RemoveAll(framesDir) // nolint: errcheck
		return nil, &FrameExtractionError{
			Msg: fmt.Sprintf("failed to run ffmpeg on %s: %v", videoPath, err),
		}
	}

	frames, err := listFrames(framesDir, f.gap)
	if err != nil {
		os.RemoveAll(framesDir) // nolint: errcheck
		return nil, err
	}
	if len(frames) == 0 {
		os.RemoveAll(framesDir) // nolint: errcheck
		return nil, fmt.Errorf("no frames extracted from %s", videoPath)
	}

	return &FrameSet{
		Dir:      framesDir,
		Duration: duration,
		Gap:      time.Duration(f.gap * float64(time.Second)),
		Frames:   frames,
	}, nil
}

// FramesDir returns the directory frames for videoPath are extracted into.
// The video stem is part of the name so videos sharing a directory don't
// clobber each other's frames.
func FramesDir(videoPath string) string {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return filepath.Join(filepath.Dir(videoPath), "frames_"+stem)
}

// numberWidth is the zero-padded width of the frame numbers in the output
// pattern, sized to the expected frame count.
func numberWidth(duration, gap float64) int {
	total := int(duration / gap)
	if total < 1 {
		total = 1
	}
	return len(strconv.Itoa(total))
}

func listFrames(framesDir string, gap float64) ([]Frame, error) {
	entries, err := os.ReadDir(framesDir)
	if err != nil {
		return nil, fmt.Errorf("error listing frames directory: %v", err)
	}

	frames := []Frame{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jpg") {
			continue
		}
		num, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".jpg"))
		if err != nil {
			return nil, fmt.Errorf("error extracting frame number from file name: %s", entry.Name())
		}
		frames = append(frames, Frame{
			Path:   filepath.Join(framesDir, entry.Name()),
			Number: num,
			// ffmpeg numbers output frames from 1
			Timestamp: time.Duration(float64(num-1) * gap * float64(time.Second)),
		})
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].Number < frames[j].Number })
	return frames, nil
}
