package processor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evany413/OCR-compare/ocr"
)

// stubEngine returns the same detections for every frame.
type stubEngine struct {
	detections []ocr.Detection
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(ctx context.Context, imagePath string) ([]ocr.Detection, error) {
	return s.detections, nil
}

func (s *stubEngine) Close() error { return nil }

func registerStub(detections []ocr.Detection) {
	ocr.Register("stub", func(ocr.Options) (ocr.Engine, error) {
		return &stubEngine{detections: detections}, nil
	})
}

func TestNewPipelineUnknownEngine(t *testing.T) {
	_, err := NewPipeline(PipelineConfig{Engines: []string{"nope"}})
	assert.ErrorContains(t, err, "unknown OCR engine")
}

func TestNewPipelineBadConversion(t *testing.T) {
	registerStub(nil)

	_, err := NewPipeline(PipelineConfig{Engines: []string{"stub"}, Conversion: "bogus"})
	assert.Error(t, err)
}

// makeTestVideo synthesizes a short test pattern clip, skipping the test
// when ffmpeg is not installed.
func makeTestVideo(t *testing.T, dir string, seconds int) string {
	t.Helper()
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not installed", bin)
		}
	}

	video := filepath.Join(dir, "clip.mp4")
	cmd := exec.Command("ffmpeg",
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=duration=%d:size=160x120:rate=10", seconds),
		"-y", video,
	)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "ffmpeg output: %s", string(output))
	return video
}

func TestProcessFile(t *testing.T) {
	registerStub([]ocr.Detection{
		{Text: "hello world", Confidence: 0.95},
		{Text: "noise", Confidence: 0.2},
	})

	dir := t.TempDir()
	video := makeTestVideo(t, dir, 6)

	p, err := NewPipeline(PipelineConfig{
		Engines:       []string{"stub"},
		GapSeconds:    2,
		MinConfidence: 0.5,
	})
	require.NoError(t, err)
	defer p.Close()

	result, err := p.ProcessFile(context.Background(), video)
	require.NoError(t, err)

	assert.Equal(t, video, result.Video)
	assert.Greater(t, result.FrameCount, 0)
	require.Len(t, result.Engines, 1)
	assert.Equal(t, []string{"hello world"}, result.Engines[0].Words)

	// above-threshold text lands in the output file
	data, err := os.ReadFile(filepath.Join(dir, "clip.stub.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))

	// subtitles carry one cue per frame with text
	assert.FileExists(t, filepath.Join(dir, "clip.stub.srt"))

	// frames are cleaned up unless debug is on
	assert.NoDirExists(t, FramesDir(video))
}

func TestProcessFileDebugKeepsFrames(t *testing.T) {
	registerStub([]ocr.Detection{{Text: "hello", Confidence: 0.9}})

	dir := t.TempDir()
	video := makeTestVideo(t, dir, 4)

	p, err := NewPipeline(PipelineConfig{
		Engines:    []string{"stub"},
		GapSeconds: 2,
		Debug:      true,
	})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ProcessFile(context.Background(), video)
	require.NoError(t, err)

	assert.DirExists(t, FramesDir(video))
}

func TestProcessDirRoutesByKeyword(t *testing.T) {
	registerStub([]ocr.Detection{{Text: "Quarterly Invoice", Confidence: 0.9}})

	dir := t.TempDir()
	video := makeTestVideo(t, dir, 4)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0644))

	p, err := NewPipeline(PipelineConfig{
		Engines:    []string{"stub"},
		GapSeconds: 2,
		Keywords:   []string{"invoice", "receipt"},
	})
	require.NoError(t, err)
	defer p.Close()

	results, err := p.ProcessDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "invoice", results[0].Keyword)
	assert.Equal(t, filepath.Join(dir, "invoice", filepath.Base(video)), results[0].RoutedTo)
	assert.FileExists(t, results[0].RoutedTo)
	assert.NoFileExists(t, video)
}

func TestProcessDirRoutesInVideoDirectory(t *testing.T) {
	registerStub([]ocr.Detection{{Text: "Quarterly Invoice", Confidence: 0.9}})

	dir := t.TempDir()
	sub := filepath.Join(dir, "inbox")
	require.NoError(t, os.Mkdir(sub, 0755))
	video := makeTestVideo(t, sub, 4)

	p, err := NewPipeline(PipelineConfig{
		Engines:    []string{"stub"},
		GapSeconds: 2,
		Keywords:   []string{"invoice"},
	})
	require.NoError(t, err)
	defer p.Close()

	results, err := p.ProcessDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// without a route dir the keyword folder sits beside the video
	assert.Equal(t, filepath.Join(sub, "invoice", filepath.Base(video)), results[0].RoutedTo)
	assert.FileExists(t, results[0].RoutedTo)
}

func TestProcessDirContinuesAfterFailure(t *testing.T) {
	registerStub([]ocr.Detection{{Text: "hello", Confidence: 0.9}})

	dir := t.TempDir()
	// walked before clip.mp4, and not a valid container
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mp4"), []byte("not a video"), 0644))
	video := makeTestVideo(t, dir, 4)

	p, err := NewPipeline(PipelineConfig{
		Engines:    []string{"stub"},
		GapSeconds: 2,
	})
	require.NoError(t, err)
	defer p.Close()

	results, err := p.ProcessDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, video, results[0].Video)
}

func TestProcessDirAllFailed(t *testing.T) {
	registerStub(nil)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.mp4"), []byte("not a video"), 0644))

	p, err := NewPipeline(PipelineConfig{Engines: []string{"stub"}})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ProcessDir(context.Background(), dir)
	assert.ErrorContains(t, err, "videos failed to process")
}

func TestProcessDirNoVideos(t *testing.T) {
	registerStub(nil)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0644))

	p, err := NewPipeline(PipelineConfig{Engines: []string{"stub"}})
	require.NoError(t, err)
	defer p.Close()

	_, err = p.ProcessDir(context.Background(), dir)
	assert.ErrorContains(t, err, "no video files found")
}

func TestBuildRecordUsesRoutedPath(t *testing.T) {
	engineResult := EngineResult{Engine: "stub"}
	result := &VideoResult{
		Video:    "/videos/clip.mp4",
		Keyword:  "invoice",
		RoutedTo: "/videos/invoice/clip.mp4",
	}

	record := buildRecord(result, engineResult, time.Now())
	assert.Equal(t, "/videos/invoice/clip.mp4", record.Path)
	assert.Equal(t, "invoice", record.Keyword)

	// an unrouted video keeps its original path
	result.RoutedTo = ""
	record = buildRecord(result, engineResult, time.Now())
	assert.Equal(t, "/videos/clip.mp4", record.Path)
}
