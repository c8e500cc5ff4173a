package processor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterMatch(t *testing.T) {
	router := NewRouter([]string{"invoice", "receipt"}, t.TempDir())

	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "no match",
			lines: []string{"hello world"},
			want:  "",
		},
		{
			name:  "case insensitive",
			lines: []string{"MONTHLY INVOICE 2024"},
			want:  "invoice",
		},
		{
			name:  "first keyword in configured order wins",
			lines: []string{"receipt attached", "invoice attached"},
			want:  "invoice",
		},
		{
			name:  "substring match",
			lines: []string{"e-receipts"},
			want:  "receipt",
		},
		{
			name:  "empty lines",
			lines: nil,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, router.Match(tt.lines))
		})
	}
}

func TestRouterRoute(t *testing.T) {
	root := t.TempDir()
	video := filepath.Join(root, "clip.mp4")
	require.NoError(t, os.WriteFile(video, []byte("not really a video"), 0644))

	router := NewRouter([]string{"invoice"}, root)
	dest, err := router.Route(video, "invoice")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "invoice", "clip.mp4"), dest)
	assert.FileExists(t, dest)
	assert.NoFileExists(t, video)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "not really a video", string(data))
}

func TestMoveFileRemovesDestOnCopyFailure(t *testing.T) {
	dir := t.TempDir()

	// a directory source forces the rename to fail and the copy fallback
	// to error out mid-stream
	src := filepath.Join(dir, "srcdir")
	require.NoError(t, os.Mkdir(src, 0755))
	dest := filepath.Join(dir, "dest.mp4")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0644))

	err := moveFile(src, dest)
	require.Error(t, err)

	// the failed copy must not leave a truncated file behind
	assert.NoFileExists(t, dest)
	assert.DirExists(t, src)
}
