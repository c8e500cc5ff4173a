package processor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Router moves processed videos into a subfolder named after the first
// configured keyword found in the recognized text.
type Router struct {
	keywords []string
	root     string
}

// NewRouter creates a new Router instance. root is the directory keyword
// folders are created under.
func NewRouter(keywords []string, root string) *Router {
	return &Router{keywords: keywords, root: root}
}

// Match returns the first keyword appearing in any of the lines,
// case-insensitively, or "" when none match. Keywords are checked in
// configured order.
func (r *Router) Match(lines []string) string {
	for _, keyword := range r.keywords {
		needle := strings.ToLower(keyword)
		for _, line := range lines {
			if strings.Contains(strings.ToLower(line), needle) {
				return keyword
			}
		}
	}
	return ""
}

// Route moves videoPath into <root>/<keyword>/ and returns the new path.
func (r *Router) Route(videoPath string, keyword string) (string, error) {
	destDir := filepath.Join(r.root, keyword)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("error creating keyword directory: %v", err)
	}

	dest := filepath.Join(destDir, filepath.Base(videoPath))
	log.Info().Str("video", videoPath).Str("keyword", keyword).Str("dest", dest).Msg("routing video")

	if err := moveFile(videoPath, dest); err != nil {
		return "", fmt.Errorf("error moving video to %s: %v", dest, err)
	}
	return dest, nil
}

// moveFile renames src to dest, falling back to copy and remove when the
// rename crosses filesystems.
func moveFile(src string, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()     // nolint: errcheck
		os.Remove(dest) // nolint: errcheck
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest) // nolint: errcheck
		return err
	}

	return os.Remove(src)
}
