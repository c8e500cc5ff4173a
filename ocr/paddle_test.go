package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg bytes"), 0644))
	return path
}

func TestPaddleRecognize(t *testing.T) {
	var gotBody paddleRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(paddleResponse{
			Status: "000",
			Results: [][]paddleDetection{{
				{Text: "你好", Confidence: 0.97},
				{Text: "hello", Confidence: 0.42},
				{Text: "", Confidence: 0.99},
			}},
		})
	}))
	defer server.Close()

	engine, err := Open("paddle", Options{PaddleURL: server.URL})
	require.NoError(t, err)
	defer engine.Close()

	detections, err := engine.Recognize(context.Background(), writeTestImage(t))
	require.NoError(t, err)

	// the image is sent base64-encoded
	require.Len(t, gotBody.Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg bytes")), gotBody.Images[0])

	// empty text is dropped, confidences pass through untouched
	require.Len(t, detections, 2)
	assert.Equal(t, Detection{Text: "你好", Confidence: 0.97}, detections[0])
	assert.Equal(t, Detection{Text: "hello", Confidence: 0.42}, detections[1])
}

func TestPaddleRecognizeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(paddleResponse{Status: "101", Msg: "model not loaded"})
	}))
	defer server.Close()

	engine, err := Open("paddle", Options{PaddleURL: server.URL})
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Recognize(context.Background(), writeTestImage(t))
	assert.ErrorContains(t, err, "model not loaded")
}

func TestPaddleRecognizeHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	engine, err := Open("paddle", Options{PaddleURL: server.URL})
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Recognize(context.Background(), writeTestImage(t))
	assert.ErrorContains(t, err, "status 500")
}

func TestPaddleRecognizeMissingImage(t *testing.T) {
	engine, err := Open("paddle", Options{PaddleURL: "http://127.0.0.1:1"})
	require.NoError(t, err)
	defer engine.Close()

	_, err = engine.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.jpg"))
	assert.ErrorContains(t, err, "error reading image")
}
