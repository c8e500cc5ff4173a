package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

// DefaultPaddleURL is the default endpoint of a local PaddleOCR serving
// process (hub serving, ocr_system module).
const DefaultPaddleURL = "http://127.0.0.1:8868/predict/ocr_system"

const paddleStatusOK = "000"

type paddleEngine struct {
	url    string
	client *http.Client
}

func newPaddleEngine(opts Options) (Engine, error) {
	url := opts.PaddleURL
	if url == "" {
		url = DefaultPaddleURL
	}
	return &paddleEngine{
		url:    url,
		client: &http.Client{},
	}, nil
}

type paddleRequest struct {
	Images []string `json:"images"`
}

type paddleResponse struct {
	Msg     string              `json:"msg"`
	Results [][]paddleDetection `json:"results"`
	Status  string              `json:"status"`
}

type paddleDetection struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (p *paddleEngine) Name() string { return "paddle" }

func (p *paddleEngine) Recognize(ctx context.Context, imagePath string) ([]Detection, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("error reading image %s: %v", imagePath, err)
	}

	body, err := json.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(data)},
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding paddle request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error building paddle request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling paddle at %s: %v", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paddle returned status %d for %s", resp.StatusCode, imagePath)
	}

	var decoded paddleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("error decoding paddle response: %v", err)
	}
	if decoded.Status != paddleStatusOK {
		return nil, fmt.Errorf("paddle error for %s: status %s, msg %s", imagePath, decoded.Status, decoded.Msg)
	}

	var detections []Detection
	for _, page := range decoded.Results {
		for _, d := range page {
			if d.Text == "" {
				continue
			}
			detections = append(detections, Detection{
				Text:       d.Text,
				Confidence: d.Confidence,
			})
		}
	}

	return detections, nil
}

func (p *paddleEngine) Close() error { return nil }
