package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// VisionClient wraps the computer-vision image tagging API. It performs no
// retries itself; that is the caller's decision.
type VisionClient struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

func NewVisionClient(endpoint, key string) *VisionClient {
	return &VisionClient{
		endpoint: endpoint,
		key:      key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type visionResponse struct {
	Tags []struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	} `json:"tags"`
}

// Tags analyzes raw image bytes and returns the detected tags, deduplicated
// in detection order. An empty list is a valid answer for an inconclusive
// image.
func (c *VisionClient) Tags(ctx context.Context, image []byte) ([]string, error) {
	const op = "vision.tags"
	if c.endpoint == "" || c.key == "" {
		return nil, errUnavailable(op, "vision credentials not configured")
	}

	url := fmt.Sprintf("%s/vision/v3.2/analyze?visualFeatures=Tags", c.endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(image))
	if err != nil {
		return nil, errTransport(op, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errTransport(op, fmt.Errorf("vision API returned %s: %s", resp.Status, string(body)))
	}

	var result visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errParse(op, errors.Wrap(err, "decode vision response"))
	}

	seen := make(map[string]bool, len(result.Tags))
	tags := make([]string, 0, len(result.Tags))
	for _, t := range result.Tags {
		if t.Name == "" || seen[t.Name] {
			continue
		}
		seen[t.Name] = true
		tags = append(tags, t.Name)
	}
	return tags, nil
}
