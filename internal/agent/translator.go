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

// TranslatorClient wraps the text translation API. Callers skip it entirely
// when the target language equals the base language.
type TranslatorClient struct {
	endpoint   string
	key        string
	region     string
	httpClient *http.Client
}

func NewTranslatorClient(endpoint, key, region string) *TranslatorClient {
	return &TranslatorClient{
		endpoint: endpoint,
		key:      key,
		region:   region,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type translateResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

func (c *TranslatorClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	const op = "translator.translate"
	if c.endpoint == "" || c.key == "" {
		return "", errUnavailable(op, "translator credentials not configured")
	}

	url := fmt.Sprintf("%s/translate?api-version=3.0&to=%s", c.endpoint, targetLang)
	body, err := json.Marshal([]map[string]string{{"Text": text}})
	if err != nil {
		return "", errParse(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errTransport(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	if c.region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", c.region)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", errTransport(op, fmt.Errorf("translator API returned %s: %s", resp.Status, string(respBody)))
	}

	var results []translateResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", errParse(op, errors.Wrap(err, "decode translate response"))
	}
	if len(results) == 0 || len(results[0].Translations) == 0 {
		return "", errParse(op, errors.New("translate response is empty"))
	}
	return results[0].Translations[0].Text, nil
}
