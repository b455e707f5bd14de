package agent

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SpeechClient wraps the text-to-speech API. Audio is a nice-to-have channel
// for low-literacy users; every caller treats its failures as non-fatal.
type SpeechClient struct {
	region     string
	key        string
	httpClient *http.Client
}

func NewSpeechClient(region, key string) *SpeechClient {
	return &SpeechClient{
		region: region,
		key:    key,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// voiceMap picks a neural voice per language, falling back to English.
var voiceMap = map[string]string{
	"en": "en-US-AvaNeural",
	"sw": "sw-KE-ZuriNeural",
	"ar": "ar-SA-FatimahNeural",
	"fr": "fr-FR-DeniseNeural",
	"es": "es-ES-AlvaroNeural",
	"pt": "pt-BR-FranciscaNeural",
}

// Synthesize renders text as base64-encoded MP3 audio.
func (c *SpeechClient) Synthesize(ctx context.Context, text, lang string) (string, error) {
	const op = "speech.synthesize"
	if c.region == "" || c.key == "" {
		return "", errUnavailable(op, "speech credentials not configured")
	}

	voice, ok := voiceMap[lang]
	if !ok {
		voice = voiceMap["en"]
	}
	ssml := fmt.Sprintf(`<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		lang, voice, text)

	url := fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", c.region)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte(ssml)))
	if err != nil {
		return "", errTransport(op, err)
	}
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	req.Header.Set("X-Microsoft-OutputFormat", "audio-16khz-32kbitrate-mono-mp3")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", errTransport(op, fmt.Errorf("speech API returned %s: %s", resp.Status, string(body)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errTransport(op, err)
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}
