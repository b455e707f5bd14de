package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"agrivoice-ai/internal/diagnosis"
)

// AdvisorClient wraps the chat-completion deployment that plays the
// agronomist. It always generates in the base language; translation is a
// separate stage so the canonical advisory stays stable across targets.
type AdvisorClient struct {
	endpoint   string
	key        string
	deployment string
	apiVersion string
	httpClient *http.Client
}

func NewAdvisorClient(endpoint, key, deployment, apiVersion string) *AdvisorClient {
	if deployment == "" {
		deployment = "gpt-4"
	}
	if apiVersion == "" {
		apiVersion = "2024-02-15-preview"
	}
	return &AdvisorClient{
		endpoint:   endpoint,
		key:        key,
		deployment: deployment,
		apiVersion: apiVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *AdvisorClient) Advise(ctx context.Context, ac diagnosis.AdviceContext) (string, error) {
	const op = "advisor.advise"
	if c.endpoint == "" || c.key == "" {
		return "", errUnavailable(op, "advisor credentials not configured")
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.endpoint, c.deployment, c.apiVersion)

	payload := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(ac)},
			{Role: "user", Content: userMessage(ac)},
		},
		Temperature: 0.7,
		MaxTokens:   150,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errParse(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errTransport(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", errTransport(op, fmt.Errorf("advisor API returned %s: %s", resp.Status, string(respBody)))
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", errParse(op, errors.Wrap(err, "decode chat response"))
	}
	if len(result.Choices) == 0 {
		return "", errParse(op, errors.New("chat response has no choices"))
	}
	return result.Choices[0].Message.Content, nil
}

// systemPrompt builds the agronomist persona, specialized by crop guidance,
// farmer experience and season when provided.
func systemPrompt(ac diagnosis.AdviceContext) string {
	var b strings.Builder
	b.WriteString(`You are AgriVoice, an expert agronomist specializing in organic farming for African smallholder farmers.

YOUR ROLE:
- Diagnose crop diseases and pest problems from visual symptoms
- Provide ONLY affordable, organic/natural solutions accessible to small farmers
- Give actionable, immediate steps farmers can take TODAY
- Be encouraging and supportive

REMEDIES (Approved organic solutions):
- Neem oil spray (pest control)
- Ash/lime dusting (fungal diseases)
- Compost/manure (soil health)
- Companion planting (pest prevention)
- Hand-picking (for larger pests)
- Water management (prevent fungal issues)
- Plant spacing (improve airflow)
- Crop rotation (disease prevention)

CONSTRAINTS:
- NEVER recommend synthetic chemicals or expensive treatments
- Keep response under 150 tokens
- Be specific about quantities and timing
- Include a timeline for expected improvement`)

	if g, ok := diagnosis.GuidanceFor(ac.CropType); ok {
		fmt.Fprintf(&b, "\n\nCROP BACKGROUND (%s):\n", ac.CropType)
		fmt.Fprintf(&b, "- Common diseases: %s\n", strings.Join(g.CommonDiseases, ", "))
		fmt.Fprintf(&b, "- Common pests: %s\n", strings.Join(g.CommonPests, ", "))
		fmt.Fprintf(&b, "- Critical symptoms: %s", strings.Join(g.CriticalSymptoms, ", "))
	}
	switch ac.FarmerExperience {
	case diagnosis.ExperienceBeginner:
		b.WriteString("\n\nThe farmer is a beginner: explain each step in simple terms and avoid jargon.")
	case diagnosis.ExperienceExperienced:
		b.WriteString("\n\nThe farmer is experienced: be concise and skip basic explanations.")
	}
	if ac.Season != "" {
		fmt.Fprintf(&b, "\n\nCurrent season: %s.", ac.Season)
	}
	return b.String()
}

// userMessage embeds the detected tags and structured context, and asks for
// the numbered sections the response extractor mines.
func userMessage(ac diagnosis.AdviceContext) string {
	crop := "Unknown"
	if ac.CropType != "" {
		crop = string(ac.CropType)
	}
	area := ac.AffectedArea
	if area == "" {
		area = "Unknown"
	}
	return fmt.Sprintf(`IMAGE ANALYSIS: %s
CROP: %s
SEVERITY: %s
AFFECTED AREA: %s
FARMER QUESTION: %s

Please provide a diagnosis following this structure:
1. DISEASE/PEST NAME
2. SEVERITY ASSESSMENT
3. IMMEDIATE ACTIONS (1-3 steps for TODAY)
4. ONGOING MANAGEMENT (for next 2-4 weeks)
5. TIMELINE (when to expect improvement)
6. PREVENTION (for next season)`,
		strings.Join(ac.Tags, ", "), crop, ac.Severity, area, ac.Question)
}
