package dialogue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/parlalabs/parla-core/internal/config"
)

type geminiSource struct {
	cfg      config.DialogueConfig
	userName string
	client   *http.Client
}

// NewGeminiSource fetches a generated standup conversation from the Gemini
// generateContent API.
func NewGeminiSource(cfg config.DialogueConfig, userName string) Source {
	return &geminiSource{cfg: cfg, userName: userName, client: http.DefaultClient}
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *geminiSource) Turns(ctx context.Context) ([]Turn, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: g.prompt()}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(g.cfg.Endpoint, "/"), g.cfg.Model, g.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("dialogue api returned status %s", resp.Status)
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode dialogue response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("dialogue response contained no candidates")
	}

	return parseTurns(decoded.Candidates[0].Content.Parts[0].Text)
}

// parseTurns extracts the JSON conversation array, tolerating markdown code
// fences around it.
func parseTurns(text string) ([]Turn, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var raw []Turn
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse conversation: %w", err)
	}
	turns := raw[:0]
	for _, t := range raw {
		if t.Prompt != "" && t.ExpectedResponse != "" {
			turns = append(turns, t)
		}
	}
	return turns, nil
}

func (g *geminiSource) prompt() string {
	return fmt.Sprintf(`You are simulating a daily standup meeting of at least 1 minute for a software engineering team with only:
- Scrum Master (AI, facilitates the meeting).
- %s (User, Software Engineer).

Each participant should give a brief and realistic update based on the standard standup format:
1. What did you work on yesterday?
2. What are you working on today?
3. Any blockers?

Ensure that:
- The updates are realistic and varied in each run.
- The tone is conversational and natural.
- The response is formatted strictly as a JSON array where each entry contains both "AI" and "User" keys.
- Avoid AI messages that do not have a corresponding User response.
- Return ONLY the JSON array without additional text or formatting issues.`, g.userName)
}
