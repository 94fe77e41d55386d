package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const promptTemplate = "Is the following chat message safe and appropriate for a general audience? " +
	"Respond with a JSON object containing 'is_safe' (boolean) and 'reason' (string, 'N/A' if safe). Message: '%s'"

var errEmptyResponse = errors.New("empty classifier response")

// GeminiClassifier asks a Gemini model for a structured safety judgement.
type GeminiClassifier struct {
	client *genai.Client
	model  string
}

// NewGeminiClassifier creates a classifier backed by the Gemini API.
func NewGeminiClassifier(ctx context.Context, apiKey, model string) (*GeminiClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiClassifier{client: client, model: model}, nil
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"is_safe": {Type: genai.TypeBoolean},
			"reason": {
				Type:        genai.TypeString,
				Description: "Reason if not safe, or 'N/A' if safe.",
			},
		},
		Required: []string{"is_safe", "reason"},
	}
}

func (g *GeminiClassifier) Classify(ctx context.Context, text string) (Result, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(fmt.Sprintf(promptTemplate, text)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	)
	if err != nil {
		return Result{}, fmt.Errorf("gemini generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, errEmptyResponse
	}

	return parseJudgement(resp.Candidates[0].Content.Parts[0].Text)
}

type judgement struct {
	IsSafe *bool  `json:"is_safe"`
	Reason string `json:"reason"`
}

// parseJudgement decodes the model's JSON reply.
func parseJudgement(raw string) (Result, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{}, errEmptyResponse
	}

	var j judgement
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return Result{}, fmt.Errorf("failed to decode classifier response: %w", err)
	}
	if j.IsSafe == nil {
		return Result{}, errors.New("classifier response missing is_safe")
	}

	return Result{Safe: *j.IsSafe, Reason: j.Reason}, nil
}
