// Package refine unifies an aggregation through an LLM. The refiner is an
// enhancement layer: any failure here falls back to the raw aggregated
// source, preserving full functionality when the model is down.
package refine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/rainzhq/rainz/internal/models"
	"github.com/rainzhq/rainz/internal/units"
)

// Refiner asks a chat model for a unified forecast across sources.
type Refiner struct {
	client openai.Client
	model  openai.ChatModel
}

// New creates a refiner. An empty API key is an error; callers treat that
// as "refinement disabled" rather than fatal.
func New(apiKey string) (*Refiner, error) {
	if apiKey == "" {
		return nil, errors.New("refine: api key not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Refiner{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

const systemPrompt = `You are a meteorologist combining forecasts from several weather providers.
Respond with strict JSON only, no prose, matching:
{"summary": string, "temperature": number, "condition": string, "fieldConfidence": {"temperature": number, "condition": number}}
Temperatures are in Fahrenheit. Confidence values are 0-1.`

type refinedPayload struct {
	Summary         string             `json:"summary"`
	Temperature     float64            `json:"temperature"`
	Condition       string             `json:"condition"`
	FieldConfidence map[string]float64 `json:"fieldConfidence"`
}

func (r *Refiner) Refine(ctx context.Context, result models.AggregatedResult) (*models.RefinedForecast, error) {
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: r.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildPrompt(result)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("refine: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("refine: no completion returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	content = stripCodeFence(content)

	var payload refinedPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("refine: parse completion: %w", err)
	}

	log.Printf("refine: unified %d sources for %s", len(result.Sources), result.MostAccurate.Location)

	return &models.RefinedForecast{
		Summary:         payload.Summary,
		Temperature:     units.Fahrenheit(payload.Temperature).Round(),
		Condition:       payload.Condition,
		FieldConfidence: payload.FieldConfidence,
		Model:           string(r.model),
	}, nil
}

func buildPrompt(result models.AggregatedResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location: %s (%.4f, %.4f)\n", result.MostAccurate.Location, result.MostAccurate.Latitude, result.MostAccurate.Longitude)
	fmt.Fprintf(&b, "Model agreement: %.0f%%\n\n", result.ModelAgreement)
	for _, s := range result.Sources {
		c := s.CurrentWeather
		fmt.Fprintf(&b, "%s (accuracy %.2f): %v°F, %s, humidity %d%%, wind %v mph %s, pressure %v mb\n",
			s.Source, s.Accuracy, c.Temperature, c.Condition, c.Humidity, c.WindSpeed, c.WindDirection, c.Pressure)
	}
	return b.String()
}

// stripCodeFence removes a markdown fence some models wrap JSON in despite
// instructions.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
