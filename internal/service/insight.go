package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"risewith9-sales-api/internal/model"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// descriptionFallback is shown whenever generation fails or is disabled.
	descriptionFallback = "Experience luxury living at its finest in this premium unit."

	// insightFallback is shown whenever generation fails or is disabled.
	insightFallback = "High engagement detected in main living areas."
)

// InsightService wraps the LLM client used for unit descriptions and
// analytics insights. With a nil client (no API key configured) both
// operations return their static fallback; generation errors are swallowed
// the same way so callers never see a raw failure.
type InsightService struct {
	client *openai.Client
	model  string
}

// NewInsightService creates the service. Pass an empty apiKey to disable
// generation.
func NewInsightService(apiKey, model string) *InsightService {
	if apiKey == "" {
		log.Printf("[InsightService] No API key configured, using fallback text")
		return &InsightService{model: model}
	}
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &InsightService{client: &c, model: model}
}

// GenerateUnitDescription returns a short marketing description for a unit.
func (s *InsightService) GenerateUnitDescription(ctx context.Context, unit *model.Unit) string {
	prompt := fmt.Sprintf(
		"Write a luxurious, captivating real estate description (max 50 words) for a %s apartment located on floor %d of Tower %s. The size is %d sqft. Focus on lifestyle and prestige.",
		unit.Type, unit.Floor, unit.Tower, unit.Sqft)

	text, err := s.complete(ctx, prompt)
	if err != nil {
		log.Printf("[InsightService] Description generation failed: %v", err)
		return descriptionFallback
	}
	return text
}

// GenerateAnalyticsInsight returns a one-sentence strategic insight for the
// sales team from aggregated room visit data.
func (s *InsightService) GenerateAnalyticsInsight(ctx context.Context, data []model.VisitData) string {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return insightFallback
	}
	prompt := fmt.Sprintf(
		"Analyze this visitor data for a virtual home tour: %s. Provide a 1-sentence strategic insight for the sales team about what buyers are most interested in.",
		string(jsonData))

	text, err := s.complete(ctx, prompt)
	if err != nil {
		log.Printf("[InsightService] Insight generation failed: %v", err)
		return insightFallback
	}
	return text
}

func (s *InsightService) complete(ctx context.Context, prompt string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("generation disabled")
	}

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty response")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return text, nil
}
