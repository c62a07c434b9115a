package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"habit-tracker-bot/internal/domain"
	"habit-tracker-bot/internal/infra/metrics"
	openai "habit-tracker-bot/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI реализует domain.Extractor через OpenAI Chat Completions.
// Ответ модели разбирается строго как JSON и валидируется, любой
// другой разбор ответа недопустим.
type OpenAI struct {
	client   chatClient
	model    string
	timeout  time.Duration
	maxRunes int
}

// NewOpenAI создаёт извлекатель активностей.
func NewOpenAI(client chatClient, model string, timeout time.Duration, maxRunes int) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRunes <= 0 {
		maxRunes = 4000
	}
	return &OpenAI{client: client, model: model, timeout: timeout, maxRunes: maxRunes}
}

var _ domain.Extractor = (*OpenAI)(nil)

const systemPrompt = `You are an AI assistant specialized in processing daily activity logs.
Your task is to extract structured information about activities from natural language input.

For each activity mentioned, identify:
1. The time it occurred (in HH:MM format)
2. The activity description
3. Any mentioned duration
4. The sentiment/mood (if mentioned)

Format your response as a JSON object:
{"activities": [{"time": "HH:MM", "activity": "description", "duration": minutes_as_integer, "sentiment": "positive/neutral/negative"}]}

Important rules:
- Always use 24-hour time format
- If duration isn't mentioned, set it to 0
- If sentiment isn't clear, use "neutral"
- Keep activity descriptions concise but clear
- Infer end times when possible
- Include all mentioned activities in the order they are mentioned
- Never invent activities that are not referenced in the text`

type activityPayload struct {
	Time      string `json:"time"`
	Activity  string `json:"activity"`
	Duration  int    `json:"duration"`
	Sentiment string `json:"sentiment"`
}

type extractionPayload struct {
	Activities []activityPayload `json:"activities"`
}

// Extract извлекает активности из свободного текста.
func (e *OpenAI) Extract(ctx context.Context, narrative string) ([]domain.Activity, error) {
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return nil, nil
	}
	metrics.ExtractionRequestsTotal.Inc()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.2,
		MaxTokens:   500,
		Messages: []openai.ChatMessage{
			{Role: openai.RoleSystem, Content: systemPrompt},
			{Role: openai.RoleUser, Content: clipRunes(narrative, e.maxRunes)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		metrics.ExtractionErrors.Inc()
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	if len(resp.Choices) == 0 {
		metrics.ExtractionErrors.Inc()
		return nil, fmt.Errorf("%w: пустой ответ модели", domain.ErrExtraction)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	var parsed extractionPayload
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		metrics.ExtractionErrors.Inc()
		return nil, fmt.Errorf("%w: распаковка ответа: %v", domain.ErrExtraction, err)
	}

	return mapPayload(parsed.Activities)
}

// mapPayload превращает разобранный ответ модели в валидированные записи.
// Невалидная запись отклоняет весь пакет, чтобы частичный результат
// не выглядел как успех.
func mapPayload(payload []activityPayload) ([]domain.Activity, error) {
	activities := make([]domain.Activity, 0, len(payload))
	for _, item := range payload {
		sentiment := domain.Sentiment(strings.TrimSpace(item.Sentiment))
		if sentiment == "" {
			sentiment = domain.SentimentNeutral
		}
		activity := domain.Activity{
			TimeOfDay:       strings.TrimSpace(item.Time),
			Description:     strings.TrimSpace(item.Activity),
			DurationMinutes: item.Duration,
			Sentiment:       sentiment,
		}
		if err := activity.Validate(); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, nil
}

func clipRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
