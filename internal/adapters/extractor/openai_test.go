package extractor

import (
	"context"
	"errors"
	"testing"

	"habit-tracker-bot/internal/domain"
	openai "habit-tracker-bot/internal/infra/openai"
)

type fakeChatClient struct {
	content string
	err     error
}

func (f *fakeChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatMessage{Role: "assistant", Content: f.content}}},
	}, nil
}

func TestOpenAIExtractParsesWellFormedPayload(t *testing.T) {
	client := &fakeChatClient{content: `{"activities": [
		{"time": "06:30", "activity": "wake up", "duration": 0, "sentiment": "neutral"},
		{"time": "06:30", "activity": "breakfast", "duration": 45, "sentiment": "positive"},
		{"time": "07:15", "activity": "reading", "duration": 45}
	]}`}
	e := NewOpenAI(client, "", 0, 0)

	activities, err := e.Extract(context.Background(), "I woke up at 6:30, had a great breakfast until 7:15, then read for 45 minutes")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(activities) != 3 {
		t.Fatalf("ожидали 3 записи, получили %d", len(activities))
	}
	if activities[1].Description != "breakfast" || activities[1].DurationMinutes != 45 {
		t.Fatalf("порядок записей должен совпадать с порядком упоминания: %+v", activities[1])
	}
	if activities[2].Sentiment != domain.SentimentNeutral {
		t.Fatalf("пропущенное настроение должно стать neutral, получили %q", activities[2].Sentiment)
	}
	for _, a := range activities {
		if err := a.Validate(); err != nil {
			t.Fatalf("запись не прошла валидацию: %v", err)
		}
	}
}

func TestOpenAIExtractRejectsMalformedJSON(t *testing.T) {
	client := &fakeChatClient{content: `__import__("os")`}
	e := NewOpenAI(client, "", 0, 0)

	_, err := e.Extract(context.Background(), "I woke up at 6:30")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("ожидали ErrExtraction, получили %v", err)
	}
}

func TestOpenAIExtractRejectsInvalidRecord(t *testing.T) {
	client := &fakeChatClient{content: `{"activities": [
		{"time": "06:30", "activity": "wake up", "duration": 0, "sentiment": "neutral"},
		{"time": "25:99", "activity": "sleep", "duration": 0, "sentiment": "neutral"}
	]}`}
	e := NewOpenAI(client, "", 0, 0)

	_, err := e.Extract(context.Background(), "добрый день")
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}
	if vErr.Field != "time" {
		t.Fatalf("ожидали поле time, получили %q", vErr.Field)
	}
}

func TestOpenAIExtractWrapsProviderError(t *testing.T) {
	client := &fakeChatClient{err: errors.New("rate limited")}
	e := NewOpenAI(client, "", 0, 0)

	_, err := e.Extract(context.Background(), "I woke up at 6:30")
	if !errors.Is(err, domain.ErrExtraction) {
		t.Fatalf("ожидали ErrExtraction, получили %v", err)
	}
}

func TestOpenAIExtractEmptyNarrative(t *testing.T) {
	e := NewOpenAI(&fakeChatClient{}, "", 0, 0)
	activities, err := e.Extract(context.Background(), "   ")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(activities) != 0 {
		t.Fatalf("пустой текст не должен давать записей")
	}
}
