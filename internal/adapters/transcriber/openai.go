package transcriber

import (
	"context"
	"fmt"
	"strings"
	"time"

	"habit-tracker-bot/internal/domain"
	openai "habit-tracker-bot/internal/infra/openai"
)

type transcriptionClient interface {
	CreateTranscription(ctx context.Context, req openai.TranscriptionRequest) (openai.TranscriptionResponse, error)
}

// OpenAI реализует domain.Transcriber через Whisper.
type OpenAI struct {
	client  transcriptionClient
	model   string
	timeout time.Duration
}

// NewOpenAI создаёт распознаватель речи.
func NewOpenAI(client transcriptionClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "whisper-1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

var _ domain.Transcriber = (*OpenAI)(nil)

// Transcribe преобразует голосовое сообщение в текст.
func (t *OpenAI) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: пустое аудио", domain.ErrTranscription)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.client.CreateTranscription(ctx, openai.TranscriptionRequest{
		Model:    t.model,
		Filename: filename,
		Audio:    audio,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: пустой транскрипт", domain.ErrTranscription)
	}
	return text, nil
}
