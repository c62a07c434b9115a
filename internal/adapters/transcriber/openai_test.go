package transcriber

import (
	"context"
	"errors"
	"testing"

	"habit-tracker-bot/internal/domain"
	openai "habit-tracker-bot/internal/infra/openai"
)

type fakeTranscriptionClient struct {
	text string
	err  error
}

func (f *fakeTranscriptionClient) CreateTranscription(ctx context.Context, req openai.TranscriptionRequest) (openai.TranscriptionResponse, error) {
	if f.err != nil {
		return openai.TranscriptionResponse{}, f.err
	}
	return openai.TranscriptionResponse{Text: f.text}, nil
}

func TestTranscribe(t *testing.T) {
	tr := NewOpenAI(&fakeTranscriptionClient{text: " I woke up at 6:30 "}, "", 0)
	text, err := tr.Transcribe(context.Background(), []byte{1, 2, 3}, "voice.ogg")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if text != "I woke up at 6:30" {
		t.Fatalf("ожидали обрезанный транскрипт, получили %q", text)
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	tr := NewOpenAI(&fakeTranscriptionClient{}, "", 0)
	if _, err := tr.Transcribe(context.Background(), nil, ""); !errors.Is(err, domain.ErrTranscription) {
		t.Fatalf("ожидали ErrTranscription, получили %v", err)
	}
}

func TestTranscribeProviderError(t *testing.T) {
	tr := NewOpenAI(&fakeTranscriptionClient{err: errors.New("unavailable")}, "", 0)
	if _, err := tr.Transcribe(context.Background(), []byte{1}, ""); !errors.Is(err, domain.ErrTranscription) {
		t.Fatalf("ожидали ErrTranscription, получили %v", err)
	}
}
