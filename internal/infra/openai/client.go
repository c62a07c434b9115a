package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"habit-tracker-bot/internal/infra/metrics"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client выполняет запросы Chat Completions и Audio Transcriptions.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

// NewClient создаёт клиента OpenAI.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout + 5*time.Second}
	return &Client{http: httpClient, baseURL: baseURL, apiKey: apiKey}
}

// ChatCompletionRequest описывает тело запроса.
type ChatCompletionRequest struct {
	Model          string                        `json:"model"`
	Messages       []ChatMessage                 `json:"messages"`
	Temperature    float64                       `json:"temperature,omitempty"`
	MaxTokens      int                           `json:"max_tokens,omitempty"`
	ResponseFormat *ChatCompletionResponseFormat `json:"response_format,omitempty"`
}

// ChatMessage представляет сообщение в диалоге.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	// RoleSystem системная инструкция.
	RoleSystem = "system"
	// RoleUser сообщение пользователя.
	RoleUser = "user"
)

// ChatCompletionResponseFormat задаёт формат ответа.
type ChatCompletionResponseFormat struct {
	Type string `json:"type"`
}

const (
	// ResponseFormatTypeJSONObject просит вернуть объект JSON.
	ResponseFormatTypeJSONObject = "json_object"
)

// ChatCompletionResponse описывает ответ модели.
type ChatCompletionResponse struct {
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *ChatCompletionUsage   `json:"usage,omitempty"`
}

// ChatCompletionChoice содержит сообщение модели.
type ChatCompletionChoice struct {
	Message ChatMessage `json:"message"`
}

// ChatCompletionUsage описывает статистику использования токенов.
type ChatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CreateChatCompletion вызывает /chat/completions.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if c.apiKey == "" {
		return ChatCompletionResponse{}, fmt.Errorf("openai: api key is empty")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("openai: marshal request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", req.Model, start, err)
		return ChatCompletionResponse{}, fmt.Errorf("openai: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", req.Model, start, err)
		return ChatCompletionResponse{}, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = apiError(resp.StatusCode, respBody)
		metrics.ObserveNetworkRequest("openai", "chat_completions", req.Model, start, err)
		return ChatCompletionResponse{}, err
	}
	var completion ChatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		metrics.ObserveNetworkRequest("openai", "chat_completions", req.Model, start, err)
		return ChatCompletionResponse{}, fmt.Errorf("openai: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("openai", "chat_completions", req.Model, start, nil)
	if completion.Usage != nil {
		metrics.ObserveLLMGeneration(req.Model, time.Since(start), completion.Usage.PromptTokens, completion.Usage.CompletionTokens, completion.Usage.TotalTokens)
	}
	return completion, nil
}

// TranscriptionRequest описывает параметры распознавания речи.
type TranscriptionRequest struct {
	Model    string
	Filename string
	Audio    []byte
}

// TranscriptionResponse описывает ответ /audio/transcriptions.
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// CreateTranscription вызывает /audio/transcriptions.
func (c *Client) CreateTranscription(ctx context.Context, req TranscriptionRequest) (TranscriptionResponse, error) {
	if c.apiKey == "" {
		return TranscriptionResponse{}, fmt.Errorf("openai: api key is empty")
	}
	if len(req.Audio) == 0 {
		return TranscriptionResponse{}, fmt.Errorf("openai: audio payload is empty")
	}
	filename := req.Filename
	if filename == "" {
		filename = "voice.ogg"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("model", req.Model); err != nil {
		return TranscriptionResponse{}, fmt.Errorf("openai: write field: %w", err)
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return TranscriptionResponse{}, fmt.Errorf("openai: create form file: %w", err)
	}
	if _, err := part.Write(req.Audio); err != nil {
		return TranscriptionResponse{}, fmt.Errorf("openai: write audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return TranscriptionResponse{}, fmt.Errorf("openai: close form: %w", err)
	}

	endpoint := c.baseURL + "/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return TranscriptionResponse{}, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "audio_transcriptions", req.Model, start, err)
		return TranscriptionResponse{}, fmt.Errorf("openai: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("openai", "audio_transcriptions", req.Model, start, err)
		return TranscriptionResponse{}, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = apiError(resp.StatusCode, respBody)
		metrics.ObserveNetworkRequest("openai", "audio_transcriptions", req.Model, start, err)
		return TranscriptionResponse{}, err
	}
	var transcript TranscriptionResponse
	if err := json.Unmarshal(respBody, &transcript); err != nil {
		metrics.ObserveNetworkRequest("openai", "audio_transcriptions", req.Model, start, err)
		return TranscriptionResponse{}, fmt.Errorf("openai: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("openai", "audio_transcriptions", req.Model, start, nil)
	metrics.TranscriptionSeconds.Observe(time.Since(start).Seconds())
	return transcript, nil
}

func apiError(status int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("openai: %s", apiErr.Error.Message)
	}
	return fmt.Errorf("openai: unexpected status %d", status)
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
