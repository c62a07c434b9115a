package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"habit-tracker-bot/internal/domain"
	"habit-tracker-bot/internal/infra/metrics"
)

// ErrEmptyNarrative возвращается на пустой текст сообщения.
var ErrEmptyNarrative = errors.New("пустое описание дня")

// Service реализует конвейер трекинга: извлечение активностей и их
// последовательное сохранение с обновлением статистики.
type Service struct {
	users       domain.UserRepo
	activities  domain.ActivityRepo
	extractor   domain.Extractor
	transcriber domain.Transcriber
	recentLimit int
}

// NewService создаёт сервис трекинга.
func NewService(users domain.UserRepo, activities domain.ActivityRepo, extractor domain.Extractor, transcriber domain.Transcriber, recentLimit int) *Service {
	if recentLimit <= 0 {
		recentLimit = 5
	}
	return &Service{users: users, activities: activities, extractor: extractor, transcriber: transcriber, recentLimit: recentLimit}
}

// TrackResult содержит итог обработки одного сообщения.
type TrackResult struct {
	Transcript string
	Activities []domain.Activity
}

// RegisterUser идемпотентно создаёт пользователя при первом контакте.
func (s *Service) RegisterUser(ctx context.Context, profile domain.TelegramProfile) (domain.User, bool, error) {
	return s.users.GetOrCreate(ctx, profile)
}

// TrackText извлекает активности из текста и сохраняет их по порядку.
// Записи одного сообщения применяются последовательно: каждая полностью
// зафиксирована до начала следующей, чтобы правило серии видело
// согласованный last_activity_at. При сбое посередине уже сохранённые
// записи остаются сохранёнными, результат возвращается вместе с ошибкой.
func (s *Service) TrackText(ctx context.Context, tgUserID int64, text string) (TrackResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return TrackResult{}, ErrEmptyNarrative
	}
	metrics.IncTrackForUser(tgUserID)

	extracted, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return TrackResult{}, err
	}

	result := TrackResult{Activities: make([]domain.Activity, 0, len(extracted))}
	for _, activity := range extracted {
		saved, err := s.activities.LogActivity(ctx, tgUserID, activity)
		if err != nil {
			return result, fmt.Errorf("сохранение активности %q: %w", activity.Description, err)
		}
		result.Activities = append(result.Activities, saved)
	}
	return result, nil
}

// TrackVoice распознаёт голосовое сообщение и передаёт транскрипт в
// текстовый конвейер.
func (s *Service) TrackVoice(ctx context.Context, tgUserID int64, audio []byte, filename string) (TrackResult, error) {
	transcript, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return TrackResult{}, err
	}
	result, err := s.TrackText(ctx, tgUserID, transcript)
	result.Transcript = transcript
	return result, err
}

// StatsReport возвращает снимок статистики и последние активности.
func (s *Service) StatsReport(ctx context.Context, tgUserID int64) (domain.UserStats, []domain.Activity, error) {
	stats, err := s.users.GetStats(ctx, tgUserID)
	if err != nil {
		return domain.UserStats{}, nil, err
	}
	recent, err := s.activities.ListRecent(ctx, tgUserID, s.recentLimit, domain.ActivityWindow{})
	if err != nil {
		return domain.UserStats{}, nil, err
	}
	return stats, recent, nil
}
