package domain

import (
	"context"
	"time"
)

// TelegramProfile содержит данные пользователя из транспортного слоя.
type TelegramProfile struct {
	TGUserID    int64
	DisplayName string
}

// Extractor превращает свободный текст в упорядоченную последовательность активностей.
// Порядок соответствует порядку упоминания в тексте.
type Extractor interface {
	Extract(ctx context.Context, narrative string) ([]Activity, error)
}

// Transcriber преобразует голосовое сообщение в текст.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// UserRepo управляет пользователями и их агрегатной статистикой.
type UserRepo interface {
	GetOrCreate(ctx context.Context, profile TelegramProfile) (User, bool, error)
	GetByTGID(ctx context.Context, tgUserID int64) (User, error)
	GetStats(ctx context.Context, tgUserID int64) (UserStats, error)
}

// ActivityWindow задаёт полуоткрытый интервал [Start, End) для выборки.
type ActivityWindow struct {
	Start *time.Time
	End   *time.Time
}

// ActivityRepo сохраняет активности и атомарно обновляет статистику владельца.
type ActivityRepo interface {
	// LogActivity добавляет запись и в той же транзакции инкрементирует
	// счётчики и пересчитывает серию. Вызовы по одному пользователю
	// сериализуются, по разным — независимы.
	LogActivity(ctx context.Context, tgUserID int64, activity Activity) (Activity, error)
	ListRecent(ctx context.Context, tgUserID int64, limit int, window ActivityWindow) ([]Activity, error)
}

// HabitRepo управляет целями по привычкам.
type HabitRepo interface {
	// UpsertGoal заменяет целевые поля существующей цели (user, name)
	// либо создаёт новую с нулевыми счётчиками.
	UpsertGoal(ctx context.Context, tgUserID int64, goal HabitGoal) (HabitGoal, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}

// NextStreak применяет правило серии: первая активность начинает серию,
// активность не позднее суток после предыдущей продлевает её, иначе
// серия начинается заново с единицы.
func NextStreak(current int, previousLast *time.Time, now time.Time) int {
	if previousLast == nil {
		return 1
	}
	if now.Sub(*previousLast) <= 24*time.Hour {
		return current + 1
	}
	return 1
}
