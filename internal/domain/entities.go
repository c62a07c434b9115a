package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentiment описывает настроение активности.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid проверяет, что значение входит в закрытый набор.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Activity представляет одну извлечённую активность пользователя.
type Activity struct {
	ID              uuid.UUID
	UserID          int64
	TimeOfDay       string // 24-часовой формат HH:MM
	Description     string
	DurationMinutes int
	Sentiment       Sentiment
	LoggedAt        time.Time
}

// Validate проверяет инварианты записи перед сохранением.
func (a Activity) Validate() error {
	if _, err := time.Parse("15:04", a.TimeOfDay); err != nil {
		return &ValidationError{Field: "time", Reason: fmt.Sprintf("некорректное время %q, ожидается HH:MM", a.TimeOfDay)}
	}
	if a.Description == "" {
		return &ValidationError{Field: "activity", Reason: "пустое описание активности"}
	}
	if a.DurationMinutes < 0 {
		return &ValidationError{Field: "duration", Reason: fmt.Sprintf("отрицательная длительность %d", a.DurationMinutes)}
	}
	if !a.Sentiment.Valid() {
		return &ValidationError{Field: "sentiment", Reason: fmt.Sprintf("неизвестное настроение %q", a.Sentiment)}
	}
	return nil
}

// UserSettings хранит настройки пользователя. Напоминания пока не рассылаются.
type UserSettings struct {
	Timezone      string
	DailyReminder bool
	ReminderTime  string
}

// UserStats содержит накопленную статистику пользователя.
type UserStats struct {
	TotalActivities      int
	TotalDurationMinutes int
	StreakDays           int
	LastActivityAt       *time.Time
}

// User описывает пользователя Telegram в системе.
type User struct {
	ID          int64
	TGUserID    int64
	DisplayName string
	Settings    UserSettings
	Stats       UserStats
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HabitGoal описывает именованную цель по привычке.
// Счётчики серии и выполнений конвейер логирования не обновляет,
// это отдельная подсистема.
type HabitGoal struct {
	ID                    int64
	UserID                int64
	Name                  string
	TargetFrequency       string
	TargetDurationMinutes int
	StreakDays            int
	TotalCompletions      int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// DefaultTargetFrequency используется, когда частота цели не указана.
const DefaultTargetFrequency = "daily"
