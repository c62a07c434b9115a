package habits

import (
	"context"
	"errors"
	"strings"

	"habit-tracker-bot/internal/domain"
)

// ErrNameEmpty возвращается, когда имя цели не задано.
var ErrNameEmpty = errors.New("имя цели не задано")

// Service реализует реестр целей по привычкам. Реестр намеренно не
// связан с конвейером логирования активностей.
type Service struct {
	habits domain.HabitRepo
}

// NewService создаёт сервис целей.
func NewService(habits domain.HabitRepo) *Service {
	return &Service{habits: habits}
}

// UpsertGoal создаёт или обновляет цель пользователя. Повторный вызов с
// тем же именем заменяет целевые поля и не сбрасывает счётчики.
func (s *Service) UpsertGoal(ctx context.Context, tgUserID int64, name, frequency string, targetMinutes int) (domain.HabitGoal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.HabitGoal{}, ErrNameEmpty
	}
	frequency = strings.TrimSpace(frequency)
	if frequency == "" {
		frequency = domain.DefaultTargetFrequency
	}
	if targetMinutes < 0 {
		return domain.HabitGoal{}, &domain.ValidationError{Field: "target_duration", Reason: "отрицательная целевая длительность"}
	}
	return s.habits.UpsertGoal(ctx, tgUserID, domain.HabitGoal{
		Name:                  name,
		TargetFrequency:       frequency,
		TargetDurationMinutes: targetMinutes,
	})
}
