package habits

import (
	"context"
	"errors"
	"testing"
	"time"

	"habit-tracker-bot/internal/domain"
)

type stubHabitRepo struct {
	goals map[string]domain.HabitGoal
}

func newStubHabitRepo() *stubHabitRepo {
	return &stubHabitRepo{goals: make(map[string]domain.HabitGoal)}
}

func (s *stubHabitRepo) UpsertGoal(_ context.Context, tgUserID int64, goal domain.HabitGoal) (domain.HabitGoal, error) {
	key := goal.Name
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	if existing, ok := s.goals[key]; ok {
		existing.TargetFrequency = goal.TargetFrequency
		existing.TargetDurationMinutes = goal.TargetDurationMinutes
		existing.UpdatedAt = now.Add(time.Hour)
		s.goals[key] = existing
		return existing, nil
	}
	goal.ID = int64(len(s.goals) + 1)
	goal.UserID = tgUserID
	goal.CreatedAt = now
	goal.UpdatedAt = now
	s.goals[key] = goal
	return goal, nil
}

func TestUpsertGoalCreates(t *testing.T) {
	repo := newStubHabitRepo()
	svc := NewService(repo)

	goal, err := svc.UpsertGoal(context.Background(), 42, "reading", "", 30)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if goal.TargetFrequency != domain.DefaultTargetFrequency {
		t.Fatalf("пустая частота должна становиться daily, получили %q", goal.TargetFrequency)
	}
	if goal.StreakDays != 0 || goal.TotalCompletions != 0 {
		t.Fatalf("новая цель должна иметь нулевые счётчики: %+v", goal)
	}
}

func TestUpsertGoalReplacesTargetsKeepsCounters(t *testing.T) {
	repo := newStubHabitRepo()
	svc := NewService(repo)

	if _, err := svc.UpsertGoal(context.Background(), 42, "reading", "daily", 30); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	// счётчики заполняются вне конвейера, эмулируем накопленное значение
	g := repo.goals["reading"]
	g.StreakDays = 4
	g.TotalCompletions = 12
	repo.goals["reading"] = g

	updated, err := svc.UpsertGoal(context.Background(), 42, "reading", "weekly", 60)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if updated.TargetFrequency != "weekly" || updated.TargetDurationMinutes != 60 {
		t.Fatalf("целевые поля должны заменяться: %+v", updated)
	}
	if updated.StreakDays != 4 || updated.TotalCompletions != 12 {
		t.Fatalf("счётчики существующей цели должны сохраняться: %+v", updated)
	}
}

func TestUpsertGoalValidation(t *testing.T) {
	svc := NewService(newStubHabitRepo())

	if _, err := svc.UpsertGoal(context.Background(), 42, "  ", "daily", 0); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("ожидали ErrNameEmpty, получили %v", err)
	}
	var vErr *domain.ValidationError
	if _, err := svc.UpsertGoal(context.Background(), 42, "reading", "daily", -5); !errors.As(err, &vErr) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}
}
