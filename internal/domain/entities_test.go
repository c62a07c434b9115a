package domain

import (
	"errors"
	"testing"
	"time"
)

func validActivity() Activity {
	return Activity{
		TimeOfDay:       "06:30",
		Description:     "wake up",
		DurationMinutes: 0,
		Sentiment:       SentimentNeutral,
	}
}

func TestActivityValidate(t *testing.T) {
	if err := validActivity().Validate(); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
}

func TestActivityValidateRejectsBadRecords(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Activity)
		field  string
	}{
		{"плохое время", func(a *Activity) { a.TimeOfDay = "25:70" }, "time"},
		{"время без формата", func(a *Activity) { a.TimeOfDay = "6.30 утра" }, "time"},
		{"пустое описание", func(a *Activity) { a.Description = "" }, "activity"},
		{"отрицательная длительность", func(a *Activity) { a.DurationMinutes = -5 }, "duration"},
		{"неизвестное настроение", func(a *Activity) { a.Sentiment = "ecstatic" }, "sentiment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := validActivity()
			tc.mutate(&a)
			err := a.Validate()
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("ожидали ValidationError, получили %v", err)
			}
			if vErr.Field != tc.field {
				t.Fatalf("ожидали поле %q, получили %q", tc.field, vErr.Field)
			}
		})
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	if got := NextStreak(0, nil, now); got != 1 {
		t.Fatalf("первая активность должна начинать серию с 1, получили %d", got)
	}

	prev := now.Add(-23 * time.Hour)
	if got := NextStreak(4, &prev, now); got != 5 {
		t.Fatalf("активность через 23 часа должна продлевать серию, получили %d", got)
	}

	prev = now.Add(-49 * time.Hour)
	if got := NextStreak(4, &prev, now); got != 1 {
		t.Fatalf("активность через 49 часов должна сбрасывать серию в 1, получили %d", got)
	}

	prev = now.Add(-24 * time.Hour)
	if got := NextStreak(2, &prev, now); got != 3 {
		t.Fatalf("ровно сутки ещё продлевают серию, получили %d", got)
	}
}
