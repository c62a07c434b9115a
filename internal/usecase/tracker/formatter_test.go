package tracker

import (
	"strings"
	"testing"
	"time"

	"habit-tracker-bot/internal/domain"
)

func TestFormatActivitiesEmpty(t *testing.T) {
	if got := FormatActivities(nil); got != EmptyLogMessage {
		t.Fatalf("ожидали сообщение о пустом журнале, получили %q", got)
	}
}

func TestFormatActivities(t *testing.T) {
	activities := []domain.Activity{
		{TimeOfDay: "06:30", Description: "wake up", DurationMinutes: 0, Sentiment: domain.SentimentNeutral},
		{TimeOfDay: "06:30", Description: "breakfast", DurationMinutes: 45, Sentiment: domain.SentimentPositive},
		{TimeOfDay: "22:00", Description: "doomscrolling", DurationMinutes: 30, Sentiment: "confused"},
	}
	got := FormatActivities(activities)

	mustContain(t, got, "📋 Here's your activity log:")
	mustContain(t, got, "⏰ 06:30 - wake up 😐")
	mustContain(t, got, "⏰ 06:30 - breakfast (45 mins) 😊")
	// неизвестное настроение отображается нейтральным глифом
	mustContain(t, got, "⏰ 22:00 - doomscrolling (30 mins) 😐")
	if strings.Contains(got, "wake up (0 mins)") || strings.Contains(got, "wake up (") {
		t.Fatalf("нулевая длительность не должна отображаться: %q", got)
	}

	lines := strings.Split(got, "\n")
	if lines[len(lines)-3] != "⏰ 06:30 - wake up 😐" {
		t.Fatalf("записи должны идти в порядке входа: %q", got)
	}
}

func TestFormatStats(t *testing.T) {
	last := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	stats := domain.UserStats{
		TotalActivities:      7,
		TotalDurationMinutes: 230,
		StreakDays:           3,
		LastActivityAt:       &last,
	}
	recent := []domain.Activity{
		{TimeOfDay: "09:00", Description: "run"},
		{TimeOfDay: "08:00", Description: "breakfast"},
		{TimeOfDay: "07:30", Description: "shower"},
		{TimeOfDay: "07:00", Description: "wake up"},
		{TimeOfDay: "06:50", Description: "snooze"},
		{TimeOfDay: "06:40", Description: "snooze again"},
	}

	got := FormatStats(stats, recent)
	mustContain(t, got, "🏃 Total activities: 7")
	mustContain(t, got, "⏱ Total time: 230 mins")
	mustContain(t, got, "🔥 Streak: 3 days")
	mustContain(t, got, "⏰ 09:00 - run")
	if strings.Contains(got, "snooze again") {
		t.Fatalf("вывод должен ограничиваться пятью последними активностями: %q", got)
	}
}

func TestFormatStatsWithoutRecent(t *testing.T) {
	got := FormatStats(domain.UserStats{}, nil)
	mustContain(t, got, "🏃 Total activities: 0")
	if strings.Contains(got, "Recent activities") {
		t.Fatalf("без активностей раздел недавних не выводится: %q", got)
	}
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("ожидали найти подстроку %q в %q", substr, s)
	}
}
