package tracker

import (
	"fmt"
	"strings"

	"habit-tracker-bot/internal/domain"
)

// EmptyLogMessage возвращается, когда из сообщения не извлечено ни одной активности.
const EmptyLogMessage = "No activities found in the message."

const maxStatsActivities = 5

// sentimentGlyph возвращает эмодзи настроения; неизвестные значения
// отображаются как нейтральные.
func sentimentGlyph(s domain.Sentiment) string {
	switch s {
	case domain.SentimentPositive:
		return "😊"
	case domain.SentimentNegative:
		return "😕"
	default:
		return "😐"
	}
}

// FormatActivities формирует текстовое представление журнала активностей,
// по строке на запись в порядке следования.
func FormatActivities(activities []domain.Activity) string {
	if len(activities) == 0 {
		return EmptyLogMessage
	}

	var b strings.Builder
	b.WriteString("📋 Here's your activity log:\n\n")
	for _, a := range activities {
		duration := ""
		if a.DurationMinutes > 0 {
			duration = fmt.Sprintf(" (%d mins)", a.DurationMinutes)
		}
		b.WriteString(fmt.Sprintf("⏰ %s - %s%s %s\n", a.TimeOfDay, a.Description, duration, sentimentGlyph(a.Sentiment)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStats отображает накопленную статистику и последние активности.
func FormatStats(stats domain.UserStats, recent []domain.Activity) string {
	var b strings.Builder
	b.WriteString("📊 Your progress:\n\n")
	b.WriteString(fmt.Sprintf("🏃 Total activities: %d\n", stats.TotalActivities))
	b.WriteString(fmt.Sprintf("⏱ Total time: %d mins\n", stats.TotalDurationMinutes))
	b.WriteString(fmt.Sprintf("🔥 Streak: %d days\n", stats.StreakDays))

	if len(recent) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("\n🕓 Recent activities:\n")
	shown := recent
	if len(shown) > maxStatsActivities {
		shown = shown[:maxStatsActivities]
	}
	for _, a := range shown {
		b.WriteString(fmt.Sprintf("⏰ %s - %s\n", a.TimeOfDay, a.Description))
	}
	return strings.TrimRight(b.String(), "\n")
}
