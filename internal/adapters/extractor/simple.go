package extractor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"habit-tracker-bot/internal/domain"
)

// SimpleExtractor реализует domain.Extractor эвристикой без внешних
// сервисов. Используется в dev-режиме и в тестах, когда ключ OpenAI
// не задан.
type SimpleExtractor struct{}

// NewSimple создаёт эвристический извлекатель.
func NewSimple() *SimpleExtractor {
	return &SimpleExtractor{}
}

var _ domain.Extractor = (*SimpleExtractor)(nil)

var (
	clockRe    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	atHourRe   = regexp.MustCompile(`\bat (\d{1,2})\b`)
	forMinsRe  = regexp.MustCompile(`\bfor (\d+) (?:minutes|minute|mins|min)\b`)
	forHoursRe = regexp.MustCompile(`\bfor (\d+) (?:hours|hour|hrs)\b`)
	untilRe    = regexp.MustCompile(`\buntil (\d{1,2})(?::(\d{2}))?\b`)
)

var positiveWords = []string{"great", "good", "wonderful", "nice", "happy", "productive", "enjoyed"}
var negativeWords = []string{"bad", "terrible", "awful", "tired", "stressful", "boring", "sad"}

// Extract разбирает текст на клаузы и превращает каждое упоминание
// времени в запись. Клаузы без явного времени наследуют время
// окончания предыдущей активности.
func (s *SimpleExtractor) Extract(ctx context.Context, narrative string) ([]domain.Activity, error) {
	_ = ctx
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return nil, nil
	}

	var activities []domain.Activity
	prevStart := -1 // минуты от полуночи
	prevDuration := 0

	for _, clause := range splitClauses(narrative) {
		lower := strings.ToLower(clause)

		startMins := -1
		if m := clockRe.FindStringSubmatch(lower); m != nil && untilRe.FindStringIndex(lower) == nil {
			h, _ := strconv.Atoi(m[1])
			min, _ := strconv.Atoi(m[2])
			if h < 24 && min < 60 {
				startMins = h*60 + min
			}
		} else if m := atHourRe.FindStringSubmatch(lower); m != nil {
			h, _ := strconv.Atoi(m[1])
			if h < 24 {
				startMins = h * 60
			}
		}

		duration := 0
		if m := forMinsRe.FindStringSubmatch(lower); m != nil {
			duration, _ = strconv.Atoi(m[1])
		} else if m := forHoursRe.FindStringSubmatch(lower); m != nil {
			hours, _ := strconv.Atoi(m[1])
			duration = hours * 60
		}

		// "until 7:15" наследует старт предыдущей активности и
		// выводит длительность из разницы.
		if m := untilRe.FindStringSubmatch(lower); m != nil && prevStart >= 0 {
			h, _ := strconv.Atoi(m[1])
			min := 0
			if m[2] != "" {
				min, _ = strconv.Atoi(m[2])
			}
			if h < 24 && min < 60 {
				end := h*60 + min
				startMins = prevStart
				if end > startMins {
					duration = end - startMins
				}
			}
		}

		if startMins < 0 {
			if prevStart < 0 {
				continue // явного времени нет и выводить не из чего
			}
			startMins = prevStart + prevDuration
			if startMins >= 24*60 {
				startMins = prevStart
			}
		}

		description := cleanDescription(lower)
		if description == "" {
			continue
		}

		activity := domain.Activity{
			TimeOfDay:       fmt.Sprintf("%02d:%02d", startMins/60, startMins%60),
			Description:     description,
			DurationMinutes: duration,
			Sentiment:       detectSentiment(lower),
		}
		if err := activity.Validate(); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
		prevStart = startMins
		prevDuration = duration
	}

	return activities, nil
}

func splitClauses(text string) []string {
	normalized := strings.NewReplacer(
		" and then ", ", ",
		" then ", ", ",
		"; ", ", ",
		". ", ", ",
	).Replace(text)
	normalized = strings.TrimSuffix(normalized, ".")
	parts := strings.Split(normalized, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func cleanDescription(clause string) string {
	cleaned := clockRe.ReplaceAllString(clause, "")
	cleaned = untilRe.ReplaceAllString(cleaned, "")
	cleaned = atHourRe.ReplaceAllString(cleaned, "")
	cleaned = forMinsRe.ReplaceAllString(cleaned, "")
	cleaned = forHoursRe.ReplaceAllString(cleaned, "")
	for _, w := range append(append([]string{}, positiveWords...), negativeWords...) {
		cleaned = strings.ReplaceAll(cleaned, " "+w+" ", " ")
	}
	for _, prefix := range []string{"i ", "we ", "had a ", "had ", "went ", "was "} {
		cleaned = strings.TrimPrefix(cleaned, prefix)
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), " at")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), " until")
	return strings.Join(strings.Fields(cleaned), " ")
}

func detectSentiment(clause string) domain.Sentiment {
	for _, w := range positiveWords {
		if strings.Contains(clause, w) {
			return domain.SentimentPositive
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(clause, w) {
			return domain.SentimentNegative
		}
	}
	return domain.SentimentNeutral
}
