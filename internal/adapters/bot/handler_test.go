package bot

import (
	"errors"
	"strings"
	"testing"

	"habit-tracker-bot/internal/domain"
)

func TestParseGoalArgs(t *testing.T) {
	name, frequency, minutes, err := parseGoalArgs("reading daily 30")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if name != "reading" || frequency != "daily" || minutes != 30 {
		t.Fatalf("получили %q %q %d", name, frequency, minutes)
	}
}

func TestParseGoalArgsNameOnly(t *testing.T) {
	name, frequency, minutes, err := parseGoalArgs("morning run")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if name != "morning run" || frequency != "" || minutes != 0 {
		t.Fatalf("получили %q %q %d", name, frequency, minutes)
	}
}

func TestParseGoalArgsMinutesWithoutFrequency(t *testing.T) {
	name, frequency, minutes, err := parseGoalArgs("reading 45")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if name != "reading" || frequency != "" || minutes != 45 {
		t.Fatalf("получили %q %q %d", name, frequency, minutes)
	}
}

func TestErrorTextMapsPipelineFailures(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{domain.ErrTranscription, "transcribe"},
		{domain.ErrExtraction, "extract"},
		{domain.ErrPersistence, "save"},
		{domain.ErrUserNotFound, "/start"},
		{&domain.ValidationError{Field: "time", Reason: "bad time"}, "bad time"},
		{errors.New("raw provider detail"), "something went wrong"},
	}
	for _, tc := range cases {
		got := errorText(tc.err)
		if !strings.Contains(got, tc.want) {
			t.Fatalf("для %v ожидали подстроку %q, получили %q", tc.err, tc.want, got)
		}
	}
	// сырая ошибка провайдера не утекает в ответ
	if strings.Contains(errorText(errors.New("api key sk-12345 rejected")), "sk-12345") {
		t.Fatal("текст ошибки провайдера не должен попадать в ответ пользователю")
	}
}
