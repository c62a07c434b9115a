package telegram

import (
	"strings"
	"testing"
)

func TestSplitMessageShort(t *testing.T) {
	parts := SplitMessage("  короткое сообщение  ")
	if len(parts) != 1 || parts[0] != "короткое сообщение" {
		t.Fatalf("ожидали одну обрезанную часть, получили %#v", parts)
	}
}

func TestSplitMessageEmpty(t *testing.T) {
	if parts := SplitMessage("   "); parts != nil {
		t.Fatalf("пустой текст не должен давать частей, получили %#v", parts)
	}
}

func TestSplitMessagePrefersNewlines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 300; i++ {
		b.WriteString("⏰ 06:30 - wake up 😐\n")
	}
	parts := SplitMessage(b.String())
	if len(parts) < 2 {
		t.Fatalf("длинный журнал должен разбиваться, получили %d частей", len(parts))
	}
	for idx, part := range parts {
		if len([]rune(part)) > messageLimit {
			t.Fatalf("часть %d превышает лимит", idx)
		}
		if strings.HasPrefix(part, "06:30") || !strings.HasPrefix(part, "⏰") {
			t.Fatalf("разрез должен проходить по переводу строки, часть %d: %q", idx, part[:20])
		}
	}
}
