package chat

import (
	"testing"
	"time"
)

func TestNewLog_SeededWithWelcome(t *testing.T) {
	log := NewLog(nil)

	msgs := log.Messages()
	if len(msgs) != 1 {
		t.Fatalf("new log has %d messages, want 1", len(msgs))
	}
	if msgs[0].Role != RoleAssistant {
		t.Errorf("welcome role = %q, want assistant", msgs[0].Role)
	}
	if msgs[0].Content != WelcomeText {
		t.Errorf("welcome content = %q, want WelcomeText", msgs[0].Content)
	}
}

func TestLog_AppendPreservesOrder(t *testing.T) {
	log := NewLog(nil)

	log.Append(Message{Role: RoleUser, Content: "first"})
	log.Append(Message{Role: RoleAssistant, Content: "second"})
	log.Append(Message{Role: RoleUser, Content: "third"})

	msgs := log.Messages()
	want := []string{WelcomeText, "first", "second", "third"}
	if len(msgs) != len(want) {
		t.Fatalf("log has %d messages, want %d", len(msgs), len(want))
	}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Errorf("message %d = %q, want %q", i, msgs[i].Content, w)
		}
	}
}

func TestLog_TimestampsStrictlyIncreasing(t *testing.T) {
	// A frozen clock forces the nudge path: every timestamp must still
	// advance past its predecessor.
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	log := NewLog(func() time.Time { return frozen })

	for i := 0; i < 10; i++ {
		log.Append(Message{Role: RoleUser, Content: "x"})
	}

	msgs := log.Messages()
	for i := 1; i < len(msgs); i++ {
		if !msgs[i].Timestamp.After(msgs[i-1].Timestamp) {
			t.Fatalf("timestamp %d (%v) not after %d (%v)",
				i, msgs[i].Timestamp, i-1, msgs[i-1].Timestamp)
		}
	}
}

func TestLog_AppendAssignsID(t *testing.T) {
	log := NewLog(nil)

	msg := log.Append(Message{Role: RoleUser, Content: "hello"})
	if msg.ID == "" {
		t.Error("appended message has empty ID")
	}
}

func TestLog_MessagesReturnsCopy(t *testing.T) {
	log := NewLog(nil)
	log.Append(Message{Role: RoleUser, Content: "original"})

	msgs := log.Messages()
	msgs[1].Content = "tampered"

	if log.Messages()[1].Content != "original" {
		t.Error("mutating the returned slice changed the log")
	}
}
