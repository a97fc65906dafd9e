package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// WelcomeText seeds every new conversation with the supported phrasings.
const WelcomeText = "Hi! Tell me about an expense or income in plain words - " +
	"for example \"coffee 3.50 card\" or \"salary 2400 bank transfer\" - " +
	"and I'll turn it into ledger entries."

// Log is the ordered, append-only record of conversation turns. Append is
// the only mutator; there is no reordering and no removal. It is safe for
// concurrent use.
type Log struct {
	mu       sync.RWMutex
	messages []Message
	lastTS   time.Time
	clock    func() time.Time
}

// NewLog creates a log seeded with the assistant welcome message.
func NewLog(clock func() time.Time) *Log {
	if clock == nil {
		clock = time.Now
	}
	l := &Log{clock: clock}
	l.Append(Message{Role: RoleAssistant, Content: WelcomeText})
	return l
}

// Append adds a message to the end of the log and returns it with its ID and
// timestamp filled in. Timestamps are strictly increasing in submission
// order; an appended message whose clock reading does not advance is nudged
// past its predecessor.
func (l *Log) Append(msg Message) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	ts := l.clock()
	if !ts.After(l.lastTS) {
		ts = l.lastTS.Add(time.Nanosecond)
	}
	msg.Timestamp = ts
	l.lastTS = ts

	l.messages = append(l.messages, msg)
	return msg
}

// Messages returns a copy of the log in order.
func (l *Log) Messages() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
