package security

import (
	"github.com/sentiscope/sentiscope/internal/domain"
)

// DefaultEventLogCapacity bounds the per-session security log.
const DefaultEventLogCapacity = 100

// EventLog is a bounded FIFO of security events. When full, the oldest entry
// is evicted. Owned exclusively by one session; callers serialize access.
type EventLog struct {
	capacity int
	entries  []domain.SecurityEvent
}

// NewEventLog creates an event log holding at most capacity entries.
// Non-positive capacity falls back to DefaultEventLogCapacity.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultEventLogCapacity
	}
	return &EventLog{capacity: capacity}
}

// Append records an event, evicting the oldest when the log is full.
func (l *EventLog) Append(event domain.SecurityEvent) {
	if len(l.entries) >= l.capacity {
		l.entries = append(l.entries[:0], l.entries[1:]...)
	}
	l.entries = append(l.entries, event)
}

// Recent returns a copy of the last n entries, most-recent-last.
// n larger than the log returns everything.
func (l *EventLog) Recent(n int) []domain.SecurityEvent {
	if n <= 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]domain.SecurityEvent, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Len reports the number of stored entries.
func (l *EventLog) Len() int {
	return len(l.entries)
}

// Reset drops all entries.
func (l *EventLog) Reset() {
	l.entries = l.entries[:0]
}
