// Package session persists the state of in-progress guided flows.
//
// A session is the only channel carrying state between two inbound Telegram
// updates: each update is handled by an independent invocation that rebuilds
// the whole flow from the persisted record.
package session

import (
	"time"
)

// Session is the persisted state of one in-progress flow for one user in
// one chat. At most one session exists per (user, chat) pair.
type Session struct {
	UserID  int64
	ChatID  int64
	Command string // owning command kind, e.g. "entrata"
	Step    string // current step name

	// Version supports optimistic concurrency: Save fails with ErrStale
	// when the stored version no longer matches the one read at Load.
	Version int64

	// TransactionData maps field name to validated value. It only grows or
	// is overwritten field by field, never partially rolled back.
	TransactionData map[string]string

	// CommandData holds ephemeral flow-control flags, e.g. the branching
	// flags of the chosen category or "awaiting free-text contact".
	CommandData map[string]string

	// Messages tracks prompt message ids so they can be cleaned up when the
	// flow ends. NoticeMessageID marks the one message to preserve.
	Messages        []int
	NoticeMessageID int

	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// New creates a fresh session positioned at the given first step.
func New(userID, chatID int64, command, step string, ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:          userID,
		ChatID:          chatID,
		Command:         command,
		Step:            step,
		TransactionData: make(map[string]string),
		CommandData:     make(map[string]string),
		CreatedAt:       now,
		UpdatedAt:       now,
		ExpiresAt:       now.Add(ttl),
	}
}

// SetField records a validated value for a field.
func (s *Session) SetField(name, value string) {
	if s.TransactionData == nil {
		s.TransactionData = make(map[string]string)
	}
	s.TransactionData[name] = value
}

// Field returns a collected field value.
func (s *Session) Field(name string) (string, bool) {
	v, ok := s.TransactionData[name]
	return v, ok
}

// SetFlag records an ephemeral flow-control flag.
func (s *Session) SetFlag(name, value string) {
	if s.CommandData == nil {
		s.CommandData = make(map[string]string)
	}
	s.CommandData[name] = value
}

// Flag returns an ephemeral flow-control flag, "" when absent.
func (s *Session) Flag(name string) string {
	return s.CommandData[name]
}

// ClearFlag removes an ephemeral flow-control flag.
func (s *Session) ClearFlag(name string) {
	delete(s.CommandData, name)
}

// TrackMessage records an outbound prompt message id for later cleanup.
func (s *Session) TrackMessage(id int) {
	if id == 0 {
		return
	}
	s.Messages = append(s.Messages, id)
}

// Expired reports whether the session's advisory TTL has passed.
// The sweep is periodic, so a loaded session may already be expired;
// callers must treat such a session as absent.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// clone returns a deep copy so store callers never alias stored state.
func (s *Session) clone() *Session {
	out := *s
	out.TransactionData = make(map[string]string, len(s.TransactionData))
	for k, v := range s.TransactionData {
		out.TransactionData[k] = v
	}
	out.CommandData = make(map[string]string, len(s.CommandData))
	for k, v := range s.CommandData {
		out.CommandData[k] = v
	}
	out.Messages = append([]int(nil), s.Messages...)
	return &out
}
