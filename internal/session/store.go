package session

import (
	"context"
	"errors"
)

var (
	// ErrNotFound means no active session exists for the (user, chat) pair.
	// It is not an error condition for the router; it means "no active flow".
	ErrNotFound = errors.New("session: not found")

	// ErrStale means the session was modified since it was loaded; the
	// caller lost an optimistic-concurrency race and must re-render.
	ErrStale = errors.New("session: stale save")
)

// DeleteOptions controls what Delete returns for cleanup.
type DeleteOptions struct {
	// DropMessages asks for the tracked prompt message ids back so the
	// caller can delete them from the chat.
	DropMessages bool
	// KeepNotice excludes the designated final-notification message from
	// the returned cleanup set.
	KeepNotice bool
}

// Store is durable keyed storage for sessions.
type Store interface {
	// Load returns the session for the pair, or ErrNotFound. Expiry is an
	// advisory TTL: Load may return an expired-but-unswept session and the
	// caller must not trust it.
	Load(ctx context.Context, userID, chatID int64) (*Session, error)

	// Save upserts the session wholesale. A session with Version 0
	// overwrites any existing record (supersede); a loaded session carries
	// its version and fails with ErrStale when it lost a concurrent update.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session and returns the message ids the caller
	// should clean up, per options. Deleting an absent session returns
	// ErrNotFound.
	Delete(ctx context.Context, userID, chatID int64, opts DeleteOptions) ([]int, error)

	// ExpireAll deletes sessions whose expiry timestamp has passed and
	// returns how many were removed.
	ExpireAll(ctx context.Context) (int, error)
}
