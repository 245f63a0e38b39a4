package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

// PostgresStore persists sessions in the sessions table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type sessionRow struct {
	UserID          int64          `db:"user_id"`
	ChatID          int64          `db:"chat_id"`
	Command         string         `db:"command"`
	Step            string         `db:"step"`
	Version         int64          `db:"version"`
	TransactionData types.JSONText `db:"transaction_data"`
	CommandData     types.JSONText `db:"command_data"`
	Messages        types.JSONText `db:"messages"`
	NoticeMessageID int            `db:"notice_message_id"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	ExpiresAt       time.Time      `db:"expires_at"`
}

func (r *sessionRow) toSession() (*Session, error) {
	s := &Session{
		UserID:          r.UserID,
		ChatID:          r.ChatID,
		Command:         r.Command,
		Step:            r.Step,
		Version:         r.Version,
		NoticeMessageID: r.NoticeMessageID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		ExpiresAt:       r.ExpiresAt,
	}
	if err := json.Unmarshal(r.TransactionData, &s.TransactionData); err != nil {
		return nil, fmt.Errorf("session: decode transaction_data: %w", err)
	}
	if err := json.Unmarshal(r.CommandData, &s.CommandData); err != nil {
		return nil, fmt.Errorf("session: decode command_data: %w", err)
	}
	if err := json.Unmarshal(r.Messages, &s.Messages); err != nil {
		return nil, fmt.Errorf("session: decode messages: %w", err)
	}
	if s.TransactionData == nil {
		s.TransactionData = make(map[string]string)
	}
	if s.CommandData == nil {
		s.CommandData = make(map[string]string)
	}
	return s, nil
}

func encodeBlobs(s *Session) (txData, cmdData, messages []byte, err error) {
	if txData, err = json.Marshal(s.TransactionData); err != nil {
		return nil, nil, nil, fmt.Errorf("session: encode transaction_data: %w", err)
	}
	if cmdData, err = json.Marshal(s.CommandData); err != nil {
		return nil, nil, nil, fmt.Errorf("session: encode command_data: %w", err)
	}
	msgs := s.Messages
	if msgs == nil {
		msgs = []int{}
	}
	if messages, err = json.Marshal(msgs); err != nil {
		return nil, nil, nil, fmt.Errorf("session: encode messages: %w", err)
	}
	return txData, cmdData, messages, nil
}

// Load implements Store.
func (p *PostgresStore) Load(ctx context.Context, userID, chatID int64) (*Session, error) {
	var row sessionRow
	err := p.db.GetContext(ctx, &row, `
		SELECT user_id, chat_id, command, step, version,
		       transaction_data, command_data, messages, notice_message_id,
		       created_at, updated_at, expires_at
		  FROM sessions
		 WHERE user_id = $1 AND chat_id = $2`,
		userID, chatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	return row.toSession()
}

// Save implements Store. A zero-version session supersedes any existing
// record for the pair; a loaded session is saved with an optimistic
// version check.
func (p *PostgresStore) Save(ctx context.Context, s *Session) error {
	txData, cmdData, messages, err := encodeBlobs(s)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	ttl := s.ExpiresAt.Sub(s.UpdatedAt)
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)

	if s.Version == 0 {
		return p.db.GetContext(ctx, &s.Version, `
			INSERT INTO sessions (user_id, chat_id, command, step, version,
			                      transaction_data, command_data, messages,
			                      notice_message_id, created_at, updated_at, expires_at)
			VALUES ($1, $2, $3, $4, 1, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (user_id, chat_id) DO UPDATE SET
				command = EXCLUDED.command,
				step = EXCLUDED.step,
				version = sessions.version + 1,
				transaction_data = EXCLUDED.transaction_data,
				command_data = EXCLUDED.command_data,
				messages = EXCLUDED.messages,
				notice_message_id = EXCLUDED.notice_message_id,
				created_at = EXCLUDED.created_at,
				updated_at = EXCLUDED.updated_at,
				expires_at = EXCLUDED.expires_at
			RETURNING version`,
			s.UserID, s.ChatID, s.Command, s.Step,
			txData, cmdData, messages,
			s.NoticeMessageID, s.CreatedAt, s.UpdatedAt, s.ExpiresAt,
		)
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE sessions SET
			command = $3, step = $4, version = version + 1,
			transaction_data = $5, command_data = $6, messages = $7,
			notice_message_id = $8, updated_at = $9, expires_at = $10
		 WHERE user_id = $1 AND chat_id = $2 AND version = $11`,
		s.UserID, s.ChatID, s.Command, s.Step,
		txData, cmdData, messages,
		s.NoticeMessageID, s.UpdatedAt, s.ExpiresAt, s.Version,
	)
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	if n == 0 {
		return ErrStale
	}
	s.Version++
	return nil
}

// Delete implements Store.
func (p *PostgresStore) Delete(ctx context.Context, userID, chatID int64, opts DeleteOptions) ([]int, error) {
	var row struct {
		Messages        types.JSONText `db:"messages"`
		NoticeMessageID int            `db:"notice_message_id"`
	}
	err := p.db.GetContext(ctx, &row, `
		DELETE FROM sessions
		 WHERE user_id = $1 AND chat_id = $2
		 RETURNING messages, notice_message_id`,
		userID, chatID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: delete: %w", err)
	}
	if !opts.DropMessages {
		return nil, nil
	}
	var tracked []int
	if err := json.Unmarshal(row.Messages, &tracked); err != nil {
		return nil, fmt.Errorf("session: decode messages: %w", err)
	}
	return filterNotice(tracked, row.NoticeMessageID, opts.KeepNotice), nil
}

// ExpireAll implements Store.
func (p *PostgresStore) ExpireAll(ctx context.Context) (int, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("session: expire: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("session: expire: %w", err)
	}
	return int(n), nil
}

func filterNotice(tracked []int, noticeID int, keepNotice bool) []int {
	if !keepNotice || noticeID == 0 {
		return tracked
	}
	out := tracked[:0]
	for _, id := range tracked {
		if id != noticeID {
			out = append(out, id)
		}
	}
	return out
}
