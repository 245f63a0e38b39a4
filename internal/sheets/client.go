// Package sheets mirrors committed transactions to an external spreadsheet
// webhook. Mirroring is strictly best-effort: a failure is reported to the
// user as a warning and never affects the already-committed ledger record.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"log/slog"

	"github.com/kappu72/enbot-sub001/internal/ledger"
	"github.com/kappu72/enbot-sub001/internal/logger"
)

// Mirror is the narrow contract consumed by the commands.
type Mirror interface {
	Append(ctx context.Context, tx *ledger.Transaction) error
}

// Client posts one row per transaction to the configured webhook.
type Client struct {
	url    string
	secret string
	hc     *http.Client
}

// NewClient builds a mirror client. The caller is expected to skip
// mirroring entirely when no webhook URL is configured.
func NewClient(url, secret string) *Client {
	return &Client{
		url:    url,
		secret: secret,
		hc: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       30 * time.Second,
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: 10 * time.Second,
			},
		},
	}
}

type appendRequest struct {
	Secret      string  `json:"secret,omitempty"`
	ID          int64   `json:"id"`
	Kind        string  `json:"kind"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
	Period      string  `json:"period"`
	Contact     string  `json:"contact,omitempty"`
	Username    string  `json:"username"`
	CreatedAt   string  `json:"created_at"`
}

// Append implements Mirror.
func (c *Client) Append(ctx context.Context, tx *ledger.Transaction) error {
	body, err := json.Marshal(appendRequest{
		Secret:      c.secret,
		ID:          tx.ID,
		Kind:        tx.Kind,
		Category:    tx.Category,
		Amount:      tx.Amount,
		Description: tx.Description,
		Period:      tx.Period,
		Contact:     tx.Contact,
		Username:    tx.Username,
		CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("sheets: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sheets: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("sheets: post: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets: webhook status %s", resp.Status)
	}

	logger.Sheets.Debug("transaction mirrored",
		slog.String("event", "mirror.append"),
		slog.Int64("tx_id", tx.ID),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return nil
}
