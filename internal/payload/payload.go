// Package payload implements the versioned codec for Telegram callback data.
//
// All multi-round button state (pagination offsets, partially selected
// month/year) is round-tripped through the remote client inside the button
// payload itself, so the wire format must stay unambiguous as dimensions are
// added. The format is:
//
//	<version>|<kind>|k=v;k=v
//
// with keys sorted and values percent-escaped. Telegram caps callback data
// at 64 bytes, so keys and kinds are kept deliberately short.
package payload

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Version is the current payload format version.
const Version = "1"

// MaxLen is Telegram's limit on callback data length.
const MaxLen = 64

// Payload kinds understood by the flow steps.
const (
	KindCategory = "cat"    // category selected: id, pg
	KindContact  = "cnt"    // contact selected: id, pg
	KindNav      = "nav"    // pagination: pg, noop
	KindPeriod   = "per"    // period picker: m, y (either may be absent)
	KindNew      = "new"    // switch a button step to free-text input
	KindCancel   = "cancel" // abort the active flow
)

var (
	// ErrMalformed indicates callback data that does not parse as a payload.
	ErrMalformed = errors.New("payload: malformed callback data")
	// ErrVersion indicates a payload produced by an incompatible bot build.
	ErrVersion = errors.New("payload: unsupported version")
)

// Payload is one decoded button payload.
type Payload struct {
	Kind   string
	Fields map[string]string
}

// New builds a payload of the given kind with optional key/value pairs.
func New(kind string, kv ...string) Payload {
	p := Payload{Kind: kind, Fields: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		p.Fields[kv[i]] = kv[i+1]
	}
	return p
}

// Get returns the value for a field, or "" when absent.
func (p Payload) Get(key string) string {
	return p.Fields[key]
}

// Has reports whether a field is present.
func (p Payload) Has(key string) bool {
	_, ok := p.Fields[key]
	return ok
}

// Int returns a field parsed as int, with ok=false on absence or bad syntax.
func (p Payload) Int(key string) (int, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Int64 returns a field parsed as int64, with ok=false on absence or bad syntax.
func (p Payload) Int64(key string) (int64, bool) {
	v, ok := p.Fields[key]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// With returns a copy of the payload with one field set.
func (p Payload) With(key, value string) Payload {
	out := Payload{Kind: p.Kind, Fields: make(map[string]string, len(p.Fields)+1)}
	for k, v := range p.Fields {
		out.Fields[k] = v
	}
	out.Fields[key] = value
	return out
}

// Encode renders the payload in wire format. Keys are sorted so the output
// is deterministic.
func Encode(p Payload) string {
	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(Version)
	b.WriteByte('|')
	b.WriteString(p.Kind)
	b.WriteByte('|')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Fields[k]))
	}
	return b.String()
}

// Decode parses wire-format callback data back into a Payload.
func Decode(data string) (Payload, error) {
	parts := strings.SplitN(data, "|", 3)
	if len(parts) != 3 {
		return Payload{}, ErrMalformed
	}
	if parts[0] != Version {
		return Payload{}, fmt.Errorf("%w: %q", ErrVersion, parts[0])
	}
	kind := parts[1]
	if kind == "" {
		return Payload{}, ErrMalformed
	}

	p := Payload{Kind: kind, Fields: make(map[string]string)}
	if parts[2] == "" {
		return p, nil
	}
	for _, pair := range strings.Split(parts[2], ";") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return Payload{}, ErrMalformed
		}
		unescaped, err := url.QueryUnescape(v)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: field %s", ErrMalformed, k)
		}
		p.Fields[k] = unescaped
	}
	return p, nil
}
