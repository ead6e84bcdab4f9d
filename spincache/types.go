// Package spincache implements the opportunistic result cache described
// in spec §4.6: a keyed (corpus, template) → materialized-result-handle
// cache with bounded TTL and cursor-based pagination, so an external
// server can hand a caller a cursor instead of re-running a search.
//
// A cache miss simply re-executes the query; nothing depends on an entry
// surviving, which keeps the eviction and expiry policy simple (LRU by
// capacity, lazy expiry by wall-clock) at the cost of callers needing to
// handle a cursor going stale.
package spincache

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/context-fabric/fabric/codec"
	"github.com/context-fabric/fabric/spin"
)

// Key identifies a cacheable query: the corpus it ran against plus the
// exact template text and return type that produced the tuples. Two
// searches with the same Key are guaranteed to produce the same tuple
// list (spec §8 invariant 9, result order is deterministic), so a Key
// hit can serve a fresh request without re-executing the join.
type Key struct {
	CorpusID   string
	Template   string
	ReturnType spin.ReturnType
}

// Handle is the materialized result of one search, addressable by a
// cursor-stable ID independent of Key so a caller can keep paging even
// after the corpus has moved past it in the LRU.
type Handle struct {
	ID        string
	Key       Key
	Tuples    []spin.Tuple
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the handle has outlived its TTL as of now.
func (h *Handle) Expired(now time.Time) bool {
	return !h.ExpiresAt.IsZero() && now.After(h.ExpiresAt)
}

func newHandleID() string {
	return uuid.NewString()
}

// Cursor is the externally-opaque pagination token spec §4.6's
// search_continue(cursor, offset, limit) server contract hands back to
// callers: a handle ID plus the next offset to resume from.
type Cursor struct {
	HandleID string `json:"handle_id"`
	Offset   int    `json:"offset"`
}

// EncodeCursor renders a Cursor as an opaque, URL-safe token using the
// package-wide default codec. The codec name is embedded so a future
// codec change can still decode older tokens by name rather than by
// guessing.
func EncodeCursor(c Cursor) (string, error) {
	body, err := codec.Default.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("spincache: encode cursor: %w", err)
	}
	return codec.Default.Name() + "." + base64.RawURLEncoding.EncodeToString(body), nil
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	name, encoded, ok := splitToken(token)
	if !ok {
		return Cursor{}, fmt.Errorf("spincache: malformed cursor token")
	}
	c, ok := codec.ByName(name)
	if !ok {
		return Cursor{}, fmt.Errorf("spincache: unknown cursor codec %q", name)
	}
	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Cursor{}, fmt.Errorf("spincache: decode cursor: %w", err)
	}
	var out Cursor
	if err := c.Unmarshal(body, &out); err != nil {
		return Cursor{}, fmt.Errorf("spincache: decode cursor: %w", err)
	}
	return out, nil
}

func splitToken(token string) (name, encoded string, ok bool) {
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			return token[:i], token[i+1:], true
		}
	}
	return "", "", false
}
