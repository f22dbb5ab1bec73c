package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrKeyNotFound  = errors.New("inventory key not found")
	ErrInvalidCount = errors.New("inventory count must not be negative")
	ErrInvalidKey   = errors.New("seat class id must be non-empty and must not contain ':'")
)

// Key identifies the remaining-ticket counter of one seat class of an event.
type Key struct {
	EventID     string
	SeatClassID string
}

func (k Key) String() string {
	return fmt.Sprintf("tickets:%s:%s", k.EventID, k.SeatClassID)
}

// Validate rejects seat class ids that would make a key ambiguous. The seat
// class is always the last segment, so event ids may contain ':'.
func (k Key) Validate() error {
	if k.SeatClassID == "" || strings.Contains(k.SeatClassID, ":") {
		return ErrInvalidKey
	}
	return nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

// EventPattern is a SCAN pattern for the counter keys of an event. Glob
// characters in the event id are escaped; the pattern still over-matches
// events whose id extends this one past a ':', so filter with BelongsTo.
func EventPattern(eventID string) string {
	return "tickets:" + globEscaper.Replace(eventID) + ":*"
}

// BelongsTo reports whether key is a counter key of exactly eventID.
func BelongsTo(key, eventID string) bool {
	seatClass, ok := strings.CutPrefix(key, "tickets:"+eventID+":")
	return ok && seatClass != "" && !strings.Contains(seatClass, ":")
}

type DecrementResult int

const (
	DecrementSuccess DecrementResult = iota
	DecrementSoldOut
	DecrementKeyNotFound
	DecrementError
)

func (r DecrementResult) String() string {
	switch r {
	case DecrementSuccess:
		return "success"
	case DecrementSoldOut:
		return "sold_out"
	case DecrementKeyNotFound:
		return "key_not_found"
	default:
		return "error"
	}
}

type IncrementResult int

const (
	IncrementSuccess IncrementResult = iota
	IncrementKeyNotFound
	IncrementError
)

func (r IncrementResult) String() string {
	switch r {
	case IncrementSuccess:
		return "success"
	case IncrementKeyNotFound:
		return "key_not_found"
	default:
		return "error"
	}
}

// CounterStore holds per seat class ticket counters shared by every booking
// service instance. TryDecrement and TryIncrement are atomic on the server
// so N initialized tickets allow at most N successful decrements.
type CounterStore interface {
	// Initialize overwrites the counter with count.
	Initialize(ctx context.Context, key Key, count int64) error

	// TryDecrement takes one ticket if any remain.
	TryDecrement(ctx context.Context, key Key) DecrementResult

	// TryIncrement returns one ticket. A missing key is reported, never created.
	TryIncrement(ctx context.Context, key Key) IncrementResult

	// Get is a point-in-time read for display only.
	Get(ctx context.Context, key Key) (int64, error)

	// ClearAll removes every counter of the event. Nothing to remove is not an error.
	ClearAll(ctx context.Context, eventID string) error

	// Health check
	Ping(ctx context.Context) error
}
