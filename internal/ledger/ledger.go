package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrRecordNotFound = errors.New("ledger: record not found")

// Ledger is the in-memory registry of call records for the process
// lifetime. It is append-only: records are never removed, and all
// mutation goes through Ledger methods under a single lock so that
// Snapshot never observes a half-written record.
type Ledger struct {
	mu      sync.Mutex
	records []*Record
	bySID   map[string]*Record
}

func NewLedger() *Ledger {
	return &Ledger{bySID: make(map[string]*Record)}
}

// Append adds a new record and returns its id, the handle for later
// mutation. The record id is assigned here; any caller-provided id is
// ignored. CreatedAt defaults to now.
func (l *Ledger) Append(r Record) string {
	r.ID = uuid.NewString()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	stored := r
	l.records = append(l.records, &stored)
	return stored.ID
}

// MarkInitiated records the provider's synchronous acceptance: the call
// SID is attached and the record moves to Initiated. The SID becomes
// the lookup key for status events.
func (l *Ledger) MarkInitiated(id, providerSID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.findByID(id)
	if r == nil {
		return ErrRecordNotFound
	}
	r.ProviderSID = providerSID
	r.State = StateInitiated
	if providerSID != "" {
		l.bySID[providerSID] = r
	}
	return nil
}

// MarkFailed records a synchronous dispatch failure. The record stays in
// the ledger: a failed attempt is observable history.
func (l *Ledger) MarkFailed(id, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.findByID(id)
	if r == nil {
		return ErrRecordNotFound
	}
	r.State = StateFailed
	r.LastError = reason
	return nil
}

// ApplyStatusBySID merges an asynchronous provider event into the record
// carrying that SID. It returns false when no record matches; the caller
// is expected to discard such events (they may belong to calls this
// process did not originate, or may have raced ahead of MarkInitiated).
//
// A terminal record is never downgraded by a non-terminal event; a
// terminal event may overwrite a terminal record, so duplicate delivery
// of the same final event is harmless. Outside of that guard the latest
// event wins, whatever order the provider delivered them in.
func (l *Ledger) ApplyStatusBySID(sid string, state State, durationSeconds int) bool {
	if sid == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.bySID[sid]
	if !ok {
		return false
	}
	if r.State.Terminal() && !state.Terminal() {
		return true
	}
	r.State = state
	if state.Terminal() {
		r.DurationSeconds = durationSeconds
	}
	return true
}

// FindBySID returns a copy of the record carrying the given provider SID.
func (l *Ledger) FindBySID(sid string) (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.bySID[sid]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Snapshot returns point-in-time copies of all records in insertion
// order. The lock is held only for the copy, never for serialization.
func (l *Ledger) Snapshot() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = *r
	}
	return out
}

// Len reports the number of records appended so far.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// findByID must be called with l.mu held.
func (l *Ledger) findByID(id string) *Record {
	for _, r := range l.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}
