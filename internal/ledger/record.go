package ledger

import "time"

// Record is one dispatch attempt. Destination, Message and CreatedAt are
// write-once; State, DurationSeconds and LastError change as the provider
// reports progress. ProviderSID is set once the provider accepts the call
// and is the only correlation key for status events.
type Record struct {
	ID          string `json:"id"`
	Destination string `json:"phone_number"`
	Message     string `json:"message"`

	State State `json:"status"`

	ProviderSID string `json:"call_sid,omitempty"`

	// DurationSeconds is reported by the provider with terminal events.
	DurationSeconds int `json:"duration"`

	// LastError is set only when State == StateFailed.
	LastError string `json:"error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type State string

const (
	StatePending    State = "Pending"
	StateInitiated  State = "Initiated"
	StateRinging    State = "Ringing"
	StateAnswered   State = "Answered"
	StateInProgress State = "InProgress"
	StateCompleted  State = "Completed"
	StateFailed     State = "Failed"
	StateUnknown    State = "Unknown"
)

// Terminal reports whether no further lifecycle change is expected.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
