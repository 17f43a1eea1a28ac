package telephony

import (
	"context"
	"errors"

	"autodialer-platform/internal/ledger"
)

// Provider is the narrow contract the dispatch path depends on.
//
// Rules:
// - No provider SDK or REST calls outside telephony adapters.
// - Keep request/response types provider-agnostic; provider-specific
//   vocabulary is translated at the adapter boundary.
type Provider interface {
	Name() string
	InitiateCall(ctx context.Context, req CallRequest) (CallResult, error)
}

// ErrNotConfigured is returned by an adapter that has no credentials.
// Dispatch still records the attempt; it just fails immediately.
var ErrNotConfigured = errors.New("telephony: provider not configured")

// CallRequest asks the provider to place one outbound call.
type CallRequest struct {
	// To is the destination number, passed through as the caller supplied
	// it; the provider owns number validation.
	To string

	// From is the caller-id source number owned by this account.
	From string

	// VoiceURL is fetched by the provider when the call connects and must
	// return a voice-prompt document.
	VoiceURL string

	// StatusCallbackURL receives lifecycle events for the call.
	StatusCallbackURL string
}

// CallResult is the synchronous outcome of call initiation.
type CallResult struct {
	// SID is the provider's identifier for the call, the correlation key
	// for every later status event.
	SID string
}

// StatusEvent is one provider-pushed lifecycle notification, already
// translated out of provider vocabulary.
type StatusEvent struct {
	ProviderSID string

	Status ledger.State

	// RawStatus keeps the provider's original wording for logging.
	RawStatus string

	DurationSeconds int
}

// StatusSink consumes status events. The webhook handler always
// acknowledges the provider regardless of whether the event matched
// anything, so the sink returns nothing.
type StatusSink interface {
	ApplyStatusEvent(ctx context.Context, ev StatusEvent)
}
