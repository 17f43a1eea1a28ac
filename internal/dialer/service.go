// Package dialer owns the outbound-call dispatch path: turning a
// destination into a provider call attempt, recording every attempt in
// the ledger, and merging provider status events back into the records.
package dialer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"autodialer-platform/internal/command"
	"autodialer-platform/internal/ledger"
	"autodialer-platform/internal/telephony"
)

var (
	// ErrInvalidDestination rejects an empty destination before any
	// ledger entry is created.
	ErrInvalidDestination = errors.New("dialer: destination required")

	// ErrProviderUnavailable marks attempts made with no configured
	// provider. The ledger entry exists and is Failed.
	ErrProviderUnavailable = errors.New("dialer: telephony provider not configured")

	// ErrProviderRejected marks attempts the provider turned down. The
	// ledger entry exists and is Failed with the provider's reason.
	ErrProviderRejected = errors.New("dialer: provider rejected the call")

	ErrEmptyBatch = errors.New("dialer: destination list is empty")
)

// Archiver persists terminal records beyond the process lifetime.
// Archiving is best-effort; failures are logged and never block the
// status path.
type Archiver interface {
	ArchiveRecord(ctx context.Context, r ledger.Record) error
}

// Limiter bounds in-flight provider calls across the whole process
// (batches included). A rejected acquire fails the attempt like any
// other synchronous dispatch failure.
type Limiter interface {
	Acquire(ctx context.Context) (release func(), ok bool, err error)
}

// Options carries the wiring the service needs around the provider call.
type Options struct {
	// FromNumber is the caller-id source number.
	FromNumber string

	// VoiceURL builds the voice-prompt callback URL for a message.
	VoiceURL func(message string) string

	// StatusCallbackURL receives provider lifecycle events.
	StatusCallbackURL string

	// BatchConcurrency caps in-flight provider calls within one batch.
	// Values below 1 mean sequential.
	BatchConcurrency int

	Limiter  Limiter
	Archiver Archiver
	Logger   *slog.Logger
}

type Service struct {
	ledger   *ledger.Ledger
	provider telephony.Provider
	opts     Options
	log      *slog.Logger
	clock    func() time.Time
}

func NewService(led *ledger.Ledger, provider telephony.Provider, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = 1
	}
	return &Service{
		ledger:   led,
		provider: provider,
		opts:     opts,
		log:      log,
		clock:    time.Now,
	}
}

// Outcome is the synchronous result of one dispatch attempt.
type Outcome struct {
	RecordID    string
	Destination string
	ProviderSID string
}

// Dispatch places one outbound call. The attempt is appended to the
// ledger as Pending before the provider is invoked, then marked
// Initiated or Failed from the synchronous result. A failed attempt is
// observable history, not a discarded request; only an empty destination
// leaves no trace.
func (s *Service) Dispatch(ctx context.Context, destination, message string) (Outcome, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return Outcome{}, ErrInvalidDestination
	}
	if message == "" {
		message = telephony.DefaultMessage
	}

	id := s.ledger.Append(ledger.Record{
		Destination: destination,
		Message:     message,
		State:       ledger.StatePending,
		CreatedAt:   s.clock().UTC(),
	})
	out := Outcome{RecordID: id, Destination: destination}

	if s.opts.Limiter != nil {
		release, ok, err := s.opts.Limiter.Acquire(ctx)
		switch {
		case err != nil:
			// The cap is protection, not a dependency: fail open.
			s.log.Warn("concurrency cap unavailable", "err", err)
		case !ok:
			return out, s.fail(id, destination, fmt.Errorf("%w: concurrency limit reached", ErrProviderRejected))
		default:
			defer release()
		}
	}

	if s.provider == nil {
		return out, s.fail(id, destination, ErrProviderUnavailable)
	}

	res, err := s.provider.InitiateCall(ctx, telephony.CallRequest{
		To:                destination,
		From:              s.opts.FromNumber,
		VoiceURL:          s.voiceURL(message),
		StatusCallbackURL: s.opts.StatusCallbackURL,
	})
	if err != nil {
		if errors.Is(err, telephony.ErrNotConfigured) {
			return out, s.fail(id, destination, ErrProviderUnavailable)
		}
		return out, s.fail(id, destination, fmt.Errorf("%w: %v", ErrProviderRejected, err))
	}

	if err := s.ledger.MarkInitiated(id, res.SID); err != nil {
		// Append and MarkInitiated use the same handle; this only fires
		// if the ledger was swapped out underneath us.
		return out, s.fail(id, destination, fmt.Errorf("%w: %v", ErrProviderRejected, err))
	}

	out.ProviderSID = res.SID
	s.log.Info("call dispatched", "destination", destination, "call_sid", res.SID)
	return out, nil
}

// DispatchFromCommand parses a free-text instruction and dispatches the
// extracted number. A parse miss returns command.ErrNoCommand, distinct
// from any dispatch failure; nothing is recorded for it.
func (s *Service) DispatchFromCommand(ctx context.Context, instruction, message string) (string, Outcome, error) {
	destination, err := command.ParseDialCommand(instruction)
	if err != nil {
		return "", Outcome{}, err
	}
	out, err := s.Dispatch(ctx, destination, message)
	return destination, out, err
}

// ApplyStatusEvent merges one provider lifecycle event into the matching
// record. Events with no matching record are dropped silently: the
// provider may deliver faster than MarkInitiated lands, or report calls
// this process never placed, and it expects a bare acknowledgment either
// way. Terminal events trigger a best-effort archive.
func (s *Service) ApplyStatusEvent(ctx context.Context, ev telephony.StatusEvent) {
	matched := s.ledger.ApplyStatusBySID(ev.ProviderSID, ev.Status, ev.DurationSeconds)
	if !matched {
		s.log.Debug("status event discarded", "call_sid", ev.ProviderSID, "status", ev.RawStatus)
		return
	}

	s.log.Info("call status updated", "call_sid", ev.ProviderSID, "status", ev.RawStatus, "duration", ev.DurationSeconds)

	if ev.Status.Terminal() && s.opts.Archiver != nil {
		if rec, ok := s.ledger.FindBySID(ev.ProviderSID); ok {
			go s.archive(rec)
		}
	}
}

func (s *Service) archive(rec ledger.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.opts.Archiver.ArchiveRecord(ctx, rec); err != nil {
		s.log.Error("record archive failed", "record_id", rec.ID, "err", err)
	}
}

// ListRecords returns a snapshot of the full ledger in insertion order.
func (s *Service) ListRecords() []ledger.Record {
	return s.ledger.Snapshot()
}

// Stats aggregates the current snapshot. Successful counts Initiated,
// Completed and Answered; in-progress counts Ringing and InProgress;
// Pending and Unknown only show up in the total.
type Stats struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	InProgress int `json:"in_progress"`
}

func (s *Service) Stats() Stats {
	var out Stats
	for _, r := range s.ledger.Snapshot() {
		out.Total++
		switch r.State {
		case ledger.StateInitiated, ledger.StateCompleted, ledger.StateAnswered:
			out.Successful++
		case ledger.StateFailed:
			out.Failed++
		case ledger.StateRinging, ledger.StateInProgress:
			out.InProgress++
		}
	}
	return out
}

func (s *Service) voiceURL(message string) string {
	if s.opts.VoiceURL == nil {
		return ""
	}
	return s.opts.VoiceURL(message)
}

// fail marks the record Failed with the error's description and passes
// the error through.
func (s *Service) fail(id, destination string, err error) error {
	if markErr := s.ledger.MarkFailed(id, err.Error()); markErr != nil {
		s.log.Error("ledger update failed", "record_id", id, "err", markErr)
	}
	s.log.Warn("call dispatch failed", "destination", destination, "err", err)
	return err
}
