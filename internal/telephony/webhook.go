package telephony

import (
	"net/http"
	"strconv"

	"autodialer-platform/internal/ledger"
)

// TwilioStatusForm captures the subset of status-callback fields we care
// about. Twilio sends application/x-www-form-urlencoded by default.
type TwilioStatusForm struct {
	CallSid      string
	CallStatus   string
	CallDuration string
}

func ParseTwilioStatusCallback(r *http.Request) (TwilioStatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return TwilioStatusForm{}, err
	}
	return TwilioStatusForm{
		CallSid:      r.PostFormValue("CallSid"),
		CallStatus:   r.PostFormValue("CallStatus"),
		CallDuration: r.PostFormValue("CallDuration"),
	}, nil
}

// ToStatusEvent translates Twilio vocabulary into the internal event.
// CallDuration is optional; absent or malformed values become 0.
func (f TwilioStatusForm) ToStatusEvent() StatusEvent {
	dur, _ := strconv.Atoi(f.CallDuration)
	if dur < 0 {
		dur = 0
	}
	return StatusEvent{
		ProviderSID:     f.CallSid,
		Status:          MapCallStatus(f.CallStatus),
		RawStatus:       f.CallStatus,
		DurationSeconds: dur,
	}
}

// MapCallStatus maps Twilio's call status strings onto ledger states.
// Unrecognized strings map to Unknown rather than being dropped, so a
// record still shows that something arrived.
func MapCallStatus(s string) ledger.State {
	switch s {
	case "queued", "initiated":
		return ledger.StateInitiated
	case "ringing":
		return ledger.StateRinging
	case "answered":
		return ledger.StateAnswered
	case "in-progress":
		return ledger.StateInProgress
	case "completed":
		return ledger.StateCompleted
	case "busy", "failed", "no-answer", "canceled":
		return ledger.StateFailed
	default:
		return ledger.StateUnknown
	}
}
