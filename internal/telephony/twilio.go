package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"autodialer-platform/internal/config"
)

const twilioAPIBase = "https://api.twilio.com"

// TwilioProvider places calls through the Twilio REST API.
// It deliberately speaks plain HTTP instead of pulling in the vendor SDK;
// the surface we need is one form-encoded POST.
type TwilioProvider struct {
	accountSID string
	authToken  string

	baseURL string
	client  *http.Client
}

func NewTwilioProvider(cfg config.TwilioConfig) *TwilioProvider {
	return &TwilioProvider{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *TwilioProvider) Name() string { return "twilio" }

// Configured reports whether credentials are present.
func (p *TwilioProvider) Configured() bool {
	return p != nil && p.accountSID != "" && p.authToken != ""
}

type twilioCallResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (p *TwilioProvider) InitiateCall(ctx context.Context, req CallRequest) (CallResult, error) {
	if !p.Configured() {
		return CallResult{}, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", req.From)
	form.Set("Url", req.VoiceURL)
	form.Set("StatusCallback", req.StatusCallbackURL)
	for _, ev := range []string{"initiated", "ringing", "answered", "completed"} {
		form.Add("StatusCallbackEvent", ev)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", p.baseURL, p.accountSID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return CallResult{}, fmt.Errorf("telephony: build request: %w", err)
	}
	httpReq.SetBasicAuth(p.accountSID, p.authToken)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CallResult{}, fmt.Errorf("telephony: twilio request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CallResult{}, fmt.Errorf("telephony: read twilio response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr twilioErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return CallResult{}, fmt.Errorf("telephony: twilio error %d: %s", apiErr.Code, apiErr.Message)
		}
		return CallResult{}, fmt.Errorf("telephony: twilio returned status %d", resp.StatusCode)
	}

	var out twilioCallResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return CallResult{}, fmt.Errorf("telephony: decode twilio response: %w", err)
	}
	if out.SID == "" {
		return CallResult{}, fmt.Errorf("telephony: twilio response missing call sid")
	}
	return CallResult{SID: out.SID}, nil
}
