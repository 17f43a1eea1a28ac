package telephony

import (
	"net/http"

	"autodialer-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandlers serves the two endpoints Twilio calls into:
// the voice-prompt fetch and the status callback.
//
// No business logic here. Status events are handed to the sink; the
// response to Twilio is a bare acknowledgment either way, since the
// provider retries on anything else.
type WebhookHandlers struct {
	Sink StatusSink
}

// VoicePrompt answers Twilio's GET with the TwiML for the message
// carried in the query string.
func (h WebhookHandlers) VoicePrompt(c *gin.Context) {
	message := c.Query("message")

	twiml, err := RenderVoicePrompt(message)
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}

	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, twiml)
}

// StatusCallback ingests one lifecycle event. Events that match nothing
// are discarded silently; Twilio still gets a 200 so it does not retry.
func (h WebhookHandlers) StatusCallback(c *gin.Context) {
	log := logger.FromGin(c)

	form, err := ParseTwilioStatusCallback(c.Request)
	if err != nil {
		log.Warn("status callback parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	if h.Sink != nil && form.CallSid != "" {
		h.Sink.ApplyStatusEvent(c.Request.Context(), form.ToStatusEvent())
	}

	c.Status(http.StatusOK)
}
