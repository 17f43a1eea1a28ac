package telephony

import (
	"bytes"
	"encoding/xml"
)

// TwiML is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only include primitives we need at the adapter boundary.

// DefaultMessage is spoken when a call or prompt request carries no
// message of its own.
const DefaultMessage = "Hello, this is an automated call."

const (
	promptVoice    = "Polly.Kajal"
	promptLanguage = "en-IN"
	goodbyeLine    = "Thank you for your time. Goodbye!"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

// RenderVoicePrompt builds the TwiML document Twilio fetches when a call
// connects: the message, a beat of silence, then a fixed goodbye.
func RenderVoicePrompt(message string) (string, error) {
	if message == "" {
		message = DefaultMessage
	}

	r := twimlResponse{Verbs: []any{
		twimlSay{Voice: promptVoice, Language: promptLanguage, Text: message},
		twimlPause{Length: 1},
		twimlSay{Voice: promptVoice, Language: promptLanguage, Text: goodbyeLine},
	}}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
