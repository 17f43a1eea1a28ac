// Package command extracts dial targets from free-text instructions
// like "please call +91 98765 43210 now".
package command

import (
	"errors"
	"regexp"
	"strings"
)

var ErrNoCommand = errors.New("command: no dial instruction found")

// verbPattern pairs an intent verb with the pattern that captures the
// number following it.
type verbPattern struct {
	verb string
	re   *regexp.Regexp
}

// dialPatterns is evaluated in order; the first verb whose pattern matches
// wins. The order is part of the contract: an input containing several
// verbs resolves to the earliest entry here, not to whichever verb appears
// first in the input.
var dialPatterns = []verbPattern{
	{"call", regexp.MustCompile(`call\s+(\+?\d[\d\s\-\(\)]+)`)},
	{"dial", regexp.MustCompile(`dial\s+(\+?\d[\d\s\-\(\)]+)`)},
	{"phone", regexp.MustCompile(`phone\s+(\+?\d[\d\s\-\(\)]+)`)},
	{"make a call to", regexp.MustCompile(`make\s+a\s+call\s+to\s+(\+?\d[\d\s\-\(\)]+)`)},
	{"ring", regexp.MustCompile(`ring\s+(\+?\d[\d\s\-\(\)]+)`)},
}

// separatorReplacer strips the separators people type inside phone
// numbers. Digits and a leading + are kept verbatim; no length or
// country-code validation happens here, the provider owns that.
var separatorReplacer = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// ParseDialCommand returns the normalized destination number from a
// free-text instruction, or ErrNoCommand when no verb pattern matches.
func ParseDialCommand(input string) (string, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return "", ErrNoCommand
	}

	for _, p := range dialPatterns {
		m := p.re.FindStringSubmatch(input)
		if m == nil {
			continue
		}
		number := separatorReplacer.Replace(m[1])
		if number == "" || number == "+" {
			continue
		}
		return number, nil
	}
	return "", ErrNoCommand
}
