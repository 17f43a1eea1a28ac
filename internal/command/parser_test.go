package command

import (
	"errors"
	"testing"
)

func TestParseDialCommand(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"call with country code", "please call +91 98765 43210 now", "+919876543210"},
		{"ring with hyphens", "ring 022-6654-3321", "02266543321"},
		{"dial", "Dial 5551234", "5551234"},
		{"phone with parens", "phone (555) 123-4567", "5551234567"},
		{"long form", "make a call to 555 0100", "5550100"},
		{"mixed case and padding", "  CALL +1 (555) 010-0200  ", "+15550100200"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDialCommand(tc.input)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseDialCommand_VerbPriority(t *testing.T) {
	// Both verbs present: "call" is higher priority than "ring"
	// regardless of position in the input.
	got, err := ParseDialCommand("ring 111 or better call 222")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got != "222" {
		t.Fatalf("expected call target 222, got %q", got)
	}
}

func TestParseDialCommand_NoMatch(t *testing.T) {
	for _, input := range []string{"hello world", "", "call me maybe", "dial tone"} {
		if _, err := ParseDialCommand(input); !errors.Is(err, ErrNoCommand) {
			t.Fatalf("input %q: expected ErrNoCommand, got %v", input, err)
		}
	}
}
