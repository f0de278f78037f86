package explain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseReasonPlainObject(t *testing.T) {
	reason, err := ParseReason(`{"fraud_probability": 88, "reason": "urgent payment pressure"}`)
	if err != nil {
		t.Fatalf("ParseReason err: %v", err)
	}
	if reason != "urgent payment pressure" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestParseReasonStripsJSONFence(t *testing.T) {
	raw := "```json\n{\"reason\": \"caller impersonates bank staff\"}\n```"
	reason, err := ParseReason(raw)
	if err != nil {
		t.Fatalf("ParseReason err: %v", err)
	}
	if reason != "caller impersonates bank staff" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestParseReasonStripsBareFence(t *testing.T) {
	raw := "```\n{\"reason\": \"asks for OTP\"}\n```"
	reason, err := ParseReason(raw)
	if err != nil {
		t.Fatalf("ParseReason err: %v", err)
	}
	if reason != "asks for OTP" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestParseReasonExtractsEmbeddedObject(t *testing.T) {
	raw := `Sure, here is the analysis: {"reason": "requests remote access"} hope that helps`
	reason, err := ParseReason(raw)
	if err != nil {
		t.Fatalf("ParseReason err: %v", err)
	}
	if reason != "requests remote access" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestParseReasonDefaultsMissingReason(t *testing.T) {
	reason, err := ParseReason(`{"fraud_probability": 91}`)
	if err != nil {
		t.Fatalf("ParseReason err: %v", err)
	}
	if reason != DefaultReason {
		t.Fatalf("expected default reason, got %q", reason)
	}
}

func TestParseReasonRejectsNonObject(t *testing.T) {
	for _, raw := range []string{
		"the call is clearly fraudulent",
		`["reason", "array output"]`,
		"42",
		"",
	} {
		if _, err := ParseReason(raw); !errors.Is(err, ErrUnparseable) {
			t.Fatalf("input %q: expected ErrUnparseable, got %v", raw, err)
		}
	}
}

func TestBuildPromptContainsTranscript(t *testing.T) {
	prompt := buildPrompt("give me your card number")
	if !strings.Contains(prompt, "give me your card number") {
		t.Fatalf("prompt missing transcript: %q", prompt)
	}
	if !strings.Contains(prompt, "Respond in JSON only:") {
		t.Fatalf("prompt missing JSON instruction: %q", prompt)
	}
}
