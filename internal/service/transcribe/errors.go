package transcribe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind tags a provider failure so the transport layer can render a
// user-facing message without re-deriving provider semantics.
type Kind string

const (
	KindAuth            Kind = "auth"
	KindQuota           Kind = "quota"
	KindRateLimit       Kind = "rate_limit"
	KindBadRequest      Kind = "bad_request"
	KindServerError     Kind = "server_error"
	KindTimeout         Kind = "timeout"
	KindConnection      Kind = "connection"
	KindNoSpeech        Kind = "no_speech"
	KindInvalidResponse Kind = "invalid_response"
	KindUnknown         Kind = "unknown"
)

// ProviderError is a transcription failure normalized into the closed
// taxonomy.
type ProviderError struct {
	Kind    Kind
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("transcription %s: %s", e.Kind, e.Message)
}

func newProviderError(kind Kind, format string, args ...any) *ProviderError {
	return &ProviderError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the taxonomy tag from an error chain, defaulting to
// unknown.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// classifyStatus maps a provider HTTP status onto the taxonomy.
func classifyStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusPaymentRequired:
		return KindQuota
	case status == http.StatusTooManyRequests:
		return KindRateLimit
	case status == http.StatusBadRequest || status == http.StatusUnsupportedMediaType:
		return KindBadRequest
	case status >= 500:
		return KindServerError
	default:
		return KindUnknown
	}
}

// classifyTransport maps request-level failures (no HTTP response) onto the
// taxonomy.
func classifyTransport(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return KindTimeout
		}
		return KindConnection
	}
	return KindConnection
}

var userMessages = map[Kind]string{
	KindAuth:            "Transcription service authentication failed",
	KindQuota:           "Transcription quota exceeded",
	KindRateLimit:       "Transcription service is rate limited, try again shortly",
	KindBadRequest:      "Audio could not be processed by the transcription service",
	KindServerError:     "Transcription service is temporarily unavailable",
	KindTimeout:         "Transcription timed out",
	KindConnection:      "Could not reach the transcription service",
	KindNoSpeech:        "No speech detected in the audio",
	KindInvalidResponse: "Transcription service returned an unexpected response",
	KindUnknown:         "Failed to transcribe audio",
}

// UserMessage renders a failure as the string shown to callers.
func UserMessage(err error) string {
	if msg, ok := userMessages[KindOf(err)]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}
