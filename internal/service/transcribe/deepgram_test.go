package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listen" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Token test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const goodBody = `{"results":{"channels":[{"alternatives":[{"transcript":"send me the money now"}]}]}}`

func TestTranscribeSuccess(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, goodBody)
	client := NewDeepgram(srv.URL, "test-key", time.Second)

	text, err := client.Transcribe(context.Background(), []byte("audio"), "audio/wav", "en")
	if err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}
	if text != "send me the money now" {
		t.Fatalf("unexpected transcript: %q", text)
	}
}

func TestTranscribePassesLanguage(t *testing.T) {
	var gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLang = r.URL.Query().Get("language")
		w.Write([]byte(goodBody))
	}))
	t.Cleanup(srv.Close)

	client := NewDeepgram(srv.URL, "test-key", time.Second)
	if _, err := client.Transcribe(context.Background(), []byte("audio"), "audio/wav", "hi"); err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}
	if gotLang != "hi" {
		t.Fatalf("expected language hi, got %q", gotLang)
	}
}

func TestTranscribeStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusForbidden, KindAuth},
		{http.StatusPaymentRequired, KindQuota},
		{http.StatusTooManyRequests, KindRateLimit},
		{http.StatusBadRequest, KindBadRequest},
		{http.StatusInternalServerError, KindServerError},
		{http.StatusBadGateway, KindServerError},
		{http.StatusTeapot, KindUnknown},
	}

	for _, tc := range cases {
		srv := newTestServer(t, tc.status, `{"err_msg":"nope"}`)
		client := NewDeepgram(srv.URL, "test-key", time.Second)

		_, err := client.Transcribe(context.Background(), []byte("audio"), "audio/wav", "en")
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := KindOf(err); got != tc.want {
			t.Fatalf("status %d: got kind %s want %s", tc.status, got, tc.want)
		}
	}
}

func TestTranscribeEmptyTranscriptIsNoSpeech(t *testing.T) {
	body := `{"results":{"channels":[{"alternatives":[{"transcript":"   "}]}]}}`
	srv := newTestServer(t, http.StatusOK, body)
	client := NewDeepgram(srv.URL, "test-key", time.Second)

	_, err := client.Transcribe(context.Background(), []byte("audio"), "audio/wav", "en")
	if KindOf(err) != KindNoSpeech {
		t.Fatalf("expected no_speech, got %v", err)
	}
}

func TestTranscribeMissingAlternativesIsInvalidResponse(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"results":{"channels":[]}}`)
	client := NewDeepgram(srv.URL, "test-key", time.Second)

	_, err := client.Transcribe(context.Background(), []byte("audio"), "audio/wav", "en")
	if KindOf(err) != KindInvalidResponse {
		t.Fatalf("expected invalid_response, got %v", err)
	}
}

func TestTranscribeConnectionFailure(t *testing.T) {
	client := NewDeepgram("http://127.0.0.1:1", "test-key", time.Second)

	_, err := client.Transcribe(context.Background(), []byte("audio"), "audio/wav", "en")
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := KindOf(err); kind != KindConnection && kind != KindTimeout {
		t.Fatalf("expected connection-class kind, got %s", kind)
	}
}

func TestUserMessageCoversAllKinds(t *testing.T) {
	kinds := []Kind{
		KindAuth, KindQuota, KindRateLimit, KindBadRequest, KindServerError,
		KindTimeout, KindConnection, KindNoSpeech, KindInvalidResponse, KindUnknown,
	}
	for _, kind := range kinds {
		err := newProviderError(kind, "boom")
		if UserMessage(err) == "" {
			t.Fatalf("kind %s has no user message", kind)
		}
	}
}

func TestUserMessageUnknownError(t *testing.T) {
	if got := UserMessage(context.Canceled); got != userMessages[KindUnknown] {
		t.Fatalf("unexpected message for plain error: %q", got)
	}
}
