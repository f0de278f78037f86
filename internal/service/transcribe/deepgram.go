package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.deepgram.com"
	defaultTimeout = 30 * time.Second
)

// Transcriber converts audio bytes into text in the requested language.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, error)
}

// Deepgram is the Deepgram pre-recorded transcription client.
type Deepgram struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewDeepgram creates a client. Empty baseURL uses the public API; a
// non-positive timeout falls back to 30s.
func NewDeepgram(baseURL, apiKey string, timeout time.Duration) *Deepgram {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Deepgram{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// listenResponse mirrors the slice of the provider payload we consume.
type listenResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe sends the audio to the provider and returns the transcript.
// Failures come back as *ProviderError carrying the taxonomy tag; a
// whitespace-only transcript is a no-speech condition, not a success.
func (d *Deepgram) Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, error) {
	endpoint := d.baseURL + "/v1/listen?language=" + url.QueryEscape(language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", newProviderError(KindBadRequest, "build request: %v", err)
	}
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", newProviderError(classifyTransport(err), "request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", newProviderError(classifyStatus(resp.StatusCode), "status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", newProviderError(KindInvalidResponse, "decode response: %v", err)
	}

	channels := parsed.Results.Channels
	if len(channels) == 0 || len(channels[0].Alternatives) == 0 {
		return "", newProviderError(KindInvalidResponse, "response missing transcript alternatives")
	}

	transcript := channels[0].Alternatives[0].Transcript
	if strings.TrimSpace(transcript) == "" {
		return "", newProviderError(KindNoSpeech, "provider returned an empty transcript")
	}

	return transcript, nil
}
