package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestProbabilitiesSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header: %q", got)
		}

		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if payload.Text != "wire the funds" {
			t.Errorf("unexpected text: %q", payload.Text)
		}

		json.NewEncoder(w).Encode(map[string]any{"probabilities": []float64{0.85, 0.15}})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "secret", time.Second)
	probs, err := client.Probabilities(context.Background(), "wire the funds")
	if err != nil {
		t.Fatalf("Probabilities err: %v", err)
	}
	if len(probs) != 2 || probs[1] != 0.15 {
		t.Fatalf("unexpected probabilities: %v", probs)
	}
}

func TestProbabilitiesNoCredentialHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("expected no auth header, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]any{"probabilities": []float64{0.5}})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", time.Second)
	if _, err := client.Probabilities(context.Background(), "text"); err != nil {
		t.Fatalf("Probabilities err: %v", err)
	}
}

func TestProbabilitiesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", time.Second)
	if _, err := client.Probabilities(context.Background(), "text"); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestProbabilitiesEmptyDistribution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"probabilities": []float64{}})
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", time.Second)
	if _, err := client.Probabilities(context.Background(), "text"); err == nil {
		t.Fatal("expected error on empty distribution")
	}
}

func TestProbabilitiesMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(srv.URL, "", time.Second)
	if _, err := client.Probabilities(context.Background(), "text"); err == nil {
		t.Fatal("expected error on malformed body")
	}
}
