package ttsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesizeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Text != "ciao" || req.Voice != "it-IT-standard" || req.Rate != "+0%" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("fake-audio-bytes"))
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "test-key"})
	stream, err := client.Synthesize(context.Background(), "ciao", "it-IT-standard", "+0%")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	defer stream.Close()

	body, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if string(body) != "fake-audio-bytes" {
		t.Errorf("body = %q, want %q", body, "fake-audio-bytes")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client := NewClient(Config{Endpoint: "http://example.invalid", APIKey: "test-key"})
	_, err := client.Synthesize(context.Background(), "  ", "voice", "+0%")
	if !errors.Is(err, ErrRequestInvalid) {
		t.Errorf("error = %v, want ErrRequestInvalid", err)
	}
}

func TestSynthesizeRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Endpoint: "http://example.invalid"})
	_, err := client.Synthesize(context.Background(), "text", "voice", "+0%")
	if !errors.Is(err, ErrRequestInvalid) {
		t.Errorf("error = %v, want ErrRequestInvalid", err)
	}
}

func TestSynthesizeNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(synthesizeErrorResponse{Error: "synth engine unavailable"})
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "test-key"})
	_, err := client.Synthesize(context.Background(), "text", "voice", "+0%")
	if !errors.Is(err, ErrTransportFailed) {
		t.Errorf("error = %v, want ErrTransportFailed", err)
	}
}

func TestSynthesizeEmptyStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "0")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "test-key"})
	_, err := client.Synthesize(context.Background(), "text", "voice", "+0%")
	if !errors.Is(err, ErrEmptyStream) {
		t.Errorf("error = %v, want ErrEmptyStream", err)
	}
}
