// Package ttsrpc is an HTTP adapter for the neural voice synthesizer
// collaborator: given text, a voice ID, and a rate bias, it returns a
// compressed audio stream.
package ttsrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Config captures the runtime settings required to talk to the
// synthesizer.
type Config struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client wraps the neural voice synthesizer's HTTP API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a synthesizer client using the supplied
// configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		cfg: Config{
			Endpoint: strings.TrimSpace(cfg.Endpoint),
			APIKey:   strings.TrimSpace(cfg.APIKey),
			Timeout:  timeout,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}
	return client
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
	Rate  string `json:"rate"`
}

type synthesizeErrorResponse struct {
	Error string `json:"error"`
}

// Synthesize posts (text, voice, rate) to the synthesizer and returns the
// compressed audio stream. Callers must close the returned ReadCloser.
// rate must already be formatted as "+N%"/"-N%" (see job.AdaptiveRate).
func (c *Client) Synthesize(ctx context.Context, text, voice, rate string) (io.ReadCloser, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("ttsrpc synthesize: %w: empty text", ErrRequestInvalid)
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		return nil, fmt.Errorf("ttsrpc synthesize: %w: empty voice", ErrRequestInvalid)
	}
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, fmt.Errorf("ttsrpc synthesize: %w: api key required", ErrRequestInvalid)
	}
	if strings.TrimSpace(c.cfg.Endpoint) == "" {
		return nil, fmt.Errorf("ttsrpc synthesize: %w: endpoint required", ErrRequestInvalid)
	}

	payload := synthesizeRequest{Text: text, Voice: voice, Rate: rate}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ttsrpc synthesize: encode body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("ttsrpc synthesize: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ttsrpc synthesize: %w: %v", ErrTransportFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var parsed synthesizeErrorResponse
		if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != "" {
			return nil, fmt.Errorf("ttsrpc synthesize: %w: http %d: %s", ErrTransportFailed, resp.StatusCode, parsed.Error)
		}
		return nil, fmt.Errorf("ttsrpc synthesize: %w: http %d: %s", ErrTransportFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if resp.ContentLength == 0 {
		defer resp.Body.Close()
		return nil, fmt.Errorf("ttsrpc synthesize: %w: empty audio stream", ErrEmptyStream)
	}

	return resp.Body, nil
}

var (
	// ErrRequestInvalid marks a request that was rejected before it left
	// the client (missing text/voice/credentials).
	ErrRequestInvalid = errors.New("ttsrpc: invalid request")
	// ErrTransportFailed marks a network or non-200 failure talking to the
	// synthesizer.
	ErrTransportFailed = errors.New("ttsrpc: transport failed")
	// ErrEmptyStream marks a 200 response with no audio payload.
	ErrEmptyStream = errors.New("ttsrpc: empty audio stream")
)
