// Package elevenlabs provides a tts.Synthesizer for the ElevenLabs
// text-to-speech API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ava-assistant/avamem-go/pkg/tts"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModel   = "eleven_multilingual_v2"

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 512
)

// Config contains configuration for the ElevenLabs client.
type Config struct {
	// APIKey is the xi-api-key. Empty disables synthesis.
	APIKey string

	// VoiceID selects the voice (required when APIKey is set).
	VoiceID string

	// ModelID is the synthesis model (default: "eleven_multilingual_v2").
	ModelID string

	// BaseURL is the API base URL (default: ElevenLabs official address).
	BaseURL string

	// Stability and SimilarityBoost are the voice settings (default: 0.5 each).
	Stability       float64
	SimilarityBoost float64

	// HTTPClient is a custom HTTP client (uses default if nil).
	HTTPClient *http.Client
}

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("elevenlabs: HTTP %d: %s", e.StatusCode, e.Body)
}

// Client implements tts.Synthesizer.
type Client struct {
	client  *http.Client
	apiKey  string
	voiceID string
	modelID string
	baseURL string

	stability       float64
	similarityBoost float64

	log *logrus.Entry
}

var _ tts.Synthesizer = (*Client)(nil)

type synthesisRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// NewClient creates an ElevenLabs client. A client without an API key is
// valid; every Synthesize call then returns tts.ErrUnavailable.
func NewClient(cfg *Config, log *logrus.Entry) (*Client, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg.APIKey != "" && cfg.VoiceID == "" {
		return nil, errors.New("elevenlabs: voice id is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModel
	}
	stability := cfg.Stability
	if stability == 0 {
		stability = 0.5
	}
	similarity := cfg.SimilarityBoost
	if similarity == 0 {
		similarity = 0.5
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: 60 * time.Second,
		}
	}

	if cfg.APIKey == "" {
		log.Warn("ELEVEN_API_KEY is not set, voice output is disabled")
	}

	return &Client{
		client:          client,
		apiKey:          cfg.APIKey,
		voiceID:         cfg.VoiceID,
		modelID:         modelID,
		baseURL:         baseURL,
		stability:       stability,
		similarityBoost: similarity,
		log:             log,
	}, nil
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Synthesize requests mp3 audio for text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		c.log.Debug("Speech skipped, no API key")
		return nil, tts.ErrUnavailable
	}

	body, err := json.Marshal(synthesisRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       c.stability,
			SimilarityBoost: c.similarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(c.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.WithError(err).Error("Speech request failed")
		return nil, fmt.Errorf("elevenlabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
		c.log.WithField("status", resp.StatusCode).
			Error("Speech request rejected, check the voice id, the API key and the plan quota")
		return nil, statusErr
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w", err)
	}
	c.log.WithField("bytes", len(audio)).Info("Speech audio received")
	return audio, nil
}
