package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ Synthesizer = (*ElevenLabsClient)(nil)

const elevenLabsBaseURL = "https://api.elevenlabs.io/v1/text-to-speech/"

type elevenLabsRequest struct {
	Text          string              `json:"text"`
	ModelID       string              `json:"model_id"`
	VoiceSettings elevenLabsVoiceConf `json:"voice_settings"`
}

type elevenLabsVoiceConf struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// ElevenLabsClient synthesizes raw 24kHz PCM through the ElevenLabs API.
type ElevenLabsClient struct {
	apiKey  string
	voice   string
	model   string
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewElevenLabsClient creates a client. An empty voice uses
// DefaultElevenLabsVoice.
func NewElevenLabsClient(apiKey, voice string, log *logger.Logger) *ElevenLabsClient {
	if voice == "" {
		voice = DefaultElevenLabsVoice
	}
	return &ElevenLabsClient{
		apiKey:  apiKey,
		voice:   voice,
		model:   "eleven_turbo_v2",
		baseURL: elevenLabsBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// Voice names the voice for cache keys.
func (c *ElevenLabsClient) Voice() string { return "elevenlabs:" + c.voice }

// Synthesize returns raw S16LE PCM. Failures wrap domain.ErrSynthesis.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: c.model,
		VoiceSettings: elevenLabsVoiceConf{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: marshal: %w: %w", domain.ErrSynthesis, err)
	}

	url := fmt.Sprintf("%s%s?output_format=pcm_%d", c.baseURL, c.voice, PlaybackRate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: create request: %w: %w", domain.ErrSynthesis, err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: request failed: %w: %w", domain.ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("elevenlabs: status %d: %w: %s", resp.StatusCode, domain.ErrSynthesis, truncate(string(msg), 120))
	}
	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs: read audio: %w: %w", domain.ErrSynthesis, err)
	}
	c.log.Debug("elevenlabs: got %d bytes of PCM", len(pcm))
	return pcm, nil
}
