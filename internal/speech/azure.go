package speech

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Synthesizer turns text into playable audio (WAV or raw S16LE PCM at
// PlaybackRate). Voice is part of the cache key.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Voice() string
}

// Compile-time interface check.
var _ Synthesizer = (*AzureClient)(nil)

// AzureOption configures the Azure TTS client.
type AzureOption func(*AzureClient)

// WithVoice sets the TTS voice.
func WithVoice(voice string) AzureOption {
	return func(c *AzureClient) { c.voice = voice }
}

// WithAzureEndpoint overrides the regional endpoint. Used by tests.
func WithAzureEndpoint(url string) AzureOption {
	return func(c *AzureClient) { c.endpoint = url }
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(c *AzureClient) { c.httpClient.Timeout = d }
}

// AzureClient synthesizes speech via Azure Cognitive Services.
type AzureClient struct {
	subscriptionKey string
	endpoint        string
	voice           string
	format          string
	httpClient      *http.Client
	log             *logger.Logger
}

// NewAzureClient creates an Azure TTS client for the given region.
func NewAzureClient(key, region string, log *logger.Logger, opts ...AzureOption) *AzureClient {
	c := &AzureClient{
		subscriptionKey: key,
		endpoint:        fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		voice:           DefaultVoice,
		format:          DefaultAudioFormat,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		log:             log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Voice returns the configured voice name.
func (c *AzureClient) Voice() string { return c.voice }

// Synthesize returns WAV bytes for text. Failures wrap domain.ErrSynthesis.
func (c *AzureClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ssml := c.buildSSML(text)
	c.log.Debug("azure tts: synthesizing %d chars with voice %s", len(text), c.voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("azure tts: create request: %w: %w", domain.ErrSynthesis, err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", c.format)
	req.Header.Set("User-Agent", "PantryChef/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure tts: request failed: %w: %w", domain.ErrSynthesis, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure tts: status %d: %w: %s", resp.StatusCode, domain.ErrSynthesis, truncate(string(body), 120))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("azure tts: read audio: %w: %w", domain.ErrSynthesis, err)
	}
	c.log.Debug("azure tts: got %d bytes of audio", len(audio))
	return audio, nil
}

// buildSSML wraps the escaped text in a voice element.
func (c *AzureClient) buildSSML(text string) string {
	var esc bytes.Buffer
	_ = xml.EscapeText(&esc, []byte(text))
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'>%s</voice></speak>`,
		c.voice, esc.String(),
	)
}
