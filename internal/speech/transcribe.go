package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// ── HTTP transcription service ───────────────────────────────────

type sttResponse struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}

// HTTPTranscriber posts WAV clips to a transcription service as a
// multipart "file" field and expects {"text": "...", "fallback": bool}.
type HTTPTranscriber struct {
	url  string
	http *http.Client
	log  *logger.Logger
}

// NewHTTPTranscriber creates a transcriber for the service at url. The
// per-call deadline is the caller's ctx; timeout only bounds the
// connection.
func NewHTTPTranscriber(url string, timeout time.Duration, log *logger.Logger) *HTTPTranscriber {
	return &HTTPTranscriber{
		url:  url,
		http: &http.Client{Timeout: timeout},
		log:  log,
	}
}

// Name identifies the transcriber in logs and metrics.
func (t *HTTPTranscriber) Name() string { return "http" }

// Transcribe sends the clip. A 503 or a fallback flag in the body yields
// domain.ErrFallbackRequested.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("stt: form file: %w", err)
	}
	if _, err := fw.Write(wav); err != nil {
		return "", fmt.Errorf("stt: write clip: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("stt: close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, &body)
	if err != nil {
		return "", fmt.Errorf("stt: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("stt: request failed: %w: %w", domain.ErrTranscriptionService, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("stt: read response: %w: %w", domain.ErrTranscriptionService, err)
	}

	switch {
	case resp.StatusCode == http.StatusServiceUnavailable:
		return "", fmt.Errorf("stt: %s: %w", resp.Status, domain.ErrFallbackRequested)
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("stt: %s: %w: %s", resp.Status, domain.ErrTranscriptionService, truncate(string(raw), 120))
	}

	var out sttResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("stt: decode response: %w: %w", domain.ErrTranscriptionService, err)
	}
	if out.Fallback {
		return "", fmt.Errorf("stt: service asked for fallback: %w", domain.ErrFallbackRequested)
	}
	return finish(t.log, t.Name(), out.Text)
}

// ── OpenAI Whisper ───────────────────────────────────────────────

// OpenAITranscriber uses the hosted whisper-1 model.
type OpenAITranscriber struct {
	client *openai.Client
	log    *logger.Logger
}

// NewOpenAITranscriber creates a transcriber with the given API key.
func NewOpenAITranscriber(apiKey string, log *logger.Logger) *OpenAITranscriber {
	return &OpenAITranscriber{client: openai.NewClient(apiKey), log: log}
}

// Name identifies the transcriber in logs and metrics.
func (t *OpenAITranscriber) Name() string { return "openai" }

// Transcribe sends the clip to the audio transcriptions endpoint.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, wav []byte) (string, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(wav),
		FilePath: "audio.wav",
		Language: "en",
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusServiceUnavailable {
			return "", fmt.Errorf("openai stt: %w: %w", domain.ErrFallbackRequested, err)
		}
		return "", fmt.Errorf("openai stt: %w: %w", domain.ErrTranscriptionService, err)
	}
	return finish(t.log, t.Name(), resp.Text)
}

// ── Local whisper.cpp ────────────────────────────────────────────

// LocalWhisper runs the whisper.cpp CLI against a clip written to a
// temporary file. It is the fallback when a hosted service gives up.
type LocalWhisper struct {
	bin     string
	model   string
	tempDir string
	log     *logger.Logger
}

// NewLocalWhisper creates a local transcriber.
//   - bin:     path to the whisper-cli executable
//   - model:   path to the GGML model file
//   - tempDir: where clips are written while whisper reads them
func NewLocalWhisper(bin, model, tempDir string, log *logger.Logger) *LocalWhisper {
	if _, err := exec.LookPath(bin); err != nil {
		log.Warn("whisper: binary %q not found in PATH: %v", bin, err)
	}
	return &LocalWhisper{bin: bin, model: model, tempDir: tempDir, log: log}
}

// Name identifies the transcriber in logs and metrics.
func (w *LocalWhisper) Name() string { return "whisper" }

// Transcribe writes the clip to disk and runs whisper-cli on it.
func (w *LocalWhisper) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if err := os.MkdirAll(w.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("whisper: temp dir: %w: %w", domain.ErrTranscriptionService, err)
	}
	f, err := os.CreateTemp(w.tempDir, "clip-*.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: temp file: %w: %w", domain.ErrTranscriptionService, err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(wav); err != nil {
		f.Close()
		return "", fmt.Errorf("whisper: write clip: %w: %w", domain.ErrTranscriptionService, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("whisper: close clip: %w: %w", domain.ErrTranscriptionService, err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, w.bin, "-m", w.model, "-f", path, "-nt", "-np", "-l", "en")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("whisper: %w: %w: %s", domain.ErrTranscriptionService, err, truncate(stderr.String(), 120))
	}
	w.log.Debug("whisper: transcribed %d bytes in %s", len(wav), time.Since(start).Round(time.Millisecond))
	return finish(w.log, w.Name(), stdout.String())
}

// finish cleans the raw text and maps nothing-heard to ErrEmptyTranscription.
func finish(log *logger.Logger, name, raw string) (string, error) {
	text := cleanTranscription(raw)
	if text == "" {
		log.Debug("%s: nothing heard (raw=%q)", name, truncate(raw, 60))
		return "", domain.ErrEmptyTranscription
	}
	log.Debug("%s: heard %q", name, text)
	return text, nil
}
