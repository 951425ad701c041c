package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

func TestAzureSynthesize(t *testing.T) {
	var body, key, format string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		key = r.Header.Get("Ocp-Apim-Subscription-Key")
		format = r.Header.Get("X-Microsoft-OutputFormat")
		_, _ = w.Write([]byte("RIFFaudio"))
	}))
	defer srv.Close()

	c := NewAzureClient("k1", "westeurope", logger.New(logger.LevelOff, nil),
		WithAzureEndpoint(srv.URL), WithVoice("en-GB-SoniaNeural"))

	audio, err := c.Synthesize(context.Background(), "Mac & cheese <now>")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(audio) != "RIFFaudio" {
		t.Errorf("audio = %q", audio)
	}
	if key != "k1" || format != DefaultAudioFormat {
		t.Errorf("headers: key=%q format=%q", key, format)
	}
	if !strings.Contains(body, "Mac &amp; cheese &lt;now&gt;") {
		t.Errorf("text not escaped: %s", body)
	}
	if !strings.Contains(body, "name='en-GB-SoniaNeural'") {
		t.Errorf("voice missing: %s", body)
	}
}

func TestAzureSynthesizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewAzureClient("k", "r", logger.New(logger.LevelOff, nil), WithAzureEndpoint(srv.URL))
	if _, err := c.Synthesize(context.Background(), "hi"); !errors.Is(err, domain.ErrSynthesis) {
		t.Errorf("err = %v, want ErrSynthesis", err)
	}
}

func TestElevenLabsSynthesize(t *testing.T) {
	var path, query, apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, query, apiKey = r.URL.Path, r.URL.RawQuery, r.Header.Get("xi-api-key")
		_, _ = w.Write([]byte{1, 2, 3, 4})
	}))
	defer srv.Close()

	c := NewElevenLabsClient("xi", "", logger.New(logger.LevelOff, nil))
	c.baseURL = srv.URL + "/v1/text-to-speech/"

	pcm, err := c.Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(pcm) != 4 {
		t.Errorf("pcm len = %d", len(pcm))
	}
	if path != "/v1/text-to-speech/"+DefaultElevenLabsVoice {
		t.Errorf("path = %q", path)
	}
	if query != "output_format=pcm_24000" || apiKey != "xi" {
		t.Errorf("query=%q key=%q", query, apiKey)
	}
}

func TestElevenLabsSynthesizeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewElevenLabsClient("bad", "v", logger.New(logger.LevelOff, nil))
	c.baseURL = srv.URL + "/"
	if _, err := c.Synthesize(context.Background(), "hello"); !errors.Is(err, domain.ErrSynthesis) {
		t.Errorf("err = %v, want ErrSynthesis", err)
	}
}
