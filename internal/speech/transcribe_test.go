package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

func TestHTTPTranscriber(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"ok", http.StatusOK, `{"text":" what can I cook "}`, "what can I cook", nil},
		{"fallback flag", http.StatusOK, `{"text":"","fallback":true}`, "", domain.ErrFallbackRequested},
		{"service unavailable", http.StatusServiceUnavailable, `busy`, "", domain.ErrFallbackRequested},
		{"server error", http.StatusInternalServerError, `oops`, "", domain.ErrTranscriptionService},
		{"bad json", http.StatusOK, `nope`, "", domain.ErrTranscriptionService},
		{"silence", http.StatusOK, `{"text":"[BLANK_AUDIO]"}`, "", domain.ErrEmptyTranscription},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLen int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				f, _, err := r.FormFile("file")
				if err != nil {
					t.Errorf("missing file field: %v", err)
				} else {
					b, _ := io.ReadAll(f)
					gotLen = len(b)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			tr := NewHTTPTranscriber(srv.URL, 5*time.Second, logger.New(logger.LevelOff, nil))
			clip := EncodeWAV([]byte{0, 1, 2, 3}, CaptureRate)
			got, err := tr.Transcribe(context.Background(), clip)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
			if gotLen != len(clip) {
				t.Errorf("server got %d bytes, want %d", gotLen, len(clip))
			}
		})
	}
}

func TestHTTPTranscriberCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, 5*time.Second, logger.New(logger.LevelOff, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := tr.Transcribe(ctx, []byte("x"))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestLocalWhisperMissingBinary(t *testing.T) {
	w := NewLocalWhisper("definitely-not-a-whisper-binary", "model.bin", t.TempDir(), logger.New(logger.LevelOff, nil))
	_, err := w.Transcribe(context.Background(), EncodeWAV(nil, CaptureRate))
	if !errors.Is(err, domain.ErrTranscriptionService) {
		t.Errorf("err = %v, want ErrTranscriptionService", err)
	}
}
