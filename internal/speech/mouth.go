package speech

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// audioPlayer is the playback side of the Mouth. *Player satisfies it.
type audioPlayer interface {
	Play(ctx context.Context, audio []byte) error
	Stop()
}

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithChunkSize sets the approximate max character count per TTS chunk.
// Longer text is split at sentence boundaries and synthesized in parallel.
func WithChunkSize(n int) MouthOption {
	return func(m *Mouth) { m.chunkSize = n }
}

// WithCache replaces the default in-memory audio cache.
func WithCache(c *AudioCache) MouthOption {
	return func(m *Mouth) { m.cache = c }
}

// WithParallelism bounds concurrent synthesis requests for one utterance.
func WithParallelism(n int) MouthOption {
	return func(m *Mouth) { m.parallel = n }
}

// Mouth speaks one utterance at a time: chunk, synthesize in parallel,
// play in order. Speak blocks until playback is over.
type Mouth struct {
	tts       Synthesizer
	player    audioPlayer
	cache     *AudioCache
	log       *logger.Logger
	chunkSize int
	parallel  int

	mu       sync.Mutex
	cancel   context.CancelFunc
	speaking bool
}

// NewMouth creates a speaker over the given synthesizer and player.
func NewMouth(tts Synthesizer, player audioPlayer, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		tts:       tts,
		player:    player,
		log:       log,
		chunkSize: 200,
		parallel:  4,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = NewAudioCache(tts.Voice(), "", false, log)
	}
	return m
}

// Speak synthesizes and plays text. It returns domain.ErrSynthesis when no
// chunk could be synthesized, ErrStopped when Stop interrupted playback,
// or ctx.Err() when ctx ended first.
func (m *Mouth) Speak(ctx context.Context, text string) error {
	text = cleanForSpeech(text)
	if text == "" {
		return nil
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = cancel
	m.speaking = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.speaking = false
		m.cancel = nil
		m.mu.Unlock()
	}()

	chunks := m.splitChunks(text)
	audio, err := m.synthesizeAll(ctx, chunks)
	if err != nil {
		if ctx.Err() != nil {
			return interrupted(parent)
		}
		return err
	}

	for i, a := range audio {
		if a == nil {
			m.log.Debug("mouth: skipping chunk %d (synthesis failed)", i)
			continue
		}
		if ctx.Err() != nil {
			return interrupted(parent)
		}
		if err := m.player.Play(ctx, a); err != nil {
			if errors.Is(err, ErrStopped) || ctx.Err() != nil {
				m.log.Debug("mouth: playback interrupted at chunk %d", i)
				return interrupted(parent)
			}
			m.log.Error("mouth: chunk %d playback failed: %v", i, err)
		}
	}
	return nil
}

// interrupted reports why Speak ended early: the caller's ctx, or Stop.
func interrupted(parent context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return ErrStopped
}

// Stop interrupts the utterance in progress. Safe to call at any time.
func (m *Mouth) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.player.Stop()
}

// Speaking reports whether Speak is in progress.
func (m *Mouth) Speaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// Prefetch warms the cache for texts that will likely be spoken, such as
// fixed status lines. Blocks until every chunk is cached or failed.
func (m *Mouth) Prefetch(ctx context.Context, texts ...string) {
	var chunks []string
	for _, t := range texts {
		if t = cleanForSpeech(t); t != "" {
			chunks = append(chunks, m.splitChunks(t)...)
		}
	}
	if _, err := m.synthesizeAll(ctx, chunks); err != nil {
		m.log.Warn("prefetch: %v", err)
	}
}

// Cache returns the audio cache.
func (m *Mouth) Cache() *AudioCache { return m.cache }

// synthesizeAll fills one slot per chunk. Failed chunks stay nil so the
// rest can still be played.
func (m *Mouth) synthesizeAll(ctx context.Context, chunks []string) ([][]byte, error) {
	audio := make([][]byte, len(chunks))
	errs := make([]error, len(chunks))

	var g errgroup.Group
	if m.parallel > 0 {
		g.SetLimit(m.parallel)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			a, err := m.synthesizeWithCache(ctx, chunk)
			if err != nil {
				errs[i] = err
				m.log.Error("mouth: chunk %d synthesis failed: %v", i, err)
				return nil
			}
			audio[i] = a
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, a := range audio {
		if a != nil {
			return audio, nil
		}
	}
	if len(chunks) == 0 {
		return audio, nil
	}
	first := errors.Join(errs...)
	if errors.Is(first, domain.ErrSynthesis) {
		return nil, first
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrSynthesis, first)
}

func (m *Mouth) synthesizeWithCache(ctx context.Context, text string) ([]byte, error) {
	if a, ok := m.cache.Get(text); ok {
		return a, nil
	}
	a, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Put(text, a)
	return a, nil
}

// splitChunks groups sentences into chunks of roughly m.chunkSize chars.
func (m *Mouth) splitChunks(text string) []string {
	if m.chunkSize <= 0 || len(text) <= m.chunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, s := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(s) > m.chunkSize {
			if c := strings.TrimSpace(current.String()); c != "" {
				chunks = append(chunks, c)
			}
			current.Reset()
		}
		current.WriteString(s)
	}
	if c := strings.TrimSpace(current.String()); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

// splitSentences splits at . ! ? keeping the punctuation and trailing
// whitespace with the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
				current.WriteRune(runes[i])
			}
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

var (
	bracketPrefix = regexp.MustCompile(`^\[[A-Za-z]+\]\s*`)
	ansiCodes     = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// cleanForSpeech strips terminal formatting that shouldn't be spoken.
func cleanForSpeech(msg string) string {
	cleaned := ansiCodes.ReplaceAllString(msg, "")
	cleaned = bracketPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
