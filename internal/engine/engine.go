// Package engine implements the voice turn state machine: capture,
// transcribe, interpret, speak, and re-arm.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
	"github.com/hammamikhairi/pantrychef/internal/metrics"
	"github.com/hammamikhairi/pantrychef/internal/speech"
)

// Recorder is the microphone. *speech.Microphone satisfies it.
type Recorder interface {
	Open(ctx context.Context) error
	Record(ctx context.Context, max time.Duration) ([]byte, error)
	Healthy() bool
	Close() error
}

// Transcriber turns a WAV clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
	Name() string
}

// Speaker plays a reply. Speak blocks until playback ends.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// Responder produces the reply for one utterance.
type Responder interface {
	Respond(ctx context.Context, utterance string, page domain.Page) (domain.Reply, error)
}

// Observer is notified of controller events. Callbacks run on the session
// goroutine and must not block or call Deactivate.
type Observer interface {
	OnState(state domain.TurnState)
	OnTranscript(text string)
	OnReply(reply domain.Reply)
	OnStatus(line string)
}

// Option configures the controller.
type Option func(*Controller)

// WithMaxRecord sets the fixed capture window.
func WithMaxRecord(d time.Duration) Option {
	return func(c *Controller) { c.maxRecord = d }
}

// WithTranscribeTimeout bounds each transcription call.
func WithTranscribeTimeout(d time.Duration) Option {
	return func(c *Controller) { c.transcribeTimeout = d }
}

// WithResumeDelay sets the pause between playback end and the next capture.
func WithResumeDelay(d time.Duration) Option {
	return func(c *Controller) { c.resumeDelay = d }
}

// WithMaxEmpty caps consecutive empty or failed transcriptions before the
// session ends. 0 keeps listening forever.
func WithMaxEmpty(n int) Option {
	return func(c *Controller) { c.maxEmpty = n }
}

// WithReacquire sets the backoff used when the stream drops mid-session.
func WithReacquire(b Backoff) Option {
	return func(c *Controller) { c.reacquire = b }
}

// WithFallback sets the transcriber used when the primary asks for it.
func WithFallback(t Transcriber) Option {
	return func(c *Controller) { c.fallback = t }
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// Controller owns one voice conversation at a time. It depends only on
// interfaces and is testable with fakes.
type Controller struct {
	rec       Recorder
	stt       Transcriber
	fallback  Transcriber
	speaker   Speaker
	responder Responder
	log       *logger.Logger

	maxRecord         time.Duration
	transcribeTimeout time.Duration
	resumeDelay       time.Duration
	maxEmpty          int
	reacquire         Backoff

	mu        sync.Mutex
	state     domain.TurnState
	page      domain.Page
	active    bool
	typing    bool
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
	observers []Observer
}

// New creates a controller with the given dependencies and options.
func New(rec Recorder, stt Transcriber, speaker Speaker, responder Responder, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		rec:               rec,
		stt:               stt,
		speaker:           speaker,
		responder:         responder,
		log:               log,
		maxRecord:         10 * time.Second,
		transcribeTimeout: 10 * time.Second,
		resumeDelay:       900 * time.Millisecond,
		maxEmpty:          5,
		reacquire:         DefaultBackoff(),
		page:              domain.PageDashboard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddObserver registers o for future events.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// State returns the current turn state.
func (c *Controller) State() domain.TurnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether a voice session is running.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SessionID returns the id of the running session, or "" when idle.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Page returns the page the user is looking at.
func (c *Controller) Page() domain.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// SetPage records the page the user is looking at. PageNone is ignored.
func (c *Controller) SetPage(p domain.Page) {
	if p == domain.PageNone {
		return
	}
	c.mu.Lock()
	c.page = p
	c.mu.Unlock()
}

// Activate opens the microphone and starts the session loop. A microphone
// failure is returned wrapped in domain.ErrDeviceUnavailable and leaves
// the controller Idle. A Deactivate that lands while the microphone is
// still opening wins: the device is closed again and
// domain.ErrSessionNotActive is returned.
func (c *Controller) Activate(ctx context.Context) error {
	// The session outlives the caller's ctx (an HTTP request, a key press),
	// so only the opening phase follows it.
	sessCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	if c.active || c.typing {
		c.mu.Unlock()
		cancel()
		return domain.ErrSessionActive
	}
	c.active = true
	c.cancel = cancel
	c.done = done
	c.mu.Unlock()

	stopFollowing := context.AfterFunc(ctx, cancel)
	err := c.rec.Open(sessCtx)
	stopFollowing()

	if sessCtx.Err() != nil {
		if err == nil {
			if cerr := c.rec.Close(); cerr != nil {
				c.log.Warn("closing microphone: %v", cerr)
			}
		}
		c.abortStart(cancel, done)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Info("activate: deactivated while opening microphone")
		return fmt.Errorf("activate: %w", domain.ErrSessionNotActive)
	}
	if err != nil {
		c.abortStart(cancel, done)
		c.log.Error("activate: %v", err)
		if !errors.Is(err, domain.ErrDeviceUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrDeviceUnavailable, err)
		}
		return err
	}

	id := uuid.NewString()
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()

	c.log.Info("voice session %s started", id)
	go c.run(sessCtx, done)
	return nil
}

// abortStart undoes a failed Activate and releases any Deactivate waiting
// on done.
func (c *Controller) abortStart(cancel context.CancelFunc, done chan struct{}) {
	cancel()
	c.mu.Lock()
	c.active = false
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()
	close(done)
}

// Deactivate ends the session from any state and waits for the loop to
// exit. Safe to call when idle.
func (c *Controller) Deactivate() error {
	c.mu.Lock()
	cancel, done, typing := c.cancel, c.done, c.typing
	c.mu.Unlock()

	if cancel == nil {
		if typing {
			c.speaker.Stop()
		}
		return nil
	}

	cancel()
	c.speaker.Stop()
	<-done
	return nil
}

// Submit runs typed text through the same respond and speak path as a
// voice turn. It only works while no voice session is running.
func (c *Controller) Submit(ctx context.Context, text string) (domain.Reply, error) {
	c.mu.Lock()
	if c.active || c.typing {
		c.mu.Unlock()
		return domain.Reply{}, domain.ErrSessionActive
	}
	c.typing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.typing = false
		c.mu.Unlock()
		c.setState(domain.TurnIdle)
	}()

	reply, _, err := c.respondAndSpeak(ctx, text)
	return reply, err
}

// run is the session loop. It owns the microphone until it returns.
func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer func() {
		if err := c.rec.Close(); err != nil {
			c.log.Warn("closing microphone: %v", err)
		}
		c.mu.Lock()
		id := c.sessionID
		c.active = false
		c.cancel = nil
		c.done = nil
		c.sessionID = ""
		c.mu.Unlock()
		c.setState(domain.TurnIdle)
		c.log.Info("voice session %s ended", id)
		close(done)
	}()

	empty := 0
	for ctx.Err() == nil {
		if !c.rec.Healthy() && !c.reopen(ctx) {
			return
		}

		c.setState(domain.TurnCapturing)
		clip, err := c.rec.Record(ctx, c.maxRecord)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, domain.ErrDeviceUnavailable) {
			if !c.reopen(ctx) {
				return
			}
			continue
		}

		var text string
		if err == nil {
			c.setState(domain.TurnTranscribing)
			text, err = c.transcribe(ctx, clip)
			if ctx.Err() != nil {
				return
			}
		}
		if err != nil {
			empty++
			c.log.Debug("turn produced no transcript (%d in a row): %v", empty, err)
			if c.maxEmpty > 0 && empty >= c.maxEmpty {
				c.emitStatus(speech.LineGaveUp())
				return
			}
			c.emitStatus(speech.LineDidntCatch())
			continue
		}
		empty = 0

		c.emitTranscript(text)
		_, spoke, err := c.respondAndSpeak(ctx, text)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.log.Error("turn failed: %v", err)
			continue
		}
		if spoke && !sleep(ctx, c.resumeDelay) {
			return
		}
	}
}

// reopen tries to re-acquire the microphone. It reports whether the
// session can go on.
func (c *Controller) reopen(ctx context.Context) bool {
	c.log.Warn("microphone stream lost, re-acquiring")
	err := retry(ctx, c.reacquire, c.log, func() error { return c.rec.Open(ctx) })
	if err == nil {
		return true
	}
	if ctx.Err() == nil {
		c.log.Error("%v: %v", domain.ErrDeviceUnavailable, err)
		c.emitStatus(speech.LineMicLost())
	}
	return false
}

// transcribe runs the primary transcriber and, when it asks for it, the
// fallback on the same clip. Each call gets its own timeout.
func (c *Controller) transcribe(ctx context.Context, clip []byte) (string, error) {
	text, err := c.transcribeWith(ctx, c.stt, clip)
	if !errors.Is(err, domain.ErrFallbackRequested) {
		return text, err
	}

	metrics.RecordFallback()
	if c.fallback == nil {
		c.log.Warn("%s requested a fallback but none is configured", c.stt.Name())
		return "", err
	}
	c.log.Info("transcription: falling back from %s to %s", c.stt.Name(), c.fallback.Name())
	return c.transcribeWith(ctx, c.fallback, clip)
}

func (c *Controller) transcribeWith(ctx context.Context, t Transcriber, clip []byte) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, c.transcribeTimeout)
	defer cancel()

	start := time.Now()
	text, err := t.Transcribe(tctx, clip)
	took := time.Since(start)

	switch {
	case err == nil && text == "":
		err = domain.ErrEmptyTranscription
		metrics.RecordTranscription(t.Name(), metrics.ResultEmpty, took)
	case err == nil:
		metrics.RecordTranscription(t.Name(), metrics.ResultOK, took)
	case errors.Is(err, domain.ErrEmptyTranscription):
		metrics.RecordTranscription(t.Name(), metrics.ResultEmpty, took)
	case errors.Is(err, domain.ErrFallbackRequested):
		metrics.RecordTranscription(t.Name(), metrics.ResultFallback, took)
	default:
		metrics.RecordTranscription(t.Name(), metrics.ResultError, took)
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

// respondAndSpeak interprets text, publishes the reply, and speaks it.
// spoke is false when there was nothing to play or synthesis failed; the
// reply is then text-only.
func (c *Controller) respondAndSpeak(ctx context.Context, text string) (reply domain.Reply, spoke bool, err error) {
	c.setState(domain.TurnInterpreting)
	reply, err = c.responder.Respond(ctx, text, c.Page())
	if err != nil {
		return reply, false, fmt.Errorf("responding: %w", err)
	}
	if ctx.Err() != nil {
		return reply, false, ctx.Err()
	}

	c.SetPage(reply.Navigated)
	c.emitReply(reply)
	if reply.Text == "" {
		return reply, false, nil
	}

	c.setState(domain.TurnSpeaking)
	err = c.speaker.Speak(ctx, reply.Text)
	switch {
	case err == nil:
		return reply, true, nil
	case errors.Is(err, domain.ErrSynthesis):
		metrics.RecordSynthesisFailure()
		c.log.Warn("speech synthesis failed, reply is text-only: %v", err)
		return reply, false, nil
	case errors.Is(err, speech.ErrStopped), ctx.Err() != nil:
		return reply, false, nil
	default:
		c.log.Error("speaking reply: %v", err)
		return reply, false, nil
	}
}

func (c *Controller) setState(s domain.TurnState) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	prev := c.state
	c.state = s
	obs := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	metrics.SetTurnState(int(s))
	c.log.Debug("turn: %s -> %s", prev, s)
	for _, o := range obs {
		o.OnState(s)
	}
}

func (c *Controller) snapshotObservers() []Observer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Observer(nil), c.observers...)
}

func (c *Controller) emitTranscript(text string) {
	for _, o := range c.snapshotObservers() {
		o.OnTranscript(text)
	}
}

func (c *Controller) emitReply(r domain.Reply) {
	for _, o := range c.snapshotObservers() {
		o.OnReply(r)
	}
}

func (c *Controller) emitStatus(line string) {
	c.log.Info("status: %s", line)
	for _, o := range c.snapshotObservers() {
		o.OnStatus(line)
	}
}

// sleep waits for d or ctx. It reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
