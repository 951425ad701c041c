package speech

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Microphone captures S16LE mono audio through miniaudio. The device is
// initialized on Open but only started for the duration of a Record call,
// so nothing is captured between turns.
type Microphone struct {
	log        *logger.Logger
	sampleRate int

	mu     sync.Mutex
	mctx   *malgo.AllocatedContext
	device *malgo.Device

	healthy  atomic.Bool
	stopping atomic.Bool

	bufMu     sync.Mutex
	buf       []byte
	recording bool
}

// NewMicrophone creates a closed microphone. Call Open before Record.
func NewMicrophone(sampleRate int, log *logger.Logger) *Microphone {
	if sampleRate <= 0 {
		sampleRate = CaptureRate
	}
	return &Microphone{log: log, sampleRate: sampleRate}
}

// Open acquires the capture device. An already open stream is closed
// first. Failures wrap domain.ErrDeviceUnavailable.
func (m *Microphone) Open(_ context.Context) error {
	m.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(_ string) {})
	if err != nil {
		return fmt.Errorf("init audio context: %w: %w", domain.ErrDeviceUnavailable, err)
	}

	cfg := malgo.DefaultDeviceConfig(malgo.Capture)
	cfg.SampleRate = uint32(m.sampleRate)
	cfg.Capture.Format = malgo.FormatS16
	cfg.Capture.Channels = ChannelCount
	cfg.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: m.onData,
		Stop: m.onStop,
	}

	device, err := malgo.InitDevice(mctx.Context, cfg, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return fmt.Errorf("init capture device: %w: %w", domain.ErrDeviceUnavailable, err)
	}

	m.mctx = mctx
	m.device = device
	m.healthy.Store(true)
	m.log.Debug("mic: opened (rate=%d)", m.sampleRate)
	return nil
}

// Record captures audio until max elapses or ctx ends and returns it as a
// WAV clip. A cancelled ctx discards the clip and returns ctx.Err().
func (m *Microphone) Record(ctx context.Context, max time.Duration) ([]byte, error) {
	m.mu.Lock()
	if m.device == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("record: %w: stream not open", domain.ErrDeviceUnavailable)
	}
	m.bufMu.Lock()
	m.buf = m.buf[:0]
	m.recording = true
	m.bufMu.Unlock()

	if err := m.device.Start(); err != nil {
		m.healthy.Store(false)
		m.mu.Unlock()
		return nil, fmt.Errorf("start capture: %w: %w", domain.ErrDeviceUnavailable, err)
	}
	m.mu.Unlock()

	timer := time.NewTimer(max)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}

	m.mu.Lock()
	if m.device != nil {
		m.stopping.Store(true)
		if err := m.device.Stop(); err != nil {
			m.log.Warn("mic: stop failed: %v", err)
		}
		m.stopping.Store(false)
	}
	m.mu.Unlock()

	m.bufMu.Lock()
	m.recording = false
	pcm := make([]byte, len(m.buf))
	copy(pcm, m.buf)
	m.bufMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !m.Healthy() {
		return nil, fmt.Errorf("record: %w: stream lost", domain.ErrDeviceUnavailable)
	}
	m.log.Debug("mic: captured %d bytes in %s", len(pcm), max)
	return EncodeWAV(pcm, m.sampleRate), nil
}

// Healthy reports whether the stream is open and has not stopped on its own.
func (m *Microphone) Healthy() bool {
	return m.healthy.Load()
}

// Close releases the device. Safe to call more than once.
func (m *Microphone) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.healthy.Store(false)
	if m.device != nil {
		m.stopping.Store(true)
		m.device.Uninit()
		m.device = nil
		m.stopping.Store(false)
	}
	if m.mctx != nil {
		_ = m.mctx.Uninit()
		m.mctx.Free()
		m.mctx = nil
		m.log.Debug("mic: closed")
	}
	return nil
}

func (m *Microphone) onData(_, input []byte, _ uint32) {
	if len(input) == 0 {
		return
	}
	m.bufMu.Lock()
	if m.recording {
		m.buf = append(m.buf, input...)
	}
	m.bufMu.Unlock()
}

// onStop fires for every device stop. Only stops we did not ask for mark
// the stream unhealthy.
func (m *Microphone) onStop() {
	if m.stopping.Load() {
		return
	}
	m.healthy.Store(false)
	m.log.Warn("mic: capture device stopped unexpectedly")
}
