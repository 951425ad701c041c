// Package speech provides microphone capture, transcription, synthesis and playback.
package speech

import (
	"context"

	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Silent is the speaker used when voice output is disabled. Replies still
// reach the text observers.
type Silent struct {
	log *logger.Logger
}

// NewSilent creates a speaker that says nothing.
func NewSilent(log *logger.Logger) *Silent {
	return &Silent{log: log}
}

// Speak logs the text and returns immediately.
func (s *Silent) Speak(_ context.Context, text string) error {
	s.log.Debug("speech disabled: would say %q", text)
	return nil
}

// Stop does nothing.
func (s *Silent) Stop() {}
