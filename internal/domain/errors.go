package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound             = errors.New("not found")
	ErrDeviceUnavailable    = errors.New("audio device unavailable")
	ErrEmptyTranscription   = errors.New("empty transcription")
	ErrTranscriptionService = errors.New("transcription service error")
	ErrFallbackRequested    = errors.New("transcription fallback requested")
	ErrSynthesis            = errors.New("speech synthesis error")
	ErrGeneration           = errors.New("generation service error")
	ErrSessionActive        = errors.New("voice session is active")
	ErrSessionNotActive     = errors.New("voice session is not active")
)
