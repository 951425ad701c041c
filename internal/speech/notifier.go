package speech

import (
	"context"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ domain.Notifier = (*SpeakingNotifier)(nil)

// Speaker says text aloud and blocks until done. *Mouth and *Silent
// satisfy it.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// SpeakingNotifier prints through an inner notifier and then speaks the
// same message. Urgent messages cut off whatever is playing.
type SpeakingNotifier struct {
	text    domain.Notifier
	speaker Speaker
	log     *logger.Logger
}

// NewSpeakingNotifier creates a notifier that both prints and speaks.
func NewSpeakingNotifier(text domain.Notifier, speaker Speaker, log *logger.Logger) *SpeakingNotifier {
	return &SpeakingNotifier{text: text, speaker: speaker, log: log}
}

// Notify prints the message and speaks it.
func (n *SpeakingNotifier) Notify(ctx context.Context, message string) error {
	if err := n.text.Notify(ctx, message); err != nil {
		return err
	}
	return n.say(ctx, message)
}

// NotifyUrgent interrupts current speech, then prints and speaks.
func (n *SpeakingNotifier) NotifyUrgent(ctx context.Context, message string) error {
	n.speaker.Stop()
	if err := n.text.NotifyUrgent(ctx, message); err != nil {
		return err
	}
	return n.say(ctx, message)
}

// say never fails the notification: the text was already delivered.
func (n *SpeakingNotifier) say(ctx context.Context, message string) error {
	if err := n.speaker.Speak(ctx, cleanForSpeech(message)); err != nil {
		n.log.Warn("notifier: speech failed, text only: %v", err)
	}
	return nil
}
