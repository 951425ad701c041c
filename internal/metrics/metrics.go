// Package metrics exposes Prometheus collectors for the voice loop.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	turns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pantrychef_turns_total",
		Help: "Utterances that reached the responder",
	})

	transcriptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantrychef_transcriptions_total",
		Help: "Transcription attempts by transcriber and result",
	}, []string{"transcriber", "result"})

	transcriptionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pantrychef_transcription_seconds",
		Help:    "Transcription latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10},
	}, []string{"transcriber"})

	fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pantrychef_transcription_fallbacks_total",
		Help: "Clips routed to the fallback transcriber",
	})

	synthesisFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pantrychef_synthesis_failures_total",
		Help: "Replies delivered text-only because synthesis failed",
	})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantrychef_generation_failures_total",
		Help: "Generator calls that fell back to a templated line",
	}, []string{"kind"})

	intents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pantrychef_intents_total",
		Help: "Interpreted intents by type",
	}, []string{"type"})

	turnState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pantrychef_turn_state",
		Help: "Current turn state (0=idle, 1=capturing, 2=transcribing, 3=interpreting, 4=speaking)",
	})
)

// Transcription results.
const (
	ResultOK       = "ok"
	ResultEmpty    = "empty"
	ResultError    = "error"
	ResultFallback = "fallback"
)

// RecordTurn counts one utterance handed to the responder.
func RecordTurn() { turns.Inc() }

// RecordTranscription counts one attempt and observes its latency.
func RecordTranscription(transcriber, result string, took time.Duration) {
	transcriptions.WithLabelValues(transcriber, result).Inc()
	transcriptionLatency.WithLabelValues(transcriber).Observe(took.Seconds())
}

// RecordFallback counts a clip sent to the fallback transcriber.
func RecordFallback() { fallbacks.Inc() }

// RecordSynthesisFailure counts a text-only reply.
func RecordSynthesisFailure() { synthesisFailures.Inc() }

// RecordGenerationFailure counts a templated fallback. kind is "reply" or
// "suggestion".
func RecordGenerationFailure(kind string) { generationFailures.WithLabelValues(kind).Inc() }

// RecordIntent counts one interpreted intent.
func RecordIntent(intentType string) { intents.WithLabelValues(intentType).Inc() }

// SetTurnState publishes the controller state.
func SetTurnState(state int) { turnState.Set(float64(state)) }

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
