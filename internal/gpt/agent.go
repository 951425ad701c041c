package gpt

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/time/rate"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ domain.Generator = (*Agent)(nil)

// MaxReplyWords caps the spoken general reply.
const MaxReplyWords = 20

// AgentOption configures the Agent.
type AgentOption func(*Agent)

// WithRateLimit bounds outgoing generation calls to rps per second with
// the given burst.
func WithRateLimit(rps float64, burst int) AgentOption {
	return func(a *Agent) { a.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// Agent wraps a Completer with pantry-domain prompt building.
// It is the single entry-point the responder calls for generated text.
type Agent struct {
	client  Completer
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewAgent creates an agent backed by the given Completer.
func NewAgent(client Completer, log *logger.Logger, opts ...AgentOption) *Agent {
	a := &Agent{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		log:     log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ── Public API ───────────────────────────────────────────────────

// Reply asks the model for a short spoken answer to the utterance, given
// the household context. The answer is clipped to MaxReplyWords.
func (a *Agent) Reply(ctx context.Context, utterance string, c domain.Context) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limit: %w: %w", domain.ErrGeneration, err)
	}

	raw, err := a.client.Chat(ctx, a.buildMessages(PromptReply, utterance, c))
	if err != nil {
		return "", fmt.Errorf("generating reply: %w: %w", domain.ErrGeneration, err)
	}

	reply := ClipWords(cleanSpoken(raw), MaxReplyWords)
	if reply == "" {
		return "", fmt.Errorf("generating reply: %w: empty answer", domain.ErrGeneration)
	}
	a.log.Debug("gpt: reply for %q: %q", truncate(utterance, 60), reply)
	return reply, nil
}

// SuggestRecipeTitle asks the model for exactly one recipe title that uses
// the ingredient.
func (a *Agent) SuggestRecipeTitle(ctx context.Context, ingredient string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limit: %w: %w", domain.ErrGeneration, err)
	}

	msgs := []Message{
		TextMessage(RoleSystem, PromptSuggestTitle),
		TextMessage(RoleUser, "Ingredient: "+ingredient),
	}
	raw, err := a.client.Chat(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("suggesting title: %w: %w", domain.ErrGeneration, err)
	}

	title := cleanTitle(raw)
	if title == "" {
		return "", fmt.Errorf("suggesting title: %w: empty answer", domain.ErrGeneration)
	}
	a.log.Debug("gpt: suggested %q for %q", title, ingredient)
	return title, nil
}

// ── Context building ─────────────────────────────────────────────

// buildMessages assembles the system prompt, a household-context user
// message with a fake ack, and the actual utterance.
func (a *Agent) buildMessages(systemPrompt, utterance string, c domain.Context) []Message {
	msgs := []Message{
		TextMessage(RoleSystem, systemPrompt),
		TextMessage(RoleUser, buildContext(c)),
		// Fake an ack so the model treats context as established.
		TextMessage(RoleAssistant, "Got it, I have the context."),
		TextMessage(RoleUser, utterance),
	}
	return msgs
}

// buildContext serializes the household snapshot into a plain-text block.
func buildContext(c domain.Context) string {
	var b strings.Builder
	b.WriteString("[Household Context]\n")
	fmt.Fprintf(&b, "Current page: %s\n", c.CurrentPage)
	fmt.Fprintf(&b, "Pantry: %s\n", listOrNone(c.PantryNames))
	fmt.Fprintf(&b, "Shopping list: %s\n", listOrNone(c.ShoppingNames))
	return b.String()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(empty)"
	}
	return strings.Join(items, ", ")
}

// ── Output cleanup ───────────────────────────────────────────────

// stripCodeFence removes ``` wrappers that LLMs love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

var markdown = strings.NewReplacer("**", "", "__", "", "`", "", "#", "")

// cleanSpoken flattens a model answer into one plain line.
func cleanSpoken(s string) string {
	s = markdown.Replace(stripCodeFence(s))
	return strings.Join(strings.Fields(s), " ")
}

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s+`)

// cleanTitle keeps the first non-empty line and strips list markers,
// labels, and quotes.
func cleanTitle(s string) string {
	s = stripCodeFence(s)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = listMarker.ReplaceAllString(line, "")
		if i := strings.Index(line, ":"); i >= 0 && i < 12 && strings.EqualFold(strings.TrimSpace(line[:i]), "title") {
			line = line[i+1:]
		}
		line = strings.Trim(strings.TrimSpace(line), `"'“”`)
		line = strings.TrimRight(line, ".!")
		return markdown.Replace(strings.TrimSpace(line))
	}
	return ""
}

// ClipWords truncates s to at most n words. A clipped sentence gets a
// closing period so TTS ends cleanly.
func ClipWords(s string, n int) string {
	words := strings.Fields(s)
	if n <= 0 || len(words) <= n {
		return strings.Join(words, " ")
	}
	out := strings.TrimRight(strings.Join(words[:n], " "), ",;:-")
	if !strings.HasSuffix(out, ".") && !strings.HasSuffix(out, "!") && !strings.HasSuffix(out, "?") {
		out += "."
	}
	return out
}
