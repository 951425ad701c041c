package gpt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

type fakeCompleter struct {
	reply string
	err   error
	got   []Message
}

func (f *fakeCompleter) Chat(_ context.Context, msgs []Message) (string, error) {
	f.got = msgs
	return f.reply, f.err
}

func newTestAgent(c Completer) *Agent {
	return NewAgent(c, logger.New(logger.LevelOff, nil), WithRateLimit(1000, 10))
}

func TestAgentReplyIncludesContext(t *testing.T) {
	fc := &fakeCompleter{reply: "You have eggs and spinach, so an omelette works."}
	a := newTestAgent(fc)

	got, err := a.Reply(context.Background(), "what's for lunch", domain.Context{
		PantryNames:   []string{"eggs", "spinach"},
		ShoppingNames: []string{"feta"},
		CurrentPage:   domain.PageMeals,
	})
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if got != fc.reply {
		t.Errorf("reply = %q, want %q", got, fc.reply)
	}
	if len(fc.got) != 4 {
		t.Fatalf("sent %d messages, want 4", len(fc.got))
	}
	if fc.got[0].Role != RoleSystem || fc.got[0].Content != PromptReply {
		t.Errorf("first message should be the reply prompt")
	}
	ctxMsg := fc.got[1].Content
	for _, want := range []string{"eggs, spinach", "feta", "meals"} {
		if !strings.Contains(ctxMsg, want) {
			t.Errorf("context block missing %q:\n%s", want, ctxMsg)
		}
	}
	if fc.got[3].Content != "what's for lunch" {
		t.Errorf("last message = %q", fc.got[3].Content)
	}
}

func TestAgentReplyEmptyContext(t *testing.T) {
	fc := &fakeCompleter{reply: "ok"}
	a := newTestAgent(fc)
	if _, err := a.Reply(context.Background(), "hi", domain.Context{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(fc.got[1].Content, "Pantry: (empty)") {
		t.Errorf("empty pantry not marked:\n%s", fc.got[1].Content)
	}
}

func TestAgentReplyClipsWords(t *testing.T) {
	long := strings.Repeat("word ", 40)
	a := newTestAgent(&fakeCompleter{reply: long})
	got, err := a.Reply(context.Background(), "talk", domain.Context{})
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Fields(got)); n != MaxReplyWords {
		t.Errorf("got %d words, want %d", n, MaxReplyWords)
	}
}

func TestAgentReplyErrors(t *testing.T) {
	tests := []struct {
		name string
		fc   *fakeCompleter
	}{
		{"client failure", &fakeCompleter{err: errors.New("boom")}},
		{"empty answer", &fakeCompleter{reply: "   "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestAgent(tt.fc).Reply(context.Background(), "hi", domain.Context{})
			if !errors.Is(err, domain.ErrGeneration) {
				t.Errorf("err = %v, want ErrGeneration", err)
			}
		})
	}
}

func TestAgentReplyCancelledContext(t *testing.T) {
	a := NewAgent(&fakeCompleter{reply: "x"}, logger.New(logger.LevelOff, nil), WithRateLimit(0.001, 1))
	// Drain the single burst token.
	if _, err := a.Reply(context.Background(), "first", domain.Context{}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := a.Reply(ctx, "second", domain.Context{}); !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("err = %v, want ErrGeneration", err)
	}
}

func TestSuggestRecipeTitle(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Saffron Risotto", "Saffron Risotto"},
		{`"Saffron Risotto"`, "Saffron Risotto"},
		{"Title: Saffron Risotto.", "Saffron Risotto"},
		{"```\nSaffron Risotto\n```", "Saffron Risotto"},
		{"1. Saffron Risotto\n2. Saffron Buns", "Saffron Risotto"},
		{"**Saffron Risotto**", "Saffron Risotto"},
		{"3 Bean Chili", "3 Bean Chili"},
		{"7-Layer Greek Yogurt Dip", "7-Layer Greek Yogurt Dip"},
		{"- 3 Bean Chili", "3 Bean Chili"},
		{"2) 5-Spice Duck", "5-Spice Duck"},
		{"* Title: 30 Minute Ramen", "30 Minute Ramen"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			fc := &fakeCompleter{reply: tt.raw}
			got, err := newTestAgent(fc).SuggestRecipeTitle(context.Background(), "saffron")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("title = %q, want %q", got, tt.want)
			}
			if !strings.Contains(fc.got[1].Content, "saffron") {
				t.Errorf("ingredient not sent: %q", fc.got[1].Content)
			}
		})
	}
}

func TestSuggestRecipeTitleEmpty(t *testing.T) {
	_, err := newTestAgent(&fakeCompleter{reply: "\n\n"}).SuggestRecipeTitle(context.Background(), "saffron")
	if !errors.Is(err, domain.ErrGeneration) {
		t.Errorf("err = %v, want ErrGeneration", err)
	}
}

func TestClipWords(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"one two three", 5, "one two three"},
		{"one two three four", 2, "one two."},
		{"one, two, three", 2, "one, two."},
		{"  spaced   out  ", 5, "spaced out"},
		{"a b c", 0, "a b c"},
	}
	for _, tt := range tests {
		if got := ClipWords(tt.in, tt.n); got != tt.want {
			t.Errorf("ClipWords(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
