// lines.go centralises every spoken string.
// Edit this file to change PantryChef's personality. Keep lines short and
// direct; the TTS engine handles inflection.
package speech

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/hammamikhairi/pantrychef/internal/domain"
)

// ── Greeting / Global ────────────────────────────────────────────

func LineWelcome() string {
	return "Hi. Say listen, or just type, and ask me about your kitchen."
}

func LineBye() string {
	return "Bye."
}

// ── Turn status ──────────────────────────────────────────────────

func LineDidntCatch() string {
	return "Didn't catch that."
}

func LineGaveUp() string {
	return "I couldn't hear anything, so I stopped listening."
}

func LineMicLost() string {
	return "I lost the microphone. Tap listen to try again."
}

func LineMicUnavailable() string {
	return "I can't reach the microphone."
}

func LineSpeechOff() string {
	return "Voice output is unavailable, showing text only."
}

// ── Navigation ───────────────────────────────────────────────────

// pageSpoken maps pages to the name users see on screen.
var pageSpoken = map[domain.Page]string{
	domain.PageDashboard: "dashboard",
	domain.PageShopping:  "shopping list",
	domain.PageStorage:   "storage",
	domain.PageMeals:     "recipes",
	domain.PageCalendar:  "calendar",
	domain.PageCamera:    "camera",
}

// LineNavigate confirms a page change.
func LineNavigate(page domain.Page) string {
	name, ok := pageSpoken[page]
	if !ok {
		name = page.String()
	}
	return fmt.Sprintf("Opening the %s page.", name)
}

// ── Recipes ──────────────────────────────────────────────────────

// LineRecommendations summarizes a ranked list. The best match is named
// first along with what it still needs.
func LineRecommendations(results []domain.MatchResult) string {
	if len(results) == 0 {
		return LineNoRecipes()
	}

	top := results[0]
	if top.Synthetic {
		return fmt.Sprintf("Nothing in your recipes fits, but you could try %s.", top.Recipe.Title)
	}

	var b strings.Builder
	if top.Ready() {
		fmt.Fprintf(&b, "You can make %s right now.", top.Recipe.Title)
	} else {
		fmt.Fprintf(&b, "Try %s. You'd still need %s.", top.Recipe.Title, joinList(top.MissingIngredients))
	}
	if rest := titles(results[1:]); len(rest) > 0 {
		fmt.Fprintf(&b, " Also: %s.", joinList(rest))
	}
	return b.String()
}

func LineNoRecipes() string {
	return "I couldn't find any recipes for that."
}

// LineOpenRecipe confirms an opened recipe.
func LineOpenRecipe(r domain.Recipe) string {
	if r.CookTime > 0 {
		return fmt.Sprintf("Here's %s. It takes about %d minutes.", r.Title, r.CookTime)
	}
	return fmt.Sprintf("Here's %s.", r.Title)
}

func LineRecipeNotFound(fragment string) string {
	return fmt.Sprintf("I couldn't find a recipe called %s.", fragment)
}

// ── Fallbacks ────────────────────────────────────────────────────
// Used when the language model is unavailable. Randomized to avoid
// repetition.

var genericReplies = []string{
	"I'm not sure about that one.",
	"Sorry, I can't answer that right now.",
	"I don't have an answer for that yet.",
}

// LineGeneric returns a templated reply for a failed generation.
func LineGeneric() string {
	return genericReplies[rand.Intn(len(genericReplies))]
}

// GenericReplies returns every templated reply.
func GenericReplies() []string {
	return append([]string(nil), genericReplies...)
}

// StatusLines returns the fixed lines worth prefetching into the TTS cache.
func StatusLines() []string {
	out := []string{LineWelcome(), LineDidntCatch(), LineGaveUp(), LineMicLost(), LineNoRecipes()}
	out = append(out, genericReplies...)
	return out
}

// ── Helpers ──────────────────────────────────────────────────────

func titles(results []domain.MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.Recipe.Title)
	}
	return out
}

// joinList renders "a", "a and b", or "a, b, and c".
func joinList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return items[0] + " and " + items[1]
	}
	return strings.Join(items[:len(items)-1], ", ") + ", and " + items[len(items)-1]
}
