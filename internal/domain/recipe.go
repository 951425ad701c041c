// Package domain defines the core types and interfaces for the pantry assistant.
// All other packages depend on domain; domain depends on nothing.
package domain

// Recipe is a catalog entry. Explorable recipes are the ones with no
// planned date on the calendar.
type Recipe struct {
	ID           string   `json:"id" yaml:"id"`
	Title        string   `json:"title" yaml:"title"`
	CookTime     int      `json:"cookTime" yaml:"cook_time"` // minutes
	Servings     int      `json:"servings" yaml:"servings"`
	Ingredients  []string `json:"ingredients" yaml:"ingredients"`
	Instructions []string `json:"instructions" yaml:"instructions"`
	Image        string   `json:"image,omitempty" yaml:"image"`
}

// MatchResult is one scored recommendation. It lives for a single reply.
type MatchResult struct {
	Recipe             Recipe   `json:"recipe"`
	MissingIngredients []string `json:"missingIngredients"`
	Score              int      `json:"score"`
	Synthetic          bool     `json:"synthetic,omitempty"` // LLM-suggested placeholder, not from the catalog
}

// Ready reports whether every ingredient has a pantry match.
func (m MatchResult) Ready() bool {
	return len(m.MissingIngredients) == 0
}

// Context is the per-turn snapshot handed to the generator.
type Context struct {
	PantryNames   []string
	ShoppingNames []string
	CurrentPage   Page
}

// Reply is what the responder produces for one utterance.
type Reply struct {
	Text            string        `json:"text"`
	Navigated       Page          `json:"navigated,omitempty"`
	Recommendations []MatchResult `json:"recommendations,omitempty"`
	Opened          *Recipe       `json:"opened,omitempty"`
}
