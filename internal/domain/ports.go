package domain

import "context"

// ItemStore gives bounded read access to the household data. Implementations
// can be in-memory, Postgres, SQLite, or a hosted REST table.
type ItemStore interface {
	PantryNames(ctx context.Context, limit int) ([]string, error)
	ShoppingNames(ctx context.Context, limit int) ([]string, error)
	ExplorableRecipes(ctx context.Context, limit int) ([]Recipe, error)
}

// Generator produces short natural-language output. Implementations are
// LLM-backed; failures should wrap ErrGeneration.
type Generator interface {
	Reply(ctx context.Context, utterance string, c Context) (string, error)
	SuggestRecipeTitle(ctx context.Context, ingredient string) (string, error)
}

// Interpreter converts an utterance into intents.
type Interpreter interface {
	Interpret(utterance string) []Intent
}

// Navigator is the sink for resolved Navigate intents. The core does not
// render pages itself.
type Navigator interface {
	Navigate(ctx context.Context, page Page) error
}

// Notifier delivers messages to the user. Implementations can write to
// stdout, a websocket, or use text-to-speech.
type Notifier interface {
	Notify(ctx context.Context, message string) error
	NotifyUrgent(ctx context.Context, message string) error
}
