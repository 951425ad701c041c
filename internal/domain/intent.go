package domain

// IntentType classifies what the user wants to do.
type IntentType int

const (
	IntentUnknown IntentType = iota
	IntentNavigate
	IntentRecommendRecipes
	IntentOpenRecipe
	IntentGeneralQuery
)

// String returns a human-readable intent type.
func (i IntentType) String() string {
	switch i {
	case IntentNavigate:
		return "navigate"
	case IntentRecommendRecipes:
		return "recommend_recipes"
	case IntentOpenRecipe:
		return "open_recipe"
	case IntentGeneralQuery:
		return "general_query"
	default:
		return "unknown"
	}
}

// Intent represents one action derived from an utterance.
type Intent struct {
	Type    IntentType
	Page    Page   // target for IntentNavigate
	Payload string // focus, name fragment, or query text depending on Type
}

// Find returns the first intent of the given type, if any.
func Find(intents []Intent, t IntentType) (Intent, bool) {
	for _, in := range intents {
		if in.Type == t {
			return in, true
		}
	}
	return Intent{}, false
}
