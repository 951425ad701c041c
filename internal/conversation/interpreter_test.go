package conversation

import (
	"testing"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

func newInterpreter() *PatternInterpreter {
	return NewPatternInterpreter(logger.New(logger.LevelOff, nil))
}

func TestNavigation(t *testing.T) {
	in := newInterpreter()

	tests := []struct {
		input string
		want  domain.Page
	}{
		{"go to shopping list", domain.PageShopping},
		{"Go To SHOPPING", domain.PageShopping},
		{"show my inventory", domain.PageStorage},
		{"open storage", domain.PageStorage},
		{"take me to recipes", domain.PageMeals},
		{"cooking", domain.PageMeals},
		{"meals please", domain.PageMeals},
		{"scan a receipt", domain.PageCamera},
		{"take photo", domain.PageCamera},
		{"take a photo", domain.PageCamera},
		{"open the camera", domain.PageCamera},
		{"show the calendar", domain.PageCalendar},
		{"dashboard", domain.PageDashboard},
		{"home", domain.PageDashboard},
		{"take me home", domain.PageDashboard},
		{"homemade", domain.PageNone},
		{"hello there", domain.PageNone},
		// First table entry wins when several phrases appear.
		{"storage then shopping", domain.PageShopping},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intents := in.Interpret(tt.input)
			nav, ok := domain.Find(intents, domain.IntentNavigate)
			if tt.want == domain.PageNone {
				if ok {
					t.Fatalf("input=%q: got navigate %s, want none", tt.input, nav.Page)
				}
				return
			}
			if !ok {
				t.Fatalf("input=%q: no navigate intent", tt.input)
			}
			if nav.Page != tt.want {
				t.Errorf("input=%q: got page %s, want %s", tt.input, nav.Page, tt.want)
			}
		})
	}
}

func TestRecommendation(t *testing.T) {
	in := newInterpreter()

	tests := []struct {
		input     string
		wantFocus string
	}{
		{"what can I cook", ""},
		{"What can I cook?", ""},
		{"recommend me some recipes", ""},
		{"recipe suggestions", ""},
		{"any meal ideas for tonight", ""},
		{"recipes for greek yogurt", "greek yogurt"},
		{"what can i make with rice", "rice"},
		{"what can i make with rice for dinner", "rice"},
		{"suggest a recipe using the leftover chicken", "leftover chicken"},
		{"recipes with eggs and spinach", "eggs and spinach"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intents := in.Interpret(tt.input)
			rec, ok := domain.Find(intents, domain.IntentRecommendRecipes)
			if !ok {
				t.Fatalf("input=%q: no recommend intent in %v", tt.input, intents)
			}
			if rec.Payload != tt.wantFocus {
				t.Errorf("input=%q: got focus %q, want %q", tt.input, rec.Payload, tt.wantFocus)
			}
			if _, ok := domain.Find(intents, domain.IntentOpenRecipe); ok {
				t.Errorf("input=%q: recommend and open-recipe both produced", tt.input)
			}
		})
	}
}

func TestOpenRecipe(t *testing.T) {
	in := newInterpreter()

	tests := []struct {
		input        string
		wantFragment string
	}{
		{"let's make chicken tikka masala", "chicken tikka masala"},
		{"Let’s cook the pancakes", "pancakes"},
		{"I want to cook beef stew tonight", "beef stew"},
		{"open recipe for greek salad", "greek salad"},
		{"show me the recipe for shakshuka", "shakshuka"},
		{"cook a risotto", "risotto"},
		{"make banana bread please", "banana bread"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			intents := in.Interpret(tt.input)
			open, ok := domain.Find(intents, domain.IntentOpenRecipe)
			if !ok {
				t.Fatalf("input=%q: no open-recipe intent in %v", tt.input, intents)
			}
			if open.Payload != tt.wantFragment {
				t.Errorf("input=%q: got fragment %q, want %q", tt.input, open.Payload, tt.wantFragment)
			}
		})
	}
}

func TestScenarioShoppingListHasNoRecommendation(t *testing.T) {
	intents := newInterpreter().Interpret("go to shopping list")

	nav, ok := domain.Find(intents, domain.IntentNavigate)
	if !ok || nav.Page != domain.PageShopping {
		t.Fatalf("want navigate(shopping), got %v", intents)
	}
	if _, ok := domain.Find(intents, domain.IntentRecommendRecipes); ok {
		t.Fatal("unexpected recommend intent")
	}
}

func TestNavigateAndRecommendCoexist(t *testing.T) {
	inputs := []string{
		"open storage and recommend recipes",
		"go to shopping, what can I cook",
		"recipes for chicken",
	}
	in := newInterpreter()
	for _, input := range inputs {
		intents := in.Interpret(input)
		if _, ok := domain.Find(intents, domain.IntentNavigate); !ok {
			t.Errorf("input=%q: missing navigate intent", input)
		}
		if _, ok := domain.Find(intents, domain.IntentRecommendRecipes); !ok {
			t.Errorf("input=%q: missing recommend intent", input)
		}
	}
}

func TestGeneralQueryAlwaysPresent(t *testing.T) {
	in := newInterpreter()
	for _, input := range []string{"go to storage", "what can i cook", "how long do eggs keep", "let's make soup"} {
		intents := in.Interpret(input)
		gq, ok := domain.Find(intents, domain.IntentGeneralQuery)
		if !ok {
			t.Errorf("input=%q: missing general query", input)
			continue
		}
		if gq.Payload != input {
			t.Errorf("input=%q: general query payload %q", input, gq.Payload)
		}
		if intents[len(intents)-1].Type != domain.IntentGeneralQuery {
			t.Errorf("input=%q: general query should be last", input)
		}
	}

	if got := in.Interpret("   "); len(got) != 0 {
		t.Errorf("blank utterance produced %v", got)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  What CAN I cook?? ": "what can i cook",
		"Let’s make, soup!":    "let's make soup",
		"a\n\tb":               "a b",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
