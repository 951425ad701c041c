package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hammamikhairi/pantrychef/internal/conversation"
	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
	"github.com/hammamikhairi/pantrychef/internal/recipe"
	"github.com/hammamikhairi/pantrychef/internal/speech"
	"github.com/hammamikhairi/pantrychef/internal/storage"
)

type fakeGenerator struct {
	mu        sync.Mutex
	reply     string
	replyErr  error
	title     string
	titleErr  error
	gotCtx    domain.Context
	gotPrompt string
}

func (g *fakeGenerator) Reply(_ context.Context, utterance string, c domain.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gotCtx, g.gotPrompt = c, utterance
	return g.reply, g.replyErr
}

func (g *fakeGenerator) SuggestRecipeTitle(context.Context, string) (string, error) {
	return g.title, g.titleErr
}

type fakeNavigator struct {
	pages []domain.Page
}

func (n *fakeNavigator) Navigate(_ context.Context, p domain.Page) error {
	n.pages = append(n.pages, p)
	return nil
}

type failingStore struct{}

func (failingStore) PantryNames(context.Context, int) ([]string, error) {
	return nil, errors.New("db down")
}
func (failingStore) ShoppingNames(context.Context, int) ([]string, error) {
	return nil, errors.New("db down")
}
func (failingStore) ExplorableRecipes(context.Context, int) ([]domain.Recipe, error) {
	return nil, errors.New("db down")
}

func testSeed() *storage.Seed {
	return &storage.Seed{
		Storage:  []storage.SeedItem{{Name: "chicken breast"}, {Name: "rice"}},
		Shopping: []storage.SeedItem{{Name: "soy sauce"}},
		Meals: []storage.SeedMeal{
			{Recipe: domain.Recipe{ID: "bowl", Title: "Chicken Rice Bowl", Ingredients: []string{"chicken breast", "rice", "soy sauce"}}},
			{Recipe: domain.Recipe{ID: "salad", Title: "Greek Salad", Ingredients: []string{"tomato", "cucumber"}}},
			{Recipe: domain.Recipe{ID: "tikka", Title: "Chicken Tikka Masala", CookTime: 45, Ingredients: []string{"chicken breast", "yogurt"}}},
		},
	}
}

func newTestResponder(store domain.ItemStore, gen *fakeGenerator, nav *fakeNavigator) *Responder {
	log := logger.New(logger.LevelOff, nil)
	var g domain.Generator
	var s recipe.Suggester
	if gen != nil {
		g, s = gen, gen
	}
	var n domain.Navigator
	if nav != nil {
		n = nav
	}
	return NewResponder(conversation.NewPatternInterpreter(log), store, recipe.NewMatcher(s, log), g, n, log)
}

func TestRespondNavigate(t *testing.T) {
	nav := &fakeNavigator{}
	gen := &fakeGenerator{reply: "Here is your list."}
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), gen, nav)

	reply, err := r.Respond(context.Background(), "go to shopping list", domain.PageDashboard)
	if err != nil {
		t.Fatal(err)
	}
	if len(nav.pages) != 1 || nav.pages[0] != domain.PageShopping {
		t.Fatalf("navigated %v, want [shopping]", nav.pages)
	}
	if reply.Navigated != domain.PageShopping {
		t.Errorf("Navigated = %s", reply.Navigated)
	}
	if reply.Recommendations != nil || reply.Opened != nil {
		t.Errorf("unexpected recipe output: %+v", reply)
	}
	if reply.Text != "Opening the shopping list page. Here is your list." {
		t.Errorf("text = %q", reply.Text)
	}
	if gen.gotCtx.CurrentPage != domain.PageShopping {
		t.Errorf("generator saw page %s, want the new page", gen.gotCtx.CurrentPage)
	}
}

func TestRespondRecommend(t *testing.T) {
	gen := &fakeGenerator{reply: "Good choice."}
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), gen, nil)

	reply, err := r.Respond(context.Background(), "what can I cook", domain.PageDashboard)
	if err != nil {
		t.Fatal(err)
	}
	if len(reply.Recommendations) == 0 {
		t.Fatal("no recommendations")
	}
	top := reply.Recommendations[0]
	if top.Recipe.Title != "Chicken Rice Bowl" && top.Recipe.Title != "Chicken Tikka Masala" {
		t.Fatalf("top = %q", top.Recipe.Title)
	}
	last := reply.Recommendations[len(reply.Recommendations)-1]
	if last.Recipe.Title != "Greek Salad" {
		t.Errorf("last = %q, want Greek Salad", last.Recipe.Title)
	}
	for _, m := range reply.Recommendations {
		if m.Recipe.Title == "Chicken Rice Bowl" {
			if len(m.MissingIngredients) != 1 || m.MissingIngredients[0] != "soy sauce" || m.Ready() {
				t.Errorf("bowl missing = %v", m.MissingIngredients)
			}
		}
	}
	if !strings.HasSuffix(reply.Text, "Good choice.") {
		t.Errorf("text = %q", reply.Text)
	}
	if len(gen.gotCtx.PantryNames) != 2 || len(gen.gotCtx.ShoppingNames) != 1 {
		t.Errorf("generator context = %+v", gen.gotCtx)
	}
}

func TestRespondSyntheticSuggestion(t *testing.T) {
	gen := &fakeGenerator{reply: "Yum.", title: "Greek Yogurt Parfait"}
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), gen, nil)

	reply, err := r.Respond(context.Background(), "recipes for greek yogurt", domain.PageMeals)
	if err != nil {
		t.Fatal(err)
	}
	if len(reply.Recommendations) != 1 || !reply.Recommendations[0].Synthetic {
		t.Fatalf("recommendations = %+v", reply.Recommendations)
	}
	if !strings.Contains(reply.Text, "Greek Yogurt Parfait") {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestRespondSuggestionFailure(t *testing.T) {
	gen := &fakeGenerator{reply: "Hmm.", titleErr: domain.ErrGeneration}
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), gen, nil)

	reply, err := r.Respond(context.Background(), "recipes for greek yogurt", domain.PageMeals)
	if err != nil {
		t.Fatal(err)
	}
	if len(reply.Recommendations) != 0 {
		t.Errorf("recommendations = %+v", reply.Recommendations)
	}
	if !strings.Contains(reply.Text, "I couldn't find any recipes") {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestRespondOpenRecipe(t *testing.T) {
	tests := []struct {
		utterance string
		wantID    string
		wantText  string
	}{
		{"let's make chicken tikka masala", "tikka", "Here's Chicken Tikka Masala. It takes about 45 minutes."},
		{"open recipe for beef wellington", "", "I couldn't find a recipe called beef wellington."},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), nil, nil)
			reply, err := r.Respond(context.Background(), tt.utterance, domain.PageMeals)
			if err != nil {
				t.Fatal(err)
			}
			if tt.wantID == "" {
				if reply.Opened != nil {
					t.Errorf("opened %q, want none", reply.Opened.ID)
				}
			} else if reply.Opened == nil || reply.Opened.ID != tt.wantID {
				t.Errorf("opened = %+v, want %s", reply.Opened, tt.wantID)
			}
			if reply.Text != tt.wantText {
				t.Errorf("text = %q, want %q", reply.Text, tt.wantText)
			}
		})
	}
}

func TestRespondNavigateAndRecommend(t *testing.T) {
	nav := &fakeNavigator{}
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), nil, nav)

	reply, err := r.Respond(context.Background(), "go to meals and recommend some recipes", domain.PageDashboard)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Navigated != domain.PageMeals || len(reply.Recommendations) == 0 {
		t.Fatalf("reply = %+v", reply)
	}
	if !strings.HasPrefix(reply.Text, "Opening the recipes page. ") {
		t.Errorf("text = %q", reply.Text)
	}
}

func TestRespondGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{replyErr: domain.ErrGeneration}
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), gen, nil)

	reply, err := r.Respond(context.Background(), "how long do eggs keep", domain.PageStorage)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text == "" {
		t.Fatal("empty reply on generation failure")
	}
	found := false
	for _, g := range speech.GenericReplies() {
		if reply.Text == g {
			found = true
		}
	}
	if !found {
		t.Errorf("text = %q, want a templated reply", reply.Text)
	}
}

func TestRespondStoreFailureDegrades(t *testing.T) {
	gen := &fakeGenerator{reply: "Sure."}
	r := newTestResponder(failingStore{}, gen, nil)

	reply, err := r.Respond(context.Background(), "what can I cook", domain.PageDashboard)
	if err != nil {
		t.Fatal(err)
	}
	if len(reply.Recommendations) != 0 {
		t.Errorf("recommendations from a failing store: %+v", reply.Recommendations)
	}
	if len(gen.gotCtx.PantryNames) != 0 {
		t.Errorf("context = %+v", gen.gotCtx)
	}
}

func TestRespondClipsGeneralReply(t *testing.T) {
	gen := &fakeGenerator{reply: strings.Repeat("very ", 30) + "long"}
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), gen, nil)

	reply, err := r.Respond(context.Background(), "tell me a story", domain.PageDashboard)
	if err != nil {
		t.Fatal(err)
	}
	if n := len(strings.Fields(reply.Text)); n != 20 {
		t.Errorf("words = %d, want 20", n)
	}
}

func TestRespondEmptyUtterance(t *testing.T) {
	r := newTestResponder(storage.NewMemoryStore(nil, logger.New(logger.LevelOff, nil)), nil, nil)
	reply, err := r.Respond(context.Background(), "   ", domain.PageDashboard)
	if err != nil || reply.Text != "" {
		t.Errorf("reply = %+v, err = %v", reply, err)
	}
}

func TestRespondCancelled(t *testing.T) {
	r := newTestResponder(storage.NewMemoryStore(testSeed(), logger.New(logger.LevelOff, nil)), &fakeGenerator{reply: "x"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Respond(ctx, "hello", domain.PageDashboard); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"**Bold** answer", "Bold answer"},
		{"Enjoy 🍳 your   eggs!", "Enjoy your eggs!"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
