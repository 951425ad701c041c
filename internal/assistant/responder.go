// Package assistant turns one utterance into a composed reply: it runs the
// interpreter, acts on each intent, and merges the results into a single
// spoken line.
package assistant

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/gpt"
	"github.com/hammamikhairi/pantrychef/internal/logger"
	"github.com/hammamikhairi/pantrychef/internal/metrics"
	"github.com/hammamikhairi/pantrychef/internal/recipe"
	"github.com/hammamikhairi/pantrychef/internal/speech"
)

// Default read bounds per turn.
const (
	DefaultContextLimit = 20
	DefaultCatalogLimit = 50
)

// Option configures the Responder.
type Option func(*Responder)

// WithContextLimit bounds the pantry and shopping names loaded per turn.
func WithContextLimit(n int) Option {
	return func(r *Responder) { r.contextLimit = n }
}

// WithCatalogLimit bounds the explorable recipes loaded per turn.
func WithCatalogLimit(n int) Option {
	return func(r *Responder) { r.catalogLimit = n }
}

// Responder orchestrates a single turn. It holds no per-turn state.
type Responder struct {
	interp  domain.Interpreter
	store   domain.ItemStore
	matcher *recipe.Matcher
	gen     domain.Generator // nil when generation is disabled
	nav     domain.Navigator // nil for headless use
	log     *logger.Logger

	contextLimit int
	catalogLimit int
}

// NewResponder wires the collaborators. gen and nav may be nil.
func NewResponder(
	interp domain.Interpreter,
	store domain.ItemStore,
	matcher *recipe.Matcher,
	gen domain.Generator,
	nav domain.Navigator,
	log *logger.Logger,
	opts ...Option,
) *Responder {
	r := &Responder{
		interp:       interp,
		store:        store,
		matcher:      matcher,
		gen:          gen,
		nav:          nav,
		log:          log,
		contextLimit: DefaultContextLimit,
		catalogLimit: DefaultCatalogLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// snapshot is the data loaded for one turn.
type snapshot struct {
	pantry   []string
	shopping []string
	catalog  []domain.Recipe
}

// Respond interprets utterance and produces the reply. Collaborator
// failures degrade to templated lines; the only error returned is the
// ctx error when the turn was abandoned.
func (r *Responder) Respond(ctx context.Context, utterance string, page domain.Page) (domain.Reply, error) {
	intents := r.interp.Interpret(utterance)
	if len(intents) == 0 {
		return domain.Reply{}, nil
	}
	metrics.RecordTurn()
	for _, in := range intents {
		metrics.RecordIntent(in.Type.String())
	}

	_, wantsRecommend := domain.Find(intents, domain.IntentRecommendRecipes)
	_, wantsOpen := domain.Find(intents, domain.IntentOpenRecipe)
	snap := r.load(ctx, wantsRecommend || wantsOpen)

	var reply domain.Reply
	current := page

	if nav, ok := domain.Find(intents, domain.IntentNavigate); ok {
		if r.nav != nil {
			if err := r.nav.Navigate(ctx, nav.Page); err != nil {
				r.log.Warn("responder: navigate to %s failed: %v", nav.Page, err)
			}
		}
		reply.Navigated = nav.Page
		current = nav.Page
	}

	var recipeLine, general string
	var g errgroup.Group

	g.Go(func() error {
		if in, ok := domain.Find(intents, domain.IntentRecommendRecipes); ok {
			results, err := r.matcher.Recommend(ctx, snap.pantry, snap.catalog, in.Payload)
			if err != nil {
				r.log.Warn("responder: recommendation fallback failed: %v", err)
				metrics.RecordGenerationFailure("suggestion")
			}
			reply.Recommendations = results
			recipeLine = speech.LineRecommendations(results)
			return nil
		}
		if in, ok := domain.Find(intents, domain.IntentOpenRecipe); ok {
			rec, err := recipe.FindByName(snap.catalog, in.Payload)
			if err != nil {
				recipeLine = speech.LineRecipeNotFound(in.Payload)
				return nil
			}
			reply.Opened = &rec
			recipeLine = speech.LineOpenRecipe(rec)
		}
		return nil
	})

	g.Go(func() error {
		in, ok := domain.Find(intents, domain.IntentGeneralQuery)
		if !ok || r.gen == nil {
			return nil
		}
		text, err := r.gen.Reply(ctx, in.Payload, domain.Context{
			PantryNames:   snap.pantry,
			ShoppingNames: snap.shopping,
			CurrentPage:   current,
		})
		if err != nil {
			r.log.Warn("responder: general reply failed: %v", err)
			metrics.RecordGenerationFailure("reply")
			return nil
		}
		general = text
		return nil
	})

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.Reply{}, err
	}

	var parts []string
	if reply.Navigated != domain.PageNone {
		parts = append(parts, speech.LineNavigate(reply.Navigated))
	}
	if recipeLine != "" {
		parts = append(parts, recipeLine)
	}
	if general = Sanitize(general); general != "" {
		parts = append(parts, gpt.ClipWords(general, gpt.MaxReplyWords))
	}
	if len(parts) == 0 {
		parts = append(parts, speech.LineGeneric())
	}
	reply.Text = strings.Join(parts, " ")

	r.log.Info("responder: %q -> %q", utterance, reply.Text)
	return reply, nil
}

// load reads the bounded context. Store failures leave the field empty.
func (r *Responder) load(ctx context.Context, withCatalog bool) snapshot {
	var snap snapshot
	var g errgroup.Group

	g.Go(func() error {
		names, err := r.store.PantryNames(ctx, r.contextLimit)
		r.degrade("pantry", err)
		snap.pantry = names
		return nil
	})
	g.Go(func() error {
		names, err := r.store.ShoppingNames(ctx, r.contextLimit)
		r.degrade("shopping", err)
		snap.shopping = names
		return nil
	})
	if withCatalog {
		g.Go(func() error {
			recipes, err := r.store.ExplorableRecipes(ctx, r.catalogLimit)
			r.degrade("catalog", err)
			snap.catalog = recipes
			return nil
		})
	}
	_ = g.Wait()
	return snap
}

func (r *Responder) degrade(what string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	r.log.Warn("responder: loading %s failed, using empty context: %v", what, err)
}

// Sanitize removes markup and pictographs that read badly aloud and
// collapses whitespace.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '*' || r == '#' || r == '_' || r == '`' || r == '~':
			continue
		case unicode.Is(unicode.So, r) || r == '\uFE0F':
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
