// Package recipe scores a recipe catalog against pantry contents.
//
// Matching is a plain substring test: an ingredient counts as present when
// any pantry name occurs inside it. "tea" therefore matches "steak", and
// "chicken breast" does not match "chicken". Callers rely on that exact
// rule, so it is kept as is.
package recipe

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// DefaultLimit is the maximum number of recommendations returned.
const DefaultLimit = 4

// Suggester proposes a recipe title when the catalog has nothing for a
// requested ingredient. domain.Generator satisfies it.
type Suggester interface {
	SuggestRecipeTitle(ctx context.Context, ingredient string) (string, error)
}

// NormalizePantry lowercases and trims names and drops empty ones. An empty
// name would otherwise match every ingredient.
func NormalizePantry(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// present reports whether any pantry name is a substring of the ingredient.
// pantry must already be normalized.
func present(pantry []string, ingredient string) bool {
	ing := strings.ToLower(ingredient)
	for _, name := range pantry {
		if strings.Contains(ing, name) {
			return true
		}
	}
	return false
}

// Score counts the ingredients of r that have a pantry match. It is not
// normalized by the ingredient count.
func Score(pantry []string, r domain.Recipe) int {
	pantry = NormalizePantry(pantry)
	n := 0
	for _, ing := range r.Ingredients {
		if present(pantry, ing) {
			n++
		}
	}
	return n
}

// Missing returns the ingredients of r with no pantry match, in recipe order.
func Missing(pantry []string, r domain.Recipe) []string {
	pantry = NormalizePantry(pantry)
	missing := []string{}
	for _, ing := range r.Ingredients {
		if !present(pantry, ing) {
			missing = append(missing, ing)
		}
	}
	return missing
}

// hasIngredient reports whether any ingredient contains focus.
func hasIngredient(r domain.Recipe, focus string) bool {
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing), focus) {
			return true
		}
	}
	return false
}

// Rank scores the catalog, sorts by descending score with ties in catalog
// order, applies the focus filter, and truncates to limit. A focus that no
// recipe matches yields an empty slice, never the unfiltered list.
func Rank(pantry []string, catalog []domain.Recipe, focus string, limit int) []domain.MatchResult {
	if limit <= 0 || limit > DefaultLimit {
		limit = DefaultLimit
	}
	pantry = NormalizePantry(pantry)
	focus = strings.ToLower(strings.TrimSpace(focus))

	scored := make([]domain.MatchResult, 0, len(catalog))
	for _, r := range catalog {
		scored = append(scored, domain.MatchResult{Recipe: r, Score: Score(pantry, r)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	out := make([]domain.MatchResult, 0, limit)
	for _, m := range scored {
		if focus != "" && !hasIngredient(m.Recipe, focus) {
			continue
		}
		m.MissingIngredients = Missing(pantry, m.Recipe)
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out
}

// FindByName returns the first catalog recipe whose title contains the
// fragment, or whose title is contained in the fragment.
func FindByName(catalog []domain.Recipe, fragment string) (domain.Recipe, error) {
	fragment = strings.ToLower(strings.TrimSpace(fragment))
	if fragment == "" {
		return domain.Recipe{}, domain.ErrNotFound
	}
	for _, r := range catalog {
		title := strings.ToLower(strings.TrimSpace(r.Title))
		if title == "" {
			continue
		}
		if strings.Contains(title, fragment) || strings.Contains(fragment, title) {
			return r, nil
		}
	}
	return domain.Recipe{}, fmt.Errorf("recipe %q: %w", fragment, domain.ErrNotFound)
}

// Option configures the Matcher.
type Option func(*Matcher)

// WithLimit caps the number of recommendations (at most DefaultLimit).
func WithLimit(n int) Option {
	return func(m *Matcher) { m.limit = n }
}

// Matcher ranks recipes and falls back to a generated suggestion when a
// focused request has no catalog match.
type Matcher struct {
	suggester Suggester
	log       *logger.Logger
	limit     int
}

// NewMatcher creates a matcher. suggester may be nil, in which case a
// focused request with no match simply returns an empty list.
func NewMatcher(suggester Suggester, log *logger.Logger, opts ...Option) *Matcher {
	m := &Matcher{suggester: suggester, log: log, limit: DefaultLimit}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Recommend ranks the catalog against the pantry. When focus is set and
// nothing matches, one synthetic placeholder recipe is produced from the
// suggester. The error is non-nil only when that suggestion fails, and
// then the empty list is still returned.
func (m *Matcher) Recommend(ctx context.Context, pantry []string, catalog []domain.Recipe, focus string) ([]domain.MatchResult, error) {
	results := Rank(pantry, catalog, focus, m.limit)
	m.log.Debug("matcher: %d candidates, %d results (focus=%q)", len(catalog), len(results), focus)

	focus = strings.TrimSpace(focus)
	if len(results) > 0 || focus == "" || m.suggester == nil {
		return results, nil
	}

	title, err := m.suggester.SuggestRecipeTitle(ctx, focus)
	if err != nil {
		return results, fmt.Errorf("suggesting recipe for %q: %w", focus, err)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return results, fmt.Errorf("suggesting recipe for %q: %w", focus, domain.ErrGeneration)
	}

	m.log.Info("matcher: no catalog match for %q, suggesting %q", focus, title)
	return []domain.MatchResult{{
		Recipe: domain.Recipe{
			ID:           "suggested-" + slug(title),
			Title:        title,
			Ingredients:  []string{},
			Instructions: []string{},
		},
		MissingIngredients: []string{},
		Synthetic:          true,
	}}, nil
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
