// Package conversation provides intent interpretation and user notification implementations.
package conversation

import (
	"regexp"
	"strings"

	"github.com/hammamikhairi/pantrychef/internal/domain"
	"github.com/hammamikhairi/pantrychef/internal/logger"
)

// Compile-time interface check.
var _ domain.Interpreter = (*PatternInterpreter)(nil)

// PatternInterpreter classifies utterances with ordered regex tables.
// Order matters in every table: the first matching rule wins.
type PatternInterpreter struct {
	log       *logger.Logger
	nav       []navRule
	recommend []*regexp.Regexp
	focus     []*regexp.Regexp
	open      []*regexp.Regexp
}

type navRule struct {
	regex *regexp.Regexp
	page  domain.Page
}

// NewPatternInterpreter creates the default pattern-table interpreter.
func NewPatternInterpreter(log *logger.Logger) *PatternInterpreter {
	p := &PatternInterpreter{log: log}
	p.nav = []navRule{
		{regexp.MustCompile(`\bshopping list\b`), domain.PageShopping},
		{regexp.MustCompile(`\bshopping\b`), domain.PageShopping},
		{regexp.MustCompile(`\binventory\b`), domain.PageStorage},
		{regexp.MustCompile(`\bstorage\b`), domain.PageStorage},
		{regexp.MustCompile(`\brecipes\b`), domain.PageMeals},
		{regexp.MustCompile(`\bcooking\b`), domain.PageMeals},
		{regexp.MustCompile(`\bmeals\b`), domain.PageMeals},
		{regexp.MustCompile(`\bscan\b`), domain.PageCamera},
		{regexp.MustCompile(`\btake (?:a )?photo\b`), domain.PageCamera},
		{regexp.MustCompile(`\bcamera\b`), domain.PageCamera},
		{regexp.MustCompile(`\bcalendar\b`), domain.PageCalendar},
		{regexp.MustCompile(`\bmeal plan\b`), domain.PageCalendar},
		{regexp.MustCompile(`\bdashboard\b`), domain.PageDashboard},
		{regexp.MustCompile(`\bhome\b`), domain.PageDashboard},
	}
	p.recommend = []*regexp.Regexp{
		regexp.MustCompile(`\bwhat (?:can|could|should) (?:i|we) (?:cook|make|eat)\b`),
		regexp.MustCompile(`\brecommend\b.*\b(?:recipes?|meals?|something|dishes)\b`),
		regexp.MustCompile(`\brecipe suggestions?\b`),
		regexp.MustCompile(`\bsuggest\b.*\b(?:recipes?|meals?|something)\b`),
		regexp.MustCompile(`\bmeal ideas?\b`),
		regexp.MustCompile(`\brecipes (?:for|with|using)\b`),
	}
	// Focus extraction priority: for, then with, then using.
	p.focus = []*regexp.Regexp{
		regexp.MustCompile(`\bfor (.+)$`),
		regexp.MustCompile(`\bwith (.+)$`),
		regexp.MustCompile(`\busing (.+)$`),
	}
	p.open = []*regexp.Regexp{
		regexp.MustCompile(`\bi(?: want| would like|'d like) to (?:cook|make) (.+)$`),
		regexp.MustCompile(`\blet'?s (?:make|cook) (.+)$`),
		regexp.MustCompile(`\bopen (?:the )?recipe (?:for )?(.+)$`),
		regexp.MustCompile(`\bshow (?:me )?(?:the )?recipe (?:for )?(.+)$`),
		regexp.MustCompile(`\bcook (.+)$`),
		regexp.MustCompile(`\bmake (.+)$`),
	}
	return p
}

// Interpret converts an utterance into intents, in the order Navigate,
// recipe action, GeneralQuery. An empty utterance yields no intents.
func (p *PatternInterpreter) Interpret(utterance string) []domain.Intent {
	text := Normalize(utterance)
	if text == "" {
		return nil
	}

	p.log.Debug("interpreting: %q", text)

	var out []domain.Intent

	if page, ok := p.matchNav(text); ok {
		out = append(out, domain.Intent{Type: domain.IntentNavigate, Page: page})
	}

	if p.matchRecommend(text) {
		out = append(out, domain.Intent{Type: domain.IntentRecommendRecipes, Payload: p.extractFocus(text)})
	} else if fragment, ok := p.matchOpen(text); ok {
		out = append(out, domain.Intent{Type: domain.IntentOpenRecipe, Payload: fragment})
	}

	// The general reply is produced for every utterance, alongside any
	// other intent.
	out = append(out, domain.Intent{Type: domain.IntentGeneralQuery, Payload: strings.TrimSpace(utterance)})

	for _, in := range out {
		p.log.Debug("matched intent: %s page=%s payload=%q", in.Type, in.Page, in.Payload)
	}
	return out
}

func (p *PatternInterpreter) matchNav(text string) (domain.Page, bool) {
	for _, rule := range p.nav {
		if rule.regex.MatchString(text) {
			return rule.page, true
		}
	}
	return domain.PageNone, false
}

func (p *PatternInterpreter) matchRecommend(text string) bool {
	for _, re := range p.recommend {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// extractFocus returns the ingredient focus, or "" when the request is
// unconstrained. A clause made only of filler ("for dinner") does not
// count as a match and the next preposition is tried.
func (p *PatternInterpreter) extractFocus(text string) string {
	for _, re := range p.focus {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if focus := trimWords(m[len(m)-1], focusLeading, focusTrailing); focus != "" {
			return focus
		}
	}
	return ""
}

func (p *PatternInterpreter) matchOpen(text string) (string, bool) {
	for _, re := range p.open {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		fragment := trimWords(m[len(m)-1], articles, fragmentTrailing)
		if fragment != "" {
			return fragment, true
		}
	}
	return "", false
}

var (
	articles         = wordSet("a", "an", "the", "some", "me", "us")
	focusLeading     = wordSet("a", "an", "the", "some", "my", "me", "us", "what", "i", "we", "have")
	focusTrailing    = wordSet("me", "us", "tonight", "today", "now", "please", "dinner", "lunch", "breakfast", "for", "with", "using")
	fragmentTrailing = wordSet("tonight", "today", "now", "please")
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// trimWords strips leading and trailing filler words from a clause.
func trimWords(clause string, leading, trailing map[string]bool) string {
	words := strings.Fields(clause)
	for len(words) > 0 && leading[words[0]] {
		words = words[1:]
	}
	for len(words) > 0 && trailing[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

var punctuation = strings.NewReplacer(
	"’", "'",
	".", " ", ",", " ", "!", " ", "?", " ", ";", " ", ":", " ", "\"", " ",
	"\n", " ", "\t", " ",
)

// Normalize lowercases an utterance, folds punctuation to spaces, and
// collapses whitespace.
func Normalize(s string) string {
	s = punctuation.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
