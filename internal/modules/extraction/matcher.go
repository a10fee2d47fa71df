package extraction

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
)

// Candidate is one extracted value with the confidence of the rule that produced it.
type Candidate struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Signals is the raw output of a matcher before scoring.
type Signals struct {
	IsMention         bool       `json:"isMention"`
	Name              *Candidate `json:"name,omitempty"`
	Location          *Candidate `json:"location,omitempty"`
	Cuisine           []string   `json:"cuisine,omitempty"`
	CuisineConfidence float64    `json:"cuisineConfidence"`
	Dishes            []string   `json:"dishes,omitempty"`
	PriceRange        string     `json:"priceRange,omitempty"`
	IsRecommendation  bool       `json:"isRecommendation"`
}

// MentionMatcher turns free text into Signals. The lexicon-backed Matcher is the
// default; a model-backed implementation can replace it without touching the builder.
type MentionMatcher interface {
	Match(text string) Signals
}

type compiledName struct {
	re   *regexp.Regexp
	rule NameRule
}

type compiledPattern struct {
	re         *regexp.Regexp
	confidence float64
}

type compiledCity struct {
	re   *regexp.Regexp
	name string
}

type compiledCuisine struct {
	re   *regexp.Regexp
	word string
}

type compiledPrice struct {
	re   *regexp.Regexp
	tier string
}

// Matcher is safe for concurrent use once built.
type Matcher struct {
	gateKeywords     []string
	gateNames        []*regexp.Regexp
	names            []compiledName
	namePatterns     []compiledPattern
	fallbackConf     float64
	fallbackMinLen   int
	skip             map[string]struct{}
	cities           []compiledCity
	locationPatterns []compiledPattern
	cuisines         []compiledCuisine
	cuisineConf      float64
	dishes           []Dish
	recommendation   []string
	prices           []compiledPrice
}

// NewMatcher compiles a lexicon. A nil lexicon means the embedded default.
func NewMatcher(lex *Lexicon) (*Matcher, error) {
	if lex == nil {
		lex = DefaultLexicon()
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}

	m := &Matcher{
		fallbackConf:   lex.Fallback.Confidence,
		fallbackMinLen: lex.Fallback.MinLength,
		cuisineConf:    lex.Cuisines.Confidence,
		skip:           map[string]struct{}{},
		dishes:         lex.Dishes,
	}
	if m.fallbackMinLen <= 0 {
		m.fallbackMinLen = 3
	}

	for _, kw := range lex.Gate.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			m.gateKeywords = append(m.gateKeywords, kw)
			m.skip[kw] = struct{}{}
		}
	}
	for _, n := range lex.Gate.Names {
		if strings.TrimSpace(n) != "" {
			m.gateNames = append(m.gateNames, wordRegexp(n))
		}
	}
	for _, rule := range lex.Names {
		m.names = append(m.names, compiledName{re: wordRegexp(rule.Match), rule: rule})
	}
	for _, p := range lex.NamePatterns {
		m.namePatterns = append(m.namePatterns, compiledPattern{re: regexp.MustCompile(p.Pattern), confidence: p.Confidence})
	}
	for _, w := range lex.Fallback.Stopwords {
		m.skip[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for _, c := range lex.Cities {
		m.cities = append(m.cities, compiledCity{re: wordRegexp(c.Terms()...), name: c.Name})
		for _, term := range c.Terms() {
			for _, part := range strings.Fields(term) {
				m.skip[strings.ToLower(part)] = struct{}{}
			}
		}
	}
	for _, p := range lex.LocationPatterns {
		m.locationPatterns = append(m.locationPatterns, compiledPattern{re: regexp.MustCompile(p.Pattern), confidence: p.Confidence})
	}
	for _, w := range lex.Cuisines.Words {
		m.cuisines = append(m.cuisines, compiledCuisine{re: wordRegexp(w), word: w})
		m.skip[strings.ToLower(w)] = struct{}{}
	}
	for _, phrase := range lex.Recommendation {
		if phrase = strings.ToLower(strings.TrimSpace(phrase)); phrase != "" {
			m.recommendation = append(m.recommendation, phrase)
		}
	}
	for _, p := range lex.Prices {
		if len(p.Keywords) == 0 {
			continue
		}
		m.prices = append(m.prices, compiledPrice{re: wordRegexp(p.Keywords...), tier: p.Tier})
	}
	return m, nil
}

var (
	defaultMatcherOnce sync.Once
	defaultMatcher     *Matcher
)

// DefaultMatcher compiles the embedded lexicon once.
func DefaultMatcher() *Matcher {
	defaultMatcherOnce.Do(func() {
		m, err := NewMatcher(DefaultLexicon())
		if err != nil {
			panic("default matcher: " + err.Error())
		}
		defaultMatcher = m
	})
	return defaultMatcher
}

func (m *Matcher) Match(text string) Signals {
	if !m.gate(text) {
		return Signals{}
	}
	sig := Signals{IsMention: true}

	var implied *NameRule
	sig.Name, implied = m.matchName(text)
	sig.Location = m.matchLocation(text, sig.Name, implied)
	sig.Cuisine, sig.CuisineConfidence = m.matchCuisine(text, implied)

	lower := strings.ToLower(text)
	for _, d := range m.dishes {
		if strings.Contains(lower, strings.ToLower(d.Match)) {
			sig.Dishes = restaurants.AppendUnique(sig.Dishes, d.Name)
		}
	}
	for _, phrase := range m.recommendation {
		if strings.Contains(lower, phrase) {
			sig.IsRecommendation = true
			break
		}
	}
	for _, p := range m.prices {
		if p.re.MatchString(text) {
			sig.PriceRange = p.tier
			break
		}
	}
	return sig
}

func (m *Matcher) gate(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range m.gateKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, re := range m.gateNames {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func (m *Matcher) matchName(text string) (*Candidate, *NameRule) {
	for i := range m.names {
		if m.names[i].re.MatchString(text) {
			rule := m.names[i].rule
			return &Candidate{Value: rule.DisplayName(), Confidence: rule.Confidence}, &rule
		}
	}
	for _, p := range m.namePatterns {
		sub := p.re.FindStringSubmatch(text)
		if len(sub) < 2 {
			continue
		}
		if v := cleanValue(sub[1]); v != "" {
			return &Candidate{Value: v, Confidence: p.confidence}, nil
		}
	}
	if v := m.capitalizedRun(text); v != "" {
		return &Candidate{Value: v, Confidence: m.fallbackConf}, nil
	}
	return nil, nil
}

// capitalizedRun returns the first run of consecutive capitalized words that are
// long enough and not in the skip set. A run ends at sentence punctuation.
func (m *Matcher) capitalizedRun(text string) string {
	var run []string
	for _, raw := range strings.Fields(text) {
		word := strings.Trim(raw, ".,!?;:\"()[]{}")
		if m.qualifies(word) {
			run = append(run, word)
			if endsClause(raw) {
				break
			}
			continue
		}
		if len(run) > 0 {
			break
		}
	}
	return strings.Join(run, " ")
}

func (m *Matcher) qualifies(word string) bool {
	if utf8.RuneCountInString(word) < m.fallbackMinLen {
		return false
	}
	r, _ := utf8.DecodeRuneInString(word)
	if !unicode.IsUpper(r) {
		return false
	}
	key := strings.ToLower(strings.TrimSuffix(strings.TrimSuffix(word, "'s"), "’s"))
	_, skip := m.skip[key]
	return !skip
}

func endsClause(raw string) bool {
	return strings.TrimRight(raw, ".,!?;:") != raw
}

func (m *Matcher) matchLocation(text string, name *Candidate, implied *NameRule) *Candidate {
	for _, c := range m.cities {
		if c.re.MatchString(text) {
			return &Candidate{Value: c.name, Confidence: 1.0}
		}
	}
	if implied != nil && strings.TrimSpace(implied.Location) != "" {
		return &Candidate{Value: implied.Location, Confidence: implied.LocationConfidence}
	}
	for _, p := range m.locationPatterns {
		for _, sub := range p.re.FindAllStringSubmatch(text, -1) {
			if len(sub) < 2 {
				continue
			}
			v := m.trimLocation(sub[1])
			if v == "" {
				continue
			}
			if name != nil && strings.EqualFold(v, name.Value) {
				continue
			}
			return &Candidate{Value: v, Confidence: p.confidence}
		}
	}
	return nil
}

// trimLocation drops trailing stopwords a greedy capitalized run may have swallowed
// and rejects candidates made only of stopwords.
func (m *Matcher) trimLocation(v string) string {
	words := strings.Fields(cleanValue(v))
	for len(words) > 0 {
		if _, skip := m.skip[strings.ToLower(words[len(words)-1])]; !skip {
			break
		}
		words = words[:len(words)-1]
	}
	if len(words) == 0 {
		return ""
	}
	if _, skip := m.skip[strings.ToLower(words[0])]; skip && len(words) == 1 {
		return ""
	}
	return strings.Join(words, " ")
}

func (m *Matcher) matchCuisine(text string, implied *NameRule) ([]string, float64) {
	var out []string
	conf := 0.0
	if implied != nil && strings.TrimSpace(implied.Cuisine) != "" {
		out = restaurants.AppendUnique(out, implied.Cuisine)
		conf = implied.CuisineConfidence
	}
	scanned := false
	for _, c := range m.cuisines {
		if c.re.MatchString(text) {
			out = restaurants.AppendUnique(out, c.word)
			scanned = true
		}
	}
	if scanned && m.cuisineConf > conf {
		conf = m.cuisineConf
	}
	return out, conf
}

func cleanValue(v string) string {
	return strings.Join(strings.Fields(strings.Trim(v, " \t\n.,!?;:\"'()")), " ")
}

// wordRegexp builds a case-insensitive, word-bounded alternation of literal terms.
func wordRegexp(terms ...string) *regexp.Regexp {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parts := strings.Fields(t)
		for i := range parts {
			parts[i] = regexp.QuoteMeta(parts[i])
		}
		quoted = append(quoted, strings.Join(parts, `\s+`))
	}
	return regexp.MustCompile(`(?i)(?:^|[^\pL\pN_])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN_])`)
}
