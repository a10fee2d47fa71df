package extraction

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const lexiconPathEnv = "EXTRACTION_LEXICON_PATH"

//go:embed lexicon.yaml
var lexiconFS embed.FS

// Lexicon is the data-only description of everything the matcher recognises.
type Lexicon struct {
	Version int `yaml:"version"`

	Gate struct {
		Keywords []string `yaml:"keywords"`
		Names    []string `yaml:"names"`
	} `yaml:"gate"`

	Names        []NameRule    `yaml:"names"`
	NamePatterns []PatternRule `yaml:"name_patterns"`

	Fallback struct {
		Confidence float64  `yaml:"confidence"`
		MinLength  int      `yaml:"min_length"`
		Stopwords  []string `yaml:"stopwords"`
	} `yaml:"capitalized_fallback"`

	Cities           []City        `yaml:"cities"`
	LocationPatterns []PatternRule `yaml:"location_patterns"`

	Cuisines struct {
		Confidence float64  `yaml:"confidence"`
		Words      []string `yaml:"words"`
	} `yaml:"cuisines"`

	Dishes         []Dish      `yaml:"dishes"`
	Recommendation []string    `yaml:"recommendation"`
	Prices         []PriceTier `yaml:"prices"`
}

// NameRule is a literal restaurant name. A rule may also imply a location and cuisine.
type NameRule struct {
	Match              string  `yaml:"match"`
	Name               string  `yaml:"name,omitempty"`
	Confidence         float64 `yaml:"confidence"`
	Location           string  `yaml:"location,omitempty"`
	LocationConfidence float64 `yaml:"location_confidence,omitempty"`
	Cuisine            string  `yaml:"cuisine,omitempty"`
	CuisineConfidence  float64 `yaml:"cuisine_confidence,omitempty"`
}

func (r NameRule) DisplayName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return r.Match
}

// PatternRule is a regular expression whose first capture group is the value.
type PatternRule struct {
	Pattern    string  `yaml:"pattern"`
	Confidence float64 `yaml:"confidence"`
}

type City struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases,omitempty"`
}

func (c City) Terms() []string {
	if len(c.Aliases) == 0 {
		return []string{c.Name}
	}
	return c.Aliases
}

type Dish struct {
	Match string `yaml:"match"`
	Name  string `yaml:"name"`
}

type PriceTier struct {
	Tier     string   `yaml:"tier"`
	Keywords []string `yaml:"keywords"`
}

// LoadLexicon parses and validates a YAML lexicon.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var lex Lexicon
	if err := yaml.Unmarshal(raw, &lex); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	if err := lex.Validate(); err != nil {
		return nil, err
	}
	return &lex, nil
}

func LoadLexiconFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon %s: %w", path, err)
	}
	defer f.Close()
	return LoadLexicon(f)
}

var (
	defaultLexiconOnce sync.Once
	defaultLexicon     *Lexicon
	defaultLexiconErr  error
)

// DefaultLexicon returns the embedded lexicon. It panics if the embedded file is invalid.
func DefaultLexicon() *Lexicon {
	defaultLexiconOnce.Do(func() {
		raw, err := lexiconFS.ReadFile("lexicon.yaml")
		if err != nil {
			defaultLexiconErr = err
			return
		}
		defaultLexicon, defaultLexiconErr = LoadLexicon(bytes.NewReader(raw))
	})
	if defaultLexiconErr != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", defaultLexiconErr))
	}
	return defaultLexicon
}

// LexiconFromEnv loads EXTRACTION_LEXICON_PATH when set and falls back to the
// embedded lexicon when the override is missing or invalid.
func LexiconFromEnv(log *logger.Logger) *Lexicon {
	path := strings.TrimSpace(os.Getenv(lexiconPathEnv))
	if path == "" {
		return DefaultLexicon()
	}
	lex, err := LoadLexiconFile(path)
	if err != nil {
		if log != nil {
			log.Warn("lexicon override invalid; using embedded lexicon", "path", path, "error", err)
		}
		return DefaultLexicon()
	}
	if log != nil {
		log.Info("lexicon override loaded", "path", path, "names", len(lex.Names))
	}
	return lex
}

// YAML renders the lexicon back to YAML.
func (l *Lexicon) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (l *Lexicon) Validate() error {
	if l == nil {
		return restaurants.NewError(restaurants.CodeValidation, "lexicon", "lexicon is nil", nil)
	}
	if len(l.Gate.Keywords) == 0 && len(l.Gate.Names) == 0 {
		return restaurants.NewError(restaurants.CodeValidation, "lexicon", "gate has no keywords or names", nil)
	}
	inRange := func(v float64) bool { return v >= 0 && v <= 1 }
	for i, n := range l.Names {
		if strings.TrimSpace(n.Match) == "" {
			return restaurants.NewError(restaurants.CodeValidation, "lexicon", fmt.Sprintf("names[%d]: empty match", i), nil)
		}
		if !inRange(n.Confidence) || !inRange(n.LocationConfidence) || !inRange(n.CuisineConfidence) {
			return restaurants.NewError(restaurants.CodeValidation, "lexicon", fmt.Sprintf("names[%d]: confidence out of range", i), nil)
		}
	}
	for _, group := range []struct {
		label string
		rules []PatternRule
	}{{"name_patterns", l.NamePatterns}, {"location_patterns", l.LocationPatterns}} {
		for i, p := range group.rules {
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				return restaurants.Wrap(restaurants.CodeValidation, "lexicon", fmt.Errorf("%s[%d]: %w", group.label, i, err))
			}
			if re.NumSubexp() < 1 {
				return restaurants.NewError(restaurants.CodeValidation, "lexicon", fmt.Sprintf("%s[%d]: pattern has no capture group", group.label, i), nil)
			}
			if !inRange(p.Confidence) {
				return restaurants.NewError(restaurants.CodeValidation, "lexicon", fmt.Sprintf("%s[%d]: confidence out of range", group.label, i), nil)
			}
		}
	}
	if !inRange(l.Fallback.Confidence) || !inRange(l.Cuisines.Confidence) {
		return restaurants.NewError(restaurants.CodeValidation, "lexicon", "fallback or cuisine confidence out of range", nil)
	}
	for i, p := range l.Prices {
		switch p.Tier {
		case restaurants.PriceBudget, restaurants.PriceModerate, restaurants.PriceExpensive, restaurants.PriceLuxury:
		default:
			return restaurants.NewError(restaurants.CodeValidation, "lexicon", fmt.Sprintf("prices[%d]: unknown tier %q", i, p.Tier), nil)
		}
	}
	for i, d := range l.Dishes {
		if strings.TrimSpace(d.Match) == "" || strings.TrimSpace(d.Name) == "" {
			return restaurants.NewError(restaurants.CodeValidation, "lexicon", fmt.Sprintf("dishes[%d]: match and name are required", i), nil)
		}
	}
	return nil
}
