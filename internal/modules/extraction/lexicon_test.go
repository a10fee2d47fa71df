package extraction

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

const tinyLexicon = `
gate:
  keywords: [ramen]
names:
  - match: Noodle Bar
    confidence: 0.95
    cuisine: Japanese
    cuisine_confidence: 0.7
capitalized_fallback:
  confidence: 0.4
cuisines:
  confidence: 0.6
  words: [Japanese]
`

func TestLoadLexiconSwapsTables(t *testing.T) {
	lex, err := LoadLexicon(strings.NewReader(tinyLexicon))
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	m, err := NewMatcher(lex)
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	res := NewExtractor(m).Extract("best ramen at Noodle Bar")
	if !res.Success || res.Restaurant.Name != "Noodle Bar" {
		t.Fatalf("unexpected result: %+v", res)
	}
	// the default gate keyword "food" is no longer in effect
	if NewExtractor(m).Extract("great food at Pump House").Success {
		t.Fatalf("expected custom gate to reject")
	}
}

func TestLoadLexiconRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"empty gate":     "names: []\n",
		"bad regex":      "gate: {keywords: [x]}\nname_patterns:\n  - pattern: '(['\n    confidence: 0.5\n",
		"no group":       "gate: {keywords: [x]}\nlocation_patterns:\n  - pattern: 'abc'\n    confidence: 0.5\n",
		"bad confidence": "gate: {keywords: [x]}\nnames:\n  - match: A\n    confidence: 1.5\n",
		"bad tier":       "gate: {keywords: [x]}\nprices:\n  - tier: cheap\n    keywords: [cheap]\n",
	}
	for name, raw := range cases {
		_, err := LoadLexicon(strings.NewReader(raw))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !restaurants.IsCode(err, restaurants.CodeValidation) {
			t.Fatalf("%s: expected validation code, got %v", name, err)
		}
	}
}

func TestDefaultLexiconRoundTrips(t *testing.T) {
	raw, err := DefaultLexicon().YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	lex, err := LoadLexicon(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(lex.Names) != len(DefaultLexicon().Names) || len(lex.Dishes) != 6 {
		t.Fatalf("round trip lost entries: %d names, %d dishes", len(lex.Names), len(lex.Dishes))
	}
}

func TestLexiconFromEnvFallsBack(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("gate: ["), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(lexiconPathEnv, bad)
	if got := LexiconFromEnv(logger.Nop()); got != DefaultLexicon() {
		t.Fatalf("expected embedded lexicon on invalid override")
	}

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte(tinyLexicon), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(lexiconPathEnv, good)
	if got := LexiconFromEnv(logger.Nop()); len(got.Names) != 1 {
		t.Fatalf("expected override with one name, got %d", len(got.Names))
	}
}
