package normalizer

import (
	"strings"
	"unicode"

	"sitesync/pkg/utils"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maccmsAPISuffix = "api.php/provide/vod/at/json"

// Transformer rewrites extracted fields before they enter the catalog.
type Transformer struct {
	strings    *utils.StringHelper
	cleanNames bool
	guessAPI   bool
}

// NewTransformer creates a transformer. Both rewrites are opt-in.
func NewTransformer(cleanNames, guessMaccmsAPI bool) *Transformer {
	return &Transformer{
		strings:    utils.NewStringHelper(),
		cleanNames: cleanNames,
		guessAPI:   guessMaccmsAPI,
	}
}

// Transform applies the enabled rewrites to f.
func (t *Transformer) Transform(f Fields) Fields {
	if t.cleanNames {
		if cleaned := t.CleanName(f.Name); cleaned != "" {
			f.Name = cleaned
		}
	}

	if t.guessAPI {
		f.API = GuessMaccmsAPI(f.API)
	}

	return f
}

// CleanName strips emoji and pictographic decoration, edge dashes and redundant
// whitespace from a display name.
func (t *Transformer) CleanName(name string) string {
	chain := transform.Chain(norm.NFC, runes.Remove(runes.Predicate(isDecoration)), norm.NFC)

	cleaned, _, err := transform.String(chain, name)
	if err != nil {
		cleaned = name
	}

	cleaned = t.strings.NormalizeWhitespace(cleaned)

	return strings.Trim(cleaned, "-—–_|· ")
}

func isDecoration(r rune) bool {
	return unicode.Is(unicode.So, r) ||
		unicode.Is(unicode.Variation_Selector, r) ||
		unicode.Is(unicode.Regional_Indicator, r) ||
		r == '\u200D' || // Zero Width Joiner
		r == '\u200B' || // Zero Width Space
		r == '\uFEFF'
}

// GuessMaccmsAPI turns a Maccms site page URL into its JSON collection endpoint.
// URLs that already end in .json or already point at provide/vod are returned as is.
func GuessMaccmsAPI(api string) string {
	lower := strings.ToLower(api)
	if strings.HasSuffix(lower, ".json") || strings.Contains(lower, "/provide/vod") {
		return api
	}

	if !strings.Contains(lower, "video") && !strings.Contains(lower, "vod") {
		return api
	}

	guessed := cutAt(api, ".html")
	guessed = cutAt(guessed, ".php")

	if !strings.HasSuffix(guessed, "/") {
		guessed += "/"
	}

	return guessed + maccmsAPISuffix
}

func cutAt(s, sep string) string {
	before, _, _ := strings.Cut(s, sep)

	return before
}
