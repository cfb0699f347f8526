package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"

	"github.com/cognicore/corenlp/pkg/corenlp/internalerr"
)

// Code is the canonical internal identifier for a supported language.
// Every surface token (full name, ISO-639-1/2/3 code, BCP-47 tag) resolves
// to exactly one Code.
type Code string

// Supported canonical language keys.
const (
	English Code = "english"
	French  Code = "french"
	German  Code = "german"
	Spanish Code = "spanish"
	Chinese Code = "chinese"
	Arabic  Code = "arabic"
)

// Registry maps surface language tokens to canonical codes.
// Code-sets are pairwise disjoint, so lookup order never matters.
type Registry struct {
	entries []entry
}

type entry struct {
	code   Code
	tokens map[string]struct{}
}

// Default returns the built-in registry covering all supported languages.
// Each language answers to its full English name plus its ISO-639-1 and
// ISO-639-2/3 codes (both B and T variants where they differ).
func Default() *Registry {
	r := &Registry{}
	r.add(English, "english", "en", "eng")
	r.add(French, "french", "fr", "fra", "fre")
	r.add(German, "german", "de", "deu", "ger")
	r.add(Spanish, "spanish", "es", "spa")
	r.add(Chinese, "chinese", "zh", "zho", "chi")
	r.add(Arabic, "arabic", "ar", "ara")
	return r
}

func (r *Registry) add(code Code, tokens ...string) {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	r.entries = append(r.entries, entry{code: code, tokens: set})
}

// Codes returns the canonical codes known to the registry.
func (r *Registry) Codes() []Code {
	codes := make([]Code, len(r.entries))
	for i, e := range r.entries {
		codes[i] = e.code
	}
	return codes
}

// Tokens returns every surface token registered for the given code.
func (r *Registry) Tokens(code Code) []string {
	for _, e := range r.entries {
		if e.code != code {
			continue
		}
		tokens := make([]string, 0, len(e.tokens))
		for tok := range e.tokens {
			tokens = append(tokens, tok)
		}
		return tokens
	}
	return nil
}

// Resolve maps a surface token to its canonical code. Matching is
// case-insensitive. Tokens that miss the registry tables are parsed as
// BCP-47 tags so region-qualified forms like "en-US" or "fr_CA" still
// resolve through their base language. An unrecognized token is a hard
// ErrUnresolvedLanguage failure, never a silent fallback.
func (r *Registry) Resolve(token string) (Code, error) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	if normalized == "" {
		return "", fmt.Errorf("resolve language: empty token: %w", internalerr.ErrUnresolvedLanguage)
	}

	if code, ok := r.lookup(normalized); ok {
		return code, nil
	}

	// BCP-47 fallback: strip region/script and retry with the base language.
	if tag, err := xlang.Parse(normalized); err == nil {
		base, conf := tag.Base()
		if conf > xlang.No {
			if code, ok := r.lookup(base.String()); ok {
				return code, nil
			}
		}
	}

	return "", fmt.Errorf("resolve language %q: %w", token, internalerr.ErrUnresolvedLanguage)
}

func (r *Registry) lookup(token string) (Code, bool) {
	for _, e := range r.entries {
		if _, ok := e.tokens[token]; ok {
			return e.code, true
		}
	}
	return "", false
}
