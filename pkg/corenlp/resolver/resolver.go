// Package resolver turns a language selection and a requested annotator
// list into the flat property mapping the external CoreNLP engine is
// configured with: one entry per applicable model file (absolute,
// existence-checked), the annotator list, per-language flag fixups, and
// caller overrides merged last.
package resolver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cognicore/corenlp/pkg/corenlp/internalerr"
	"github.com/cognicore/corenlp/pkg/corenlp/language"
	"github.com/cognicore/corenlp/pkg/corenlp/models"
)

// Profile is an immutable language selection: the canonical language code
// plus the fully materialized model-file table for that language. Profiles
// are values; building a new one never mutates shared state, so a stale
// table from a previous selection can never leak into the next.
type Profile struct {
	Language language.Code

	// paths maps flattened property keys ("pos.model", "ner.model.3class")
	// to model-path-relative file paths including the family base folder.
	paths map[string]string

	// byFamily indexes property keys by exact family name.
	byFamily map[string][]string
}

// ModelPaths returns the profile's property-key to relative-path table.
func (p Profile) ModelPaths() map[string]string {
	out := make(map[string]string, len(p.paths))
	for k, v := range p.paths {
		out[k] = v
	}
	return out
}

// FamilyKeys returns the property keys contributed by one annotator family.
func (p Profile) FamilyKeys(family string) []string {
	keys := p.byFamily[family]
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// WithModelOverride returns a copy of the profile with a single model path
// replaced. A key not present in the table is added under the family named
// by the key's first segment, so overrides survive the annotator filter.
func (p Profile) WithModelOverride(key, relPath string) Profile {
	next := Profile{
		Language: p.Language,
		paths:    make(map[string]string, len(p.paths)+1),
		byFamily: make(map[string][]string, len(p.byFamily)),
	}
	for k, v := range p.paths {
		next.paths[k] = v
	}
	for fam, keys := range p.byFamily {
		next.byFamily[fam] = append([]string(nil), keys...)
	}

	if _, known := next.paths[key]; !known {
		family := key
		if idx := strings.IndexByte(key, '.'); idx > 0 {
			family = key[:idx]
		}
		next.byFamily[family] = append(next.byFamily[family], key)
	}
	next.paths[key] = relPath
	return next
}

// Resolver builds profiles and resolved configurations from a language
// registry, a model catalog, and the on-disk model path.
type Resolver struct {
	registry  *language.Registry
	catalog   *models.Catalog
	modelPath string
}

// New creates a resolver. The model path is the root directory the
// catalog's base folders live under.
func New(registry *language.Registry, catalog *models.Catalog, modelPath string) *Resolver {
	return &Resolver{registry: registry, catalog: catalog, modelPath: modelPath}
}

// ModelPath returns the resolver's model root directory.
func (r *Resolver) ModelPath() string { return r.modelPath }

// UseLanguage resolves a surface language token and rebuilds the model-file
// table from scratch for that language. An unresolvable token fails with
// ErrUnresolvedLanguage.
func (r *Resolver) UseLanguage(token string) (Profile, error) {
	code, err := r.registry.Resolve(token)
	if err != nil {
		return Profile{}, err
	}

	p := Profile{
		Language: code,
		paths:    make(map[string]string),
		byFamily: make(map[string][]string),
	}
	for _, name := range r.catalog.Families() {
		family, _ := r.catalog.Family(name)
		props := family.PropsFor(code)
		if props == nil {
			// Family ships no models for this language; it simply
			// contributes nothing.
			continue
		}
		for key, rel := range props {
			p.paths[key] = rel
			p.byFamily[name] = append(p.byFamily[name], key)
		}
	}
	return p, nil
}

// Resolve produces the final property mapping for the requested annotators.
//
// Model entries are filtered by exact family identity, prefixed with the
// model path, and existence-checked; the first unreadable file aborts the
// whole call with ErrModelNotFound naming the absolute path, and no partial
// configuration is returned. The annotators property preserves caller
// order. Custom overrides are merged strictly last and win every collision.
func (r *Resolver) Resolve(p Profile, annotators []string, custom map[string]string) (Properties, error) {
	if len(annotators) == 0 {
		return nil, fmt.Errorf("resolve: no annotators requested: %w", internalerr.ErrInvalidConfig)
	}

	props := make(Properties)

	for _, annotator := range annotators {
		for _, key := range p.byFamily[annotator] {
			abs := filepath.Join(r.modelPath, p.paths[key])
			if _, err := os.Stat(abs); err != nil {
				return nil, fmt.Errorf("model file %s: %w", abs, internalerr.ErrModelNotFound)
			}
			props[key] = abs
		}
	}

	props["annotators"] = strings.Join(annotators, ", ")

	if p.Language != language.English {
		// Non-English grammars break on the default parser flags and on
		// graph construction.
		props["parse.flags"] = ""
		props["parse.buildgraphs"] = "false"
	}

	// SUTime misbehaves with the default binder count.
	props["sutime.binders"] = "0"

	if containsAnnotator(annotators, "ner") {
		props["sutime.rules"] = strings.Join([]string{
			filepath.Join(r.modelPath, "sutime", "defs.sutime.txt"),
			filepath.Join(r.modelPath, "sutime", "english.sutime.txt"),
		}, ", ")
	}

	for key, val := range custom {
		props[key] = val
	}

	return props, nil
}

func containsAnnotator(annotators []string, name string) bool {
	for _, a := range annotators {
		if a == name {
			return true
		}
	}
	return false
}
