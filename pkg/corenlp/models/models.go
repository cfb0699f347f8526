package models

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/corenlp/pkg/corenlp/internalerr"
	"github.com/cognicore/corenlp/pkg/corenlp/language"
)

// Family describes one annotator family's model assets: a base folder under
// the model path and per-language file entries in one of two shapes.
//
// Single-model families (shape a) carry exactly one file per language and
// flatten to the property key "<family>.model". Multi-variant families
// (shape b) carry named sub-models per language and flatten to
// "<family>.<sub>" (e.g. "ner.model.3class").
//
// A family defines entries only for the languages it supports; an absent
// language means the family is unavailable there, not an error.
type Family struct {
	Name string
	Base string

	Single map[language.Code]string
	Named  map[language.Code]map[string]string
}

// PropsFor flattens the family's entries for one language into property
// keys mapped to base-folder-relative paths. Returns nil when the family
// has no models for the language.
func (f Family) PropsFor(lang language.Code) map[string]string {
	if rel, ok := f.Single[lang]; ok {
		return map[string]string{f.Name + ".model": path.Join(f.Base, rel)}
	}
	if subs, ok := f.Named[lang]; ok {
		props := make(map[string]string, len(subs))
		for sub, rel := range subs {
			props[f.Name+"."+sub] = path.Join(f.Base, rel)
		}
		return props
	}
	return nil
}

// Catalog is an immutable set of annotator families, keyed by family name.
type Catalog struct {
	families map[string]Family
	order    []string
}

// NewCatalog builds a catalog from the given families. A family that sets
// both Single and Named entries, or neither, is rejected.
func NewCatalog(families ...Family) (*Catalog, error) {
	c := &Catalog{families: make(map[string]Family, len(families))}
	for _, f := range families {
		if f.Name == "" {
			return nil, fmt.Errorf("catalog: family without name: %w", internalerr.ErrInvalidConfig)
		}
		if len(f.Single) > 0 && len(f.Named) > 0 {
			return nil, fmt.Errorf("catalog: family %s mixes single and named models: %w", f.Name, internalerr.ErrInvalidConfig)
		}
		if len(f.Single) == 0 && len(f.Named) == 0 {
			return nil, fmt.Errorf("catalog: family %s has no models: %w", f.Name, internalerr.ErrInvalidConfig)
		}
		if _, dup := c.families[f.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate family %s: %w", f.Name, internalerr.ErrInvalidConfig)
		}
		c.families[f.Name] = f
		c.order = append(c.order, f.Name)
	}
	return c, nil
}

// Family returns the named family.
func (c *Catalog) Family(name string) (Family, bool) {
	f, ok := c.families[name]
	return f, ok
}

// Families returns family names in catalog order.
func (c *Catalog) Families() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Default returns the catalog matching the stock CoreNLP model
// distribution layout.
func Default() *Catalog {
	c, err := NewCatalog(
		Family{
			Name: "pos",
			Base: "taggers",
			Single: map[language.Code]string{
				language.English: "english-left3words-distsim.tagger",
				language.French:  "french.tagger",
				language.German:  "german-fast.tagger",
				language.Spanish: "spanish-distsim.tagger",
				language.Chinese: "chinese-distsim.tagger",
				language.Arabic:  "arabic.tagger",
			},
		},
		Family{
			Name: "ner",
			Base: "classifiers",
			Named: map[language.Code]map[string]string{
				language.English: {
					"model":        "english.all.3class.distsim.crf.ser.gz",
					"model.3class": "english.all.3class.distsim.crf.ser.gz",
					"model.4class": "english.conll.4class.distsim.crf.ser.gz",
					"model.7class": "english.muc.7class.distsim.crf.ser.gz",
				},
				language.German: {
					"model": "german.conll.hgc_175m_600.crf.ser.gz",
				},
				language.Spanish: {
					"model": "spanish.ancora.distsim.s512.crf.ser.gz",
				},
				language.Chinese: {
					"model": "chinese.misc.distsim.crf.ser.gz",
				},
			},
		},
		Family{
			Name: "parse",
			Base: "grammar",
			Single: map[language.Code]string{
				language.English: "englishPCFG.ser.gz",
				language.French:  "frenchFactored.ser.gz",
				language.German:  "germanFactored.ser.gz",
				language.Spanish: "spanishPCFG.ser.gz",
				language.Chinese: "chineseFactored.ser.gz",
				language.Arabic:  "arabicFactored.ser.gz",
			},
		},
		Family{
			Name: "depparse",
			Base: "depparse",
			Single: map[language.Code]string{
				language.English: "english_UD.gz",
				language.French:  "french_UD.gz",
				language.German:  "german_UD.gz",
				language.Spanish: "spanish_UD.gz",
				language.Chinese: "chinese_UD.gz",
			},
		},
		Family{
			Name: "dcoref",
			Base: "dcoref",
			Named: map[language.Code]map[string]string{
				language.English: {
					"demonym":   "demonyms.txt",
					"animate":   "animate.unigrams.txt",
					"inanimate": "inanimate.unigrams.txt",
					"male":      "male.unigrams.txt",
					"female":    "female.unigrams.txt",
					"neutral":   "neutral.unigrams.txt",
					"singular":  "singular.unigrams.txt",
					"plural":    "plural.unigrams.txt",
					"states":    "state-abbreviations.txt",
					"countries": "countries",
				},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// catalogFile is the YAML representation of a catalog.
type catalogFile struct {
	Families []familyEntry `yaml:"families"`
}

type familyEntry struct {
	Name     string                       `yaml:"name"`
	Base     string                       `yaml:"base"`
	Models   map[string]string            `yaml:"models"`
	Variants map[string]map[string]string `yaml:"variants"`
}

// LoadCatalog loads a catalog from a YAML file.
//
// Expected format:
//
//	families:
//	  - name: pos
//	    base: taggers
//	    models:
//	      english: english-left3words-distsim.tagger
//	  - name: ner
//	    base: classifiers
//	    variants:
//	      english:
//	        model: english.all.3class.distsim.crf.ser.gz
//	        model.7class: english.muc.7class.distsim.crf.ser.gz
func LoadCatalog(pathname string) (*Catalog, error) {
	data, err := os.ReadFile(pathname)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", pathname, err)
	}

	families := make([]Family, 0, len(file.Families))
	for _, fe := range file.Families {
		f := Family{Name: fe.Name, Base: fe.Base}
		if len(fe.Models) > 0 {
			f.Single = make(map[language.Code]string, len(fe.Models))
			for lang, rel := range fe.Models {
				f.Single[language.Code(lang)] = rel
			}
		}
		if len(fe.Variants) > 0 {
			f.Named = make(map[language.Code]map[string]string, len(fe.Variants))
			for lang, subs := range fe.Variants {
				named := make(map[string]string, len(subs))
				for sub, rel := range subs {
					named[sub] = rel
				}
				f.Named[language.Code(lang)] = named
			}
		}
		families = append(families, f)
	}

	c, err := NewCatalog(families...)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", pathname, err)
	}
	return c, nil
}
