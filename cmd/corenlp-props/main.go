// corenlp-props resolves a pipeline configuration and prints the resulting
// property mapping without touching an engine. A missing model file fails
// with the exact absolute path, so an operator can see which asset to
// fetch before starting a server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cognicore/corenlp/pkg/corenlp/language"
	"github.com/cognicore/corenlp/pkg/corenlp/models"
	"github.com/cognicore/corenlp/pkg/corenlp/resolver"
)

func main() {
	var (
		modelPath   = flag.String("models", "", "Model root directory (required)")
		lang        = flag.String("lang", "english", "Language name or ISO code")
		annotators  = flag.String("annotators", "tokenize, ssplit, pos", "Comma-separated annotator list")
		catalogPath = flag.String("catalog", "", "Catalog YAML file (optional, overrides built-in)")
		table       = flag.Bool("table", false, "Print the full model-file table for the language instead of resolving")
	)
	props := propFlags{}
	flag.Var(&props, "prop", "Custom property override key=value (repeatable)")
	flag.Parse()

	if *modelPath == "" {
		log.Fatal("--models required")
	}

	catalog := models.Default()
	if *catalogPath != "" {
		var err error
		catalog, err = models.LoadCatalog(*catalogPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	res := resolver.New(language.Default(), catalog, *modelPath)

	profile, err := res.UseLanguage(*lang)
	if err != nil {
		log.Fatal(err)
	}

	if *table {
		printTable(profile, *modelPath)
		return
	}

	resolved, err := res.Resolve(profile, splitAnnotators(*annotators), props)
	if err != nil {
		log.Fatal(err)
	}
	printSorted(map[string]string(resolved))
}

func printTable(p resolver.Profile, modelPath string) {
	paths := p.ModelPaths()
	abs := make(map[string]string, len(paths))
	for key, rel := range paths {
		abs[key] = filepath.Join(modelPath, rel)
	}
	fmt.Fprintf(os.Stdout, "# language: %s\n", p.Language)
	printSorted(abs)
}

func printSorted(m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s = %s\n", k, m[k])
	}
}

func splitAnnotators(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// propFlags collects repeatable key=value flags into a map.
type propFlags map[string]string

func (p propFlags) String() string {
	pairs := make([]string, 0, len(p))
	for k, v := range p {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (p propFlags) Set(s string) error {
	key, val, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	p[key] = val
	return nil
}
