package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cognicore/corenlp/pkg/corenlp"
	"github.com/cognicore/corenlp/pkg/corenlp/cache"
	"github.com/cognicore/corenlp/pkg/corenlp/cache/sqlite"
	"github.com/cognicore/corenlp/pkg/corenlp/gateway/httpgw"
	"github.com/cognicore/corenlp/pkg/corenlp/models"
)

func main() {
	var (
		server      = flag.String("server", "http://localhost:9000", "CoreNLP server URL")
		modelPath   = flag.String("models", "", "Model root directory (required)")
		lang        = flag.String("lang", "english", "Language name or ISO code")
		annotators  = flag.String("annotators", "tokenize, ssplit, pos", "Comma-separated annotator list")
		catalogPath = flag.String("catalog", "", "Catalog YAML file (optional, overrides built-in)")
		dbPath      = flag.String("db", "", "SQLite annotation cache path (optional)")
		stripHTML   = flag.Bool("strip-html", false, "Strip HTML markup from input before annotation")
		input       = flag.String("in", "", "Input file (default: stdin)")
	)
	props := propFlags{}
	flag.Var(&props, "prop", "Custom property override key=value (repeatable)")
	flag.Parse()

	if *modelPath == "" {
		log.Fatal("--models required")
	}

	ctx := context.Background()

	var catalog *models.Catalog
	if *catalogPath != "" {
		var err error
		catalog, err = models.LoadCatalog(*catalogPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	var store cache.Cache
	if *dbPath != "" {
		var err error
		store, err = sqlite.Open(ctx, *dbPath)
		if err != nil {
			log.Fatal(err)
		}
	}

	client, err := corenlp.New(corenlp.Options{
		Gateway:   httpgw.New(*server),
		ModelPath: *modelPath,
		Cache:     store,
		Catalog:   catalog,
		StripHTML: *stripHTML,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	profile, err := client.SelectLanguage(*lang)
	if err != nil {
		log.Fatal(err)
	}

	text, err := readInput(*input)
	if err != nil {
		log.Fatal(err)
	}

	ann, err := client.Annotate(ctx, profile, splitAnnotators(*annotators), props, text)
	if err != nil {
		log.Fatal(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ann); err != nil {
		log.Fatal(err)
	}
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", path, err)
	}
	return string(data), nil
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
