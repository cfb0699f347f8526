package corenlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/corenlp/pkg/corenlp/cache/memcache"
	"github.com/cognicore/corenlp/pkg/corenlp/gateway/gatewaytest"
	"github.com/cognicore/corenlp/pkg/corenlp/internalerr"
)

// writeEnglishTagger creates the one model file a pos-only request needs.
func writeEnglishTagger(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	path := filepath.Join(root, "taggers", "english-left3words-distsim.tagger")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestNewRequiresGateway(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestMissingModelSkipsGateway(t *testing.T) {
	gw := gatewaytest.New()
	client, err := New(Options{Gateway: gw, ModelPath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	profile, err := client.SelectLanguage("english")
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Annotate(context.Background(), profile, []string{"pos"}, nil, "hello")
	if !errors.Is(err, internalerr.ErrModelNotFound) {
		t.Fatalf("Expected ErrModelNotFound, got %v", err)
	}
	if gw.Constructed() != 0 {
		t.Errorf("Gateway called %d times despite resolution failure", gw.Constructed())
	}
}

func TestGatewayReceivesResolvedProperties(t *testing.T) {
	gw := gatewaytest.New()
	root := writeEnglishTagger(t)
	client, err := New(Options{Gateway: gw, ModelPath: root})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	profile, err := client.SelectLanguage("en")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.LoadPipeline(context.Background(), profile, []string{"tokenize", "ssplit", "pos"}, nil); err != nil {
		t.Fatal(err)
	}

	props := gw.Received(0)
	if props == nil {
		t.Fatal("Gateway never called")
	}
	if props["annotators"] != "tokenize, ssplit, pos" {
		t.Errorf("annotators = %q", props["annotators"])
	}
	want := filepath.Join(root, "taggers", "english-left3words-distsim.tagger")
	if props["pos.model"] != want {
		t.Errorf("pos.model = %q, want %q", props["pos.model"], want)
	}
	if props["sutime.binders"] != "0" {
		t.Errorf("sutime.binders = %q", props["sutime.binders"])
	}
}

func TestConstructionFailurePassesThrough(t *testing.T) {
	gw := gatewaytest.New()
	rejected := errors.New("engine rejected configuration")
	gw.ConstructErr = rejected

	client, err := New(Options{Gateway: gw, ModelPath: writeEnglishTagger(t)})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	profile, err := client.SelectLanguage("english")
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.LoadPipeline(context.Background(), profile, []string{"pos"}, nil)
	if !errors.Is(err, rejected) {
		t.Errorf("Gateway failure must propagate unmodified, got %v", err)
	}
}

func TestPipelineReusedForIdenticalConfig(t *testing.T) {
	gw := gatewaytest.New()
	client, err := New(Options{Gateway: gw, ModelPath: writeEnglishTagger(t)})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	profile, err := client.SelectLanguage("english")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := client.Annotate(ctx, profile, []string{"pos"}, nil, "first text"); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Annotate(ctx, profile, []string{"pos"}, nil, "second text"); err != nil {
		t.Fatal(err)
	}
	if gw.Constructed() != 1 {
		t.Errorf("Expected 1 pipeline construction, got %d", gw.Constructed())
	}

	// A different override set is a different configuration.
	if _, err := client.Annotate(ctx, profile, []string{"pos"}, map[string]string{"pos.maxlen": "200"}, "third"); err != nil {
		t.Fatal(err)
	}
	if gw.Constructed() != 2 {
		t.Errorf("Expected 2 pipeline constructions, got %d", gw.Constructed())
	}
}

func TestAnnotateUsesCache(t *testing.T) {
	gw := gatewaytest.New()
	client, err := New(Options{
		Gateway:   gw,
		ModelPath: writeEnglishTagger(t),
		Cache:     memcache.New(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	profile, err := client.SelectLanguage("english")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	first, err := client.Annotate(ctx, profile, []string{"pos"}, nil, "the same text")
	if err != nil {
		t.Fatal(err)
	}

	// Second identical request must be served from cache: wreck the engine
	// and annotate again.
	gw.AnnotateErr = errors.New("engine down")
	second, err := client.Annotate(ctx, profile, []string{"pos"}, nil, "the same text")
	if err != nil {
		t.Fatalf("Cached annotation should not touch the engine: %v", err)
	}
	if second.Text != first.Text || len(second.Sentences) != len(first.Sentences) {
		t.Error("Cached annotation differs from original")
	}

	// A different text misses the cache and hits the broken engine.
	if _, err := client.Annotate(ctx, profile, []string{"pos"}, nil, "other text"); err == nil {
		t.Error("Cache must not serve a different text")
	}
}

func TestStripHTMLOption(t *testing.T) {
	gw := gatewaytest.New()
	client, err := New(Options{
		Gateway:   gw,
		ModelPath: writeEnglishTagger(t),
		StripHTML: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()

	profile, err := client.SelectLanguage("english")
	if err != nil {
		t.Fatal(err)
	}
	ann, err := client.Annotate(context.Background(), profile, []string{"pos"}, nil, "<p>Hello <b>world</b></p>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.ContainsAny(ann.Text, "<>") {
		t.Errorf("Markup survived stripping: %q", ann.Text)
	}
	if ann.Text != "Hello world" {
		t.Errorf("Text = %q, want %q", ann.Text, "Hello world")
	}
}

func TestCloseClosesGateway(t *testing.T) {
	gw := gatewaytest.New()
	client, err := New(Options{Gateway: gw, ModelPath: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}
	if !gw.Closed() {
		t.Error("Close must close the gateway")
	}
}
