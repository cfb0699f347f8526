package gateway

import (
	"context"

	"github.com/cognicore/corenlp/pkg/corenlp/resolver"
)

// Gateway is the narrow contract to the external CoreNLP engine.
// This interface allows swapping implementations (HTTP server client,
// in-process JVM bridge, test fake) without the resolver knowing which
// bridging mechanism is behind it.
//
// A gateway failure is the engine rejecting the configuration; it is
// propagated to the caller unmodified, never interpreted or retried.
type Gateway interface {
	// NewPipeline constructs an analysis pipeline from a resolved property
	// mapping. Engine bootstrap (JVM start, server liveness) happens at
	// most once per gateway, on first use.
	NewPipeline(ctx context.Context, props resolver.Properties) (Pipeline, error)

	Close() error
}

// Pipeline is an opaque handle to a configured analysis pipeline.
type Pipeline interface {
	Annotate(ctx context.Context, text string) (Annotation, error)
	Close() error
}

// Annotation is the flat subset of engine output a binding layer
// marshals back to the caller.
type Annotation struct {
	Text      string     `json:"text"`
	Sentences []Sentence `json:"sentences"`
}

// Sentence is one sentence of an annotation.
type Sentence struct {
	Index  int     `json:"index"`
	Tokens []Token `json:"tokens"`
	Parse  string  `json:"parse,omitempty"`
}

// Token is one token with its per-annotator labels. Fields an annotator
// was not requested for stay empty.
type Token struct {
	Index int    `json:"index"`
	Word  string `json:"word"`
	Lemma string `json:"lemma,omitempty"`
	POS   string `json:"pos,omitempty"`
	NER   string `json:"ner,omitempty"`
	Begin int    `json:"begin"`
	End   int    `json:"end"`
}
