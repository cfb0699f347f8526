// Package gatewaytest provides a recording in-memory gateway for tests.
package gatewaytest

import (
	"context"
	"strings"
	"sync"

	"github.com/cognicore/corenlp/pkg/corenlp/gateway"
	"github.com/cognicore/corenlp/pkg/corenlp/resolver"
)

// Gateway is a fake gateway.Gateway that records every property mapping it
// receives and hands out scripted pipelines.
type Gateway struct {
	mu sync.Mutex

	// ConstructErr, when set, is returned from NewPipeline instead of a
	// pipeline, standing in for the engine rejecting the configuration.
	ConstructErr error

	// AnnotateErr, when set, is returned from every pipeline Annotate call.
	AnnotateErr error

	received []resolver.Properties
	closed   bool
}

// New creates an empty fake gateway.
func New() *Gateway {
	return &Gateway{}
}

// NewPipeline implements gateway.Gateway.
func (g *Gateway) NewPipeline(ctx context.Context, props resolver.Properties) (gateway.Pipeline, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.received = append(g.received, props.Clone())
	if g.ConstructErr != nil {
		return nil, g.ConstructErr
	}
	return &pipeline{gw: g, props: props.Clone()}, nil
}

// Close implements gateway.Gateway.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// Closed reports whether Close was called.
func (g *Gateway) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Constructed returns how many pipelines were requested.
func (g *Gateway) Constructed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.received)
}

// Received returns the property mapping passed to the nth NewPipeline call.
func (g *Gateway) Received(n int) resolver.Properties {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n < 0 || n >= len(g.received) {
		return nil
	}
	return g.received[n].Clone()
}

// pipeline tokenizes on whitespace so facade tests get a deterministic,
// non-empty annotation without any engine behind it.
type pipeline struct {
	gw    *Gateway
	props resolver.Properties

	mu    sync.Mutex
	texts []string
}

func (p *pipeline) Annotate(ctx context.Context, text string) (gateway.Annotation, error) {
	p.gw.mu.Lock()
	annotateErr := p.gw.AnnotateErr
	p.gw.mu.Unlock()
	if annotateErr != nil {
		return gateway.Annotation{}, annotateErr
	}

	p.mu.Lock()
	p.texts = append(p.texts, text)
	p.mu.Unlock()

	ann := gateway.Annotation{Text: text}
	sentence := gateway.Sentence{}
	offset := 0
	for i, word := range strings.Fields(text) {
		begin := strings.Index(text[offset:], word) + offset
		end := begin + len(word)
		offset = end
		sentence.Tokens = append(sentence.Tokens, gateway.Token{
			Index: i + 1,
			Word:  word,
			Begin: begin,
			End:   end,
		})
	}
	ann.Sentences = []gateway.Sentence{sentence}
	return ann, nil
}

func (p *pipeline) Close() error { return nil }

// Annotated returns the texts this pipeline has seen.
func (p *pipeline) Annotated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.texts))
	copy(out, p.texts)
	return out
}
