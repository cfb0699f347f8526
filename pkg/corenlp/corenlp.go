package corenlp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cognicore/corenlp/internal/textclean"
	"github.com/cognicore/corenlp/pkg/corenlp/cache"
	"github.com/cognicore/corenlp/pkg/corenlp/gateway"
	"github.com/cognicore/corenlp/pkg/corenlp/internalerr"
	"github.com/cognicore/corenlp/pkg/corenlp/language"
	"github.com/cognicore/corenlp/pkg/corenlp/models"
	"github.com/cognicore/corenlp/pkg/corenlp/resolver"
)

// Client is the main facade over the configuration resolver and the
// external analysis engine.
type Client struct {
	gw        gateway.Gateway
	store     cache.Cache
	res       *resolver.Resolver
	stripHTML bool

	mu        sync.Mutex
	pipelines map[string]gateway.Pipeline
}

// Options configures a Client instance
type Options struct {
	// Gateway to the external engine. Required.
	Gateway gateway.Gateway

	// ModelPath is the root directory the model folders live under.
	ModelPath string

	// Cache memoizes annotation results. Optional.
	Cache cache.Cache

	// Catalog overrides the built-in model catalog. Optional.
	Catalog *models.Catalog

	// Registry overrides the built-in language registry. Optional.
	Registry *language.Registry

	// StripHTML runs inputs through HTML stripping before annotation.
	StripHTML bool
}

// New creates a Client with the given dependencies
func New(opts Options) (*Client, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("corenlp: gateway required: %w", internalerr.ErrInvalidConfig)
	}
	registry := opts.Registry
	if registry == nil {
		registry = language.Default()
	}
	catalog := opts.Catalog
	if catalog == nil {
		catalog = models.Default()
	}
	return &Client{
		gw:        opts.Gateway,
		store:     opts.Cache,
		res:       resolver.New(registry, catalog, opts.ModelPath),
		stripHTML: opts.StripHTML,
		pipelines: make(map[string]gateway.Pipeline),
	}, nil
}

// Close cleanly shuts down the Client instance
func (c *Client) Close() error {
	c.mu.Lock()
	for fp, p := range c.pipelines {
		p.Close()
		delete(c.pipelines, fp)
	}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Close(); err != nil {
			c.gw.Close()
			return err
		}
	}
	return c.gw.Close()
}

// SelectLanguage resolves a surface language token into an immutable
// profile carrying the full model-file table for that language.
func (c *Client) SelectLanguage(token string) (resolver.Profile, error) {
	return c.res.UseLanguage(token)
}

// ResolveProperties returns the final property mapping for a request
// without constructing a pipeline.
func (c *Client) ResolveProperties(profile resolver.Profile, annotators []string, custom map[string]string) (resolver.Properties, error) {
	return c.res.Resolve(profile, annotators, custom)
}

// LoadPipeline resolves the configuration and hands it to the gateway,
// returning the gateway's pipeline handle verbatim. Resolution failures
// abort before the gateway is ever called; gateway failures pass through
// unmodified.
func (c *Client) LoadPipeline(ctx context.Context, profile resolver.Profile, annotators []string, custom map[string]string) (gateway.Pipeline, error) {
	props, err := c.res.Resolve(profile, annotators, custom)
	if err != nil {
		return nil, err
	}
	return c.pipelineFor(ctx, props)
}

// Annotate runs text through a pipeline for the given selection, consulting
// the annotation cache first when one is configured.
func (c *Client) Annotate(ctx context.Context, profile resolver.Profile, annotators []string, custom map[string]string, text string) (gateway.Annotation, error) {
	if c.stripHTML {
		text = textclean.StripHTML(text)
	}

	props, err := c.res.Resolve(profile, annotators, custom)
	if err != nil {
		return gateway.Annotation{}, err
	}

	key := cache.Key(props.Fingerprint(), text)
	if c.store != nil {
		payload, found, err := c.store.Get(ctx, key)
		if err != nil {
			return gateway.Annotation{}, fmt.Errorf("annotation cache: %w", err)
		}
		if found {
			var ann gateway.Annotation
			if err := json.Unmarshal(payload, &ann); err == nil {
				return ann, nil
			}
			// Undecodable entry: fall through and overwrite it below.
		}
	}

	pipeline, err := c.pipelineFor(ctx, props)
	if err != nil {
		return gateway.Annotation{}, err
	}

	ann, err := pipeline.Annotate(ctx, text)
	if err != nil {
		return gateway.Annotation{}, err
	}

	if c.store != nil {
		if payload, err := json.Marshal(ann); err == nil {
			if err := c.store.Put(ctx, key, payload); err != nil {
				return gateway.Annotation{}, fmt.Errorf("annotation cache: %w", err)
			}
		}
	}

	return ann, nil
}

// pipelineFor reuses an existing pipeline for an identical configuration,
// constructing one through the gateway otherwise.
func (c *Client) pipelineFor(ctx context.Context, props resolver.Properties) (gateway.Pipeline, error) {
	fp := props.Fingerprint()

	c.mu.Lock()
	if p, ok := c.pipelines[fp]; ok {
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	p, err := c.gw.NewPipeline(ctx, props)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.pipelines[fp]; ok {
		p.Close()
		return existing, nil
	}
	c.pipelines[fp] = p
	return p, nil
}
