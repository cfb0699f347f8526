// Package httpgw drives a Stanford CoreNLP server over its HTTP annotate
// endpoint. The server owns the JVM and the models; this client only
// marshals the resolved property mapping and the text across.
package httpgw

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cognicore/corenlp/pkg/corenlp/gateway"
	"github.com/cognicore/corenlp/pkg/corenlp/internalerr"
	"github.com/cognicore/corenlp/pkg/corenlp/resolver"
)

// Client is a gateway.Gateway backed by a CoreNLP server.
type Client struct {
	BaseURL string

	HTTPClient *http.Client

	liveOnce sync.Once
	liveErr  error

	mu     sync.Mutex
	closed bool
}

// New creates a client for the server at baseURL (e.g. "http://localhost:9000").
func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/")}
}

// NewPipeline implements gateway.Gateway. The first call checks server
// liveness; the check runs at most once per client.
func (c *Client) NewPipeline(ctx context.Context, props resolver.Properties) (gateway.Pipeline, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, internalerr.ErrGatewayClosed
	}
	c.mu.Unlock()

	if c.BaseURL == "" {
		return nil, fmt.Errorf("corenlp server: base URL required: %w", internalerr.ErrInvalidConfig)
	}

	c.liveOnce.Do(func() {
		c.liveErr = c.ping(ctx)
	})
	if c.liveErr != nil {
		return nil, fmt.Errorf("corenlp server %s: %w", c.BaseURL, c.liveErr)
	}

	// The server takes the full property mapping per request, so the
	// pipeline handle just pins the serialized form.
	serverProps := props.Clone()
	serverProps["outputFormat"] = "json"
	encoded, err := json.Marshal(map[string]string(serverProps))
	if err != nil {
		return nil, fmt.Errorf("corenlp server: encode properties: %w", err)
	}

	return &pipeline{client: c, props: string(encoded)}, nil
}

// Close implements gateway.Gateway.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping: %s", resp.Status)
	}
	return nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

type pipeline struct {
	client *Client
	props  string
}

// serverAnnotation mirrors the server's JSON output shape.
type serverAnnotation struct {
	Sentences []struct {
		Index  int    `json:"index"`
		Parse  string `json:"parse"`
		Tokens []struct {
			Index int    `json:"index"`
			Word  string `json:"word"`
			Lemma string `json:"lemma"`
			POS   string `json:"pos"`
			NER   string `json:"ner"`
			Begin int    `json:"characterOffsetBegin"`
			End   int    `json:"characterOffsetEnd"`
		} `json:"tokens"`
	} `json:"sentences"`
}

// Annotate posts the text to the server and maps the JSON response back.
// Server rejections are passed through unmodified.
func (p *pipeline) Annotate(ctx context.Context, text string) (gateway.Annotation, error) {
	p.client.mu.Lock()
	closed := p.client.closed
	p.client.mu.Unlock()
	if closed {
		return gateway.Annotation{}, internalerr.ErrGatewayClosed
	}

	endpoint := p.client.BaseURL + "/?properties=" + url.QueryEscape(p.props)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(text))
	if err != nil {
		return gateway.Annotation{}, err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := p.client.httpClient().Do(req)
	if err != nil {
		return gateway.Annotation{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.Annotation{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gateway.Annotation{}, fmt.Errorf("corenlp server: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var sa serverAnnotation
	if err := json.Unmarshal(body, &sa); err != nil {
		return gateway.Annotation{}, fmt.Errorf("corenlp server: decode response: %w", err)
	}

	ann := gateway.Annotation{Text: text}
	for _, s := range sa.Sentences {
		sentence := gateway.Sentence{Index: s.Index, Parse: strings.TrimSpace(s.Parse)}
		for _, t := range s.Tokens {
			sentence.Tokens = append(sentence.Tokens, gateway.Token{
				Index: t.Index,
				Word:  t.Word,
				Lemma: t.Lemma,
				POS:   t.POS,
				NER:   t.NER,
				Begin: t.Begin,
				End:   t.End,
			})
		}
		ann.Sentences = append(ann.Sentences, sentence)
	}
	return ann, nil
}

func (p *pipeline) Close() error { return nil }
