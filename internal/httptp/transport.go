// Package httptp is the GraphQL-over-HTTP transport to subgraph services.
// It executes synthesized documents via POST and introspects remote schemas
// so they can participate in composition.
package httptp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buger/jsonparser"

	"github.com/graphmesh/graphmesh/internal/eventbus"
	"github.com/graphmesh/graphmesh/internal/events"
	"github.com/graphmesh/graphmesh/internal/gqlerr"
	"github.com/graphmesh/graphmesh/internal/value"
)

// Transport executes GraphQL documents against one subgraph endpoint. It
// implements subgraph.Executor.
type Transport struct {
	name     string
	endpoint string
	client   *http.Client
	opt      Options
}

// New creates a transport for the named subgraph.
func New(name, endpoint string, opts ...Option) (*Transport, error) {
	if endpoint == "" {
		return nil, ErrNoEndpoint
	}
	opt := defaultOptions()
	for _, f := range opts {
		f(opt)
	}
	client := opt.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{MaxIdleConnsPerHost: opt.MaxIdleConnsPerHost},
		}
	}
	return &Transport{name: name, endpoint: endpoint, client: client, opt: *opt}, nil
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Run posts the document and returns the decoded data tree. GraphQL errors
// in the subgraph response surface as a single execution error.
func (t *Transport) Run(ctx context.Context, query string, operation string, variables map[string]value.Value) (value.Value, error) {
	if _, ok := ctx.Deadline(); !ok && t.opt.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opt.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	eventbus.Publish(ctx, events.SubgraphCallStart{Subgraph: t.name, Operation: operation, Target: t.endpoint})

	data, err := t.post(ctx, query, variables)

	eventbus.Publish(ctx, events.SubgraphCallFinish{
		Subgraph:  t.name,
		Operation: operation,
		Target:    t.endpoint,
		Err:       err,
		Duration:  time.Since(start),
	})
	return data, err
}

func (t *Transport) post(ctx context.Context, query string, variables map[string]value.Value) (value.Value, error) {
	var vars map[string]any
	if len(variables) > 0 {
		vars = make(map[string]any, len(variables))
		for k, v := range variables {
			vars[k] = v.ToAny()
		}
	}
	body, err := json.Marshal(request{Query: query, Variables: vars})
	if err != nil {
		return value.Null(), err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return value.Null(), err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, vals := range t.opt.Headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return value.Null(), gqlerr.Execution("subgraph %s: %s", t.name, err.Error())
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return value.Null(), gqlerr.Execution("subgraph %s: %s", t.name, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return value.Null(), gqlerr.Execution("subgraph %s: unexpected status %d", t.name, resp.StatusCode)
	}

	if msg := firstErrorMessage(payload); msg != "" {
		return value.Null(), gqlerr.Execution("subgraph %s: %s", t.name, msg)
	}

	raw, dt, _, err := jsonparser.Get(payload, "data")
	if err != nil || dt == jsonparser.Null || dt == jsonparser.NotExist {
		return value.Null(), gqlerr.Execution("subgraph %s returned no data", t.name)
	}
	if dt == jsonparser.Object {
		return value.FromJSON(raw)
	}
	return value.Null(), gqlerr.Execution("subgraph %s returned a non-object response", t.name)
}

func firstErrorMessage(payload []byte) string {
	raw, dt, _, err := jsonparser.Get(payload, "errors")
	if err != nil || dt != jsonparser.Array {
		return ""
	}
	msg := ""
	_, _ = jsonparser.ArrayEach(raw, func(el []byte, _ jsonparser.ValueType, _ int, _ error) {
		if msg != "" {
			return
		}
		if m, err := jsonparser.GetString(el, "message"); err == nil {
			msg = m
		}
	})
	if msg == "" {
		msg = fmt.Sprintf("request failed with %s", string(raw))
	}
	return msg
}
