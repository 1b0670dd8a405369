// Package gradio calls functions exposed by a hosted Gradio Space over its
// HTTP call API: a POST submits the arguments and returns an event ID, and a
// GET on that ID streams Server-Sent Events until the call completes or fails.
package gradio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dusk-indust/humanizer/internal/payload"
	"github.com/rs/zerolog"
)

// Caller invokes a named remote function and returns its single output.
type Caller interface {
	Call(ctx context.Context, fn string, args ...any) (payload.Value, error)
}

// Compile-time interface check.
var _ Caller = (*Client)(nil)

// Client is bound to one Space and is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	log     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sends a bearer token, needed only for private Spaces.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the logger used for call tracing.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a Client for space, which is either a Hugging Face
// "owner/name" identifier or a full base URL.
func NewClient(space string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: SpaceURL(space),
		http:    &http.Client{},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the resolved Space URL.
func (c *Client) BaseURL() string { return c.baseURL }

// SpaceURL resolves a Space identifier into its base URL. Full URLs pass
// through with any trailing slash removed; "Owner/My_Space" becomes
// "https://owner-my-space.hf.space".
func SpaceURL(space string) string {
	space = strings.TrimSpace(space)
	if strings.HasPrefix(space, "http://") || strings.HasPrefix(space, "https://") {
		return strings.TrimRight(space, "/")
	}
	host := strings.NewReplacer("/", "-", "_", "-", ".", "-").Replace(strings.ToLower(space))
	return "https://" + host + ".hf.space"
}

type callRequest struct {
	Data []any `json:"data"`
}

type callResponse struct {
	EventID string `json:"event_id"`
}

// Call submits args to fn and waits for the result. fn may carry a leading
// slash ("/predict"). Outputs arrive as an array; a single output is
// unwrapped, several are returned as a sequence, none as null.
func (c *Client) Call(ctx context.Context, fn string, args ...any) (payload.Value, error) {
	name := strings.TrimPrefix(fn, "/")
	start := time.Now()

	eventID, err := c.submit(ctx, name, args)
	if err != nil {
		return payload.Null(), err
	}
	c.log.Debug().Str("fn", name).Str("event_id", eventID).Msg("call submitted")

	v, err := c.await(ctx, name, eventID)
	if err != nil {
		c.log.Debug().Str("fn", name).Dur("elapsed", time.Since(start)).Err(err).Msg("call failed")
		return payload.Null(), err
	}
	c.log.Debug().Str("fn", name).Dur("elapsed", time.Since(start)).Str("kind", v.Kind().String()).Msg("call complete")
	return v, nil
}

// submit posts the arguments and returns the event ID.
func (c *Client) submit(ctx context.Context, fn string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	body, err := json.Marshal(callRequest{Data: args})
	if err != nil {
		return "", &CallError{Kind: KindTransport, Fn: fn, Message: "marshal arguments", Err: err}
	}

	url := fmt.Sprintf("%s/gradio_api/call/%s", c.baseURL, fn)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &CallError{Kind: KindTransport, Fn: fn, Message: "create request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &CallError{Kind: KindTransport, Fn: fn, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &CallError{Kind: KindTransport, Fn: fn, Message: "read response", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", &CallError{Kind: KindNotFound, Fn: fn, Status: resp.StatusCode, Message: detail(respBody)}
	case resp.StatusCode != http.StatusOK:
		return "", &CallError{Kind: KindHTTP, Fn: fn, Status: resp.StatusCode, Message: detail(respBody)}
	}

	var cr callResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", &CallError{Kind: KindProtocol, Fn: fn, Message: "decode event id", Err: err}
	}
	if cr.EventID == "" {
		return "", &CallError{Kind: KindProtocol, Fn: fn, Message: "empty event id"}
	}
	return cr.EventID, nil
}

// await streams the call's events until a terminal one arrives.
func (c *Client) await(ctx context.Context, fn, eventID string) (payload.Value, error) {
	// Cancelling streamCtx aborts the body read, so the reader goroutine
	// exits once a terminal event has been returned.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	url := fmt.Sprintf("%s/gradio_api/call/%s/%s", c.baseURL, fn, eventID)
	httpReq, err := http.NewRequestWithContext(streamCtx, http.MethodGet, url, nil)
	if err != nil {
		return payload.Null(), &CallError{Kind: KindTransport, Fn: fn, Message: "create request", Err: err}
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	c.authorize(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return payload.Null(), &CallError{Kind: KindTransport, Fn: fn, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		kind := KindHTTP
		if resp.StatusCode == http.StatusNotFound {
			kind = KindNotFound
		}
		return payload.Null(), &CallError{Kind: kind, Fn: fn, Status: resp.StatusCode, Message: detail(respBody)}
	}

	for ev := range ReadEvents(streamCtx, resp.Body) {
		if ev.Err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return payload.Null(), &CallError{Kind: KindTransport, Fn: fn, Err: ctxErr}
			}
			return payload.Null(), &CallError{Kind: KindTransport, Fn: fn, Message: "read stream", Err: ev.Err}
		}
		switch ev.Name {
		case EventComplete:
			return decodeOutputs(fn, ev.Data)
		case EventError:
			return payload.Null(), remoteError(fn, errorMessage(ev.Data))
		case EventGenerating, EventHeartbeat:
			c.log.Trace().Str("fn", fn).Str("event", ev.Name).Msg("stream event")
		}
	}

	if err := ctx.Err(); err != nil {
		return payload.Null(), &CallError{Kind: KindTransport, Fn: fn, Err: err}
	}
	return payload.Null(), &CallError{Kind: KindProtocol, Fn: fn, Message: "stream ended without a result"}
}

func (c *Client) authorize(r *http.Request) {
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decodeOutputs turns the "complete" payload into one Value.
func decodeOutputs(fn, data string) (payload.Value, error) {
	v, err := payload.Decode([]byte(data))
	if err != nil {
		return payload.Null(), &CallError{Kind: KindProtocol, Fn: fn, Message: "decode outputs", Err: err}
	}
	if v.Kind() != payload.KindSequence {
		return v, nil
	}
	switch v.Len() {
	case 0:
		return payload.Null(), nil
	case 1:
		return v.Index(0), nil
	default:
		return v, nil
	}
}

// errorMessage extracts a readable message from an "error" event payload,
// which is JSON null, a JSON string, or an object with an "error" field.
func errorMessage(data string) string {
	data = strings.TrimSpace(data)
	v, err := payload.Decode([]byte(data))
	if err != nil {
		if data == "" {
			return "remote function failed"
		}
		return data
	}
	switch v.Kind() {
	case payload.KindNull:
		return "remote function failed"
	case payload.KindMapping:
		for _, key := range []string{"error", "message", "detail"} {
			if f, ok := v.Field(key); ok && !f.IsNull() {
				return f.String()
			}
		}
	}
	return v.String()
}

// detail pulls FastAPI's {"detail": ...} message out of an error body.
func detail(body []byte) string {
	var d struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &d); err == nil && d.Detail != nil {
		if s, ok := d.Detail.(string); ok {
			return s
		}
		return fmt.Sprint(d.Detail)
	}
	return strings.TrimSpace(string(body))
}
