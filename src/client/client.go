package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"secdb/src/directors"
	"secdb/src/engine"
	"secdb/src/helpers"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	contentTypeJSON = "application/json"
	contentTypeBSON = "application/bson"
)

// Client talks to a secdb server. It is safe for concurrent use.
type Client struct {
	base     string
	http     *http.Client
	username string
	password string
	useAuth  bool
	codec    string
}

type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBasicAuth sends credentials with every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
		c.useAuth = true
	}
}

// WithBSON switches the wire format from JSON to BSON.
func WithBSON() Option {
	return func(c *Client) { c.codec = contentTypeBSON }
}

// New returns a client for the server at baseURL, e.g.
// "http://127.0.0.1:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		http:  http.DefaultClient,
		codec: contentTypeJSON,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Error is a failed action reported by the server. It unwraps to the
// matching sentinel, so errors.Is(err, engine.ErrCollectionNotFound)
// works across the wire.
type Error struct {
	Status  int
	Kind    engine.Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("secdb: %s (%s, HTTP %d)", e.Message, e.Kind, e.Status)
}

func (e *Error) Unwrap() error {
	return directors.ErrorOf(e.Kind)
}

type jsonEnvelope struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Result  json.RawMessage      `json:"result"`
	Error   *directors.ErrorBody `json:"error"`
}

type bsonEnvelope struct {
	Success bool                 `bson:"success"`
	Message string               `bson:"message"`
	Result  bson.RawValue        `bson:"result"`
	Error   *directors.ErrorBody `bson:"error"`
}

func (c *Client) encode(req *directors.Request) ([]byte, error) {
	if c.codec == contentTypeBSON {
		return helpers.EncodeBSON(req)
	}
	return json.Marshal(req)
}

// do posts one action and decodes its result into out, which may be nil.
func (c *Client) do(ctx context.Context, action directors.Action, req *directors.Request, out interface{}) error {
	if req == nil {
		req = &directors.Request{}
	}
	body, err := c.encode(req)
	if err != nil {
		return fmt.Errorf("secdb: encoding %s request: %w", action, err)
	}

	endpoint := c.base + "/db/" + url.PathEscape(string(action))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", c.codec)
	if c.useAuth {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("secdb: %s: %w", action, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("secdb: reading %s response: %w", action, err)
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), contentTypeBSON) {
		return decodeBSONResponse(resp.StatusCode, payload, out)
	}
	return decodeJSONResponse(resp.StatusCode, payload, out)
}

func decodeJSONResponse(status int, payload []byte, out interface{}) error {
	var env jsonEnvelope
	if err := helpers.DecodeJSON(payload, &env); err != nil {
		return fmt.Errorf("secdb: unexpected response (HTTP %d): %s", status, bytes.TrimSpace(payload))
	}
	if !env.Success {
		return envelopeError(status, env.Error)
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := helpers.DecodeJSON(env.Result, out); err != nil {
		return fmt.Errorf("secdb: decoding result: %w", err)
	}
	return nil
}

func decodeBSONResponse(status int, payload []byte, out interface{}) error {
	var env bsonEnvelope
	if err := helpers.DecodeBSON(payload, &env); err != nil {
		return fmt.Errorf("secdb: unexpected response (HTTP %d): %w", status, err)
	}
	if !env.Success {
		return envelopeError(status, env.Error)
	}
	if out == nil || len(env.Result.Value) == 0 {
		return nil
	}
	if err := env.Result.Unmarshal(out); err != nil {
		return fmt.Errorf("secdb: decoding result: %w", err)
	}
	return nil
}

func envelopeError(status int, body *directors.ErrorBody) error {
	if body == nil {
		return &Error{Status: status, Kind: engine.KindInternal, Message: "request failed"}
	}
	return &Error{Status: status, Kind: body.Kind, Message: body.Message}
}

func normalizeDocuments(docs []engine.Document) []engine.Document {
	if docs == nil {
		return []engine.Document{}
	}
	for i, doc := range docs {
		docs[i] = normalizeDocument(doc)
	}
	return docs
}

func normalizeDocument(doc engine.Document) engine.Document {
	if doc == nil {
		return engine.Document{}
	}
	normalized := helpers.NormalizeBSON(map[string]interface{}(doc)).(map[string]interface{})
	return engine.Document(engine.CanonicalValue(normalized).(map[string]interface{}))
}

func orEmpty(q engine.Query) map[string]interface{} {
	if q == nil {
		return map[string]interface{}{}
	}
	return q
}
