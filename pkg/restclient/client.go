// Package restclient is the HTTP implementation of store.Backend.
//
// Paths are derived from each type's restRoot:
//
//	Create   POST   <root>
//	List     GET    <root>
//	Get      GET    <root>/<id>
//	FetchIDs GET    <root>/fetch/<id,id,...>
//	Update   PUT    <root>/<id>
//	Delete   DELETE <root>/<id>
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/lazystore/pkg/config"
	"github.com/getmockd/lazystore/pkg/entity"
	"github.com/getmockd/lazystore/pkg/logging"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned for ids the batch fetch route cannot carry.
var ErrInvalidID = errors.New("invalid id")

// DefaultTimeout is the HTTP timeout used unless WithTimeout is given.
const DefaultTimeout = 30 * time.Second

// ErrorResponse is the error body written by the mock backend.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Hint     string `json:"hint,omitempty"`
	Resource string `json:"resource,omitempty"`
	ID       string `json:"id,omitempty"`
}

// StatusError is returned for unexpected non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       ErrorResponse
}

func (e *StatusError) Error() string {
	msg := e.Body.Message
	if msg == "" {
		msg = e.Body.Detail
	}
	switch {
	case e.Body.Error != "" && msg != "":
		return fmt.Sprintf("%s: %s", e.Body.Error, msg)
	case e.Body.Error != "":
		return e.Body.Error
	default:
		return fmt.Sprintf("request failed: status %d", e.StatusCode)
	}
}

// Hint returns the backend's resolution hint, if any.
func (e *StatusError) Hint() string {
	return e.Body.Hint
}

// Client talks to a REST backend serving the configured entity types.
type Client struct {
	baseURL    string
	cfg        *config.Config
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cfg:     cfg,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create stores e and returns it with the server-assigned id.
func (c *Client) Create(ctx context.Context, typ string, e entity.Entity) (entity.Entity, error) {
	path, err := c.path(typ)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = entity.Entity{}
	}
	resp, err := c.send(ctx, http.MethodPost, path, e)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}
	return decodeEntity(resp.Body)
}

// List returns every entity of typ.
func (c *Client) List(ctx context.Context, typ string) ([]entity.Entity, error) {
	path, err := c.path(typ)
	if err != nil {
		return nil, err
	}
	return c.getList(ctx, path)
}

// Get returns one entity, or ErrNotFound.
func (c *Client) Get(ctx context.Context, typ, id string) (entity.Entity, error) {
	path, err := c.path(typ, id)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeEntity(resp.Body)
}

// FetchIDs returns the entities of typ matching any of ids. Ids are joined
// with commas, so an id containing one is rejected with ErrInvalidID.
func (c *Client) FetchIDs(ctx context.Context, typ string, ids []string) ([]entity.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	escaped := make([]string, len(ids))
	for i, id := range ids {
		if strings.Contains(id, ",") {
			return nil, fmt.Errorf("%w: %q contains a comma", ErrInvalidID, id)
		}
		escaped[i] = url.PathEscape(id)
	}
	path, err := c.path(typ)
	if err != nil {
		return nil, err
	}
	return c.getList(ctx, path+"/fetch/"+strings.Join(escaped, ","))
}

// Update merges fields into (typ, id) and returns the merged entity.
func (c *Client) Update(ctx context.Context, typ, id string, fields entity.Entity) (entity.Entity, error) {
	path, err := c.path(typ, id)
	if err != nil {
		return nil, err
	}
	if fields == nil {
		fields = entity.Entity{}
	}
	resp, err := c.send(ctx, http.MethodPut, path, fields)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeEntity(resp.Body)
}

// Delete removes (typ, id).
func (c *Client) Delete(ctx context.Context, typ, id string) error {
	path, err := c.path(typ, id)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return c.parseError(resp)
	}
}

// Health checks if the backend is up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// State returns the backend's state overview as decoded JSON.
func (c *Client) State(ctx context.Context) (map[string]any, error) {
	resp, err := c.send(ctx, http.MethodGet, "/_state", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeEntity(resp.Body)
}

// ResetState restores the backend's seed data.
func (c *Client) ResetState(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, "/_state/reset", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return c.parseError(resp)
	}
	return nil
}

func (c *Client) path(typ string, id ...string) (string, error) {
	tc, err := c.cfg.Type(typ)
	if err != nil {
		return "", err
	}
	root := strings.TrimSuffix(tc.RestRoot, "/")
	if len(id) == 0 {
		if root == "" {
			return "/", nil
		}
		return root, nil
	}
	return root + "/" + url.PathEscape(id[0]), nil
}

func (c *Client) getList(ctx context.Context, path string) ([]entity.Entity, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}
	return decodeList(resp.Body)
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
		r = &buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, err
	}
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	serr := &StatusError{StatusCode: resp.StatusCode}
	_ = json.Unmarshal(body, &serr.Body)
	return serr
}

func decodeEntity(r io.Reader) (entity.Entity, error) {
	var e entity.Entity
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("failed to decode entity: %w", err)
	}
	return e, nil
}

// decodeList decodes an array of entities. A single object body is
// normalized to a one-element slice.
func decodeList(r io.Reader) ([]entity.Entity, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var e entity.Entity
		if err := json.Unmarshal(trimmed, &e); err != nil {
			return nil, fmt.Errorf("failed to decode entity: %w", err)
		}
		return []entity.Entity{e}, nil
	}

	var list []entity.Entity
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, fmt.Errorf("failed to decode entities: %w", err)
	}
	return list, nil
}
