// Package client talks to the selection and reporting API: it opens and
// closes test sessions, asks for a test order and uploads case events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tso/internal/config"
	"tso/internal/domain"
	"tso/internal/logging"
	"tso/internal/tree"
)

// ClientName is sent in the X-Client-Name header
const ClientName = "tso"

// Version is sent in the X-Client-Version header; main overrides it at build time
var Version = "dev"

// ErrStatus is wrapped by every *StatusError
var ErrStatus = errors.New("unexpected response status")

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

// Client is bound to one organization and workspace. Retries belong to
// the HTTP client passed in HTTP.
type Client struct {
	BaseURL   string
	Org       string
	Workspace string
	Token     string
	HTTP      *http.Client
	Session   SessionContext
	Log       *logging.Logger
}

// New builds a Client from the API settings in cfg
func New(cfg *config.Config, log *logging.Logger) (*Client, error) {
	c := &Client{
		BaseURL:   cfg.BaseURL,
		Org:       cfg.Organization,
		Workspace: cfg.Workspace,
		Token:     cfg.Token,
		HTTP:      &http.Client{Timeout: 60 * time.Second},
		Session:   SessionContext{Build: cfg.BuildName},
		Log:       log,
	}
	if cfg.Session != "" {
		s, err := ParseSession(cfg.Session)
		if err != nil {
			return nil, err
		}
		c.Session = s
	}
	return c, nil
}

// Start creates a test session for the build unless one is already known
func (c *Client) Start(ctx context.Context) error {
	if c.Session.Registered() {
		c.Log.Debugf("reusing test session %s", c.Session.Path())
		return nil
	}
	if c.Session.Build == "" {
		return errors.New("start session: no build name")
	}

	var resp struct {
		ID any `json:"id"` // a number or a string
	}
	raw, err := c.do(ctx, http.MethodPost, c.workspaceURL("builds", c.Session.Build, "test_sessions"), nil)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return fmt.Errorf("start session: decode response: %w", err)
	}
	id := ""
	if resp.ID != nil {
		id = fmt.Sprint(resp.ID)
	}
	if id == "" {
		return errors.New("start session: response has no id")
	}

	c.Session.ID = id
	c.Log.Debugf("started test session %s", c.Session.Path())
	return nil
}

type inferenceSession struct {
	ID      string            `json:"id"`
	Subject string            `json:"subject"`
	Flavors map[string]string `json:"flavors"`
}

type inferenceRequest struct {
	Test    *tree.OrderTree  `json:"test"`
	Session inferenceSession `json:"session"`
}

// Reorder sends the encoded tree and returns the order the service chose
func (c *Client) Reorder(ctx context.Context, test *tree.OrderTree) (*tree.OrderTree, error) {
	body := inferenceRequest{
		Test: test,
		Session: inferenceSession{
			ID:      c.Session.ID,
			Subject: c.Session.Build,
			Flavors: map[string]string{},
		},
	}

	raw, err := c.do(ctx, http.MethodPost, c.workspaceURL("inference"), body)
	if err != nil {
		return nil, fmt.Errorf("reorder: %w", err)
	}
	if err := validateOrderTree(raw); err != nil {
		return nil, fmt.Errorf("reorder: invalid response: %w", err)
	}

	var order tree.OrderTree
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("reorder: decode response: %w", err)
	}
	return &order, nil
}

type eventsRequest struct {
	Events []*domain.CaseEvent `json:"events"`
}

// UploadEvents sends one batch of events. It satisfies uploader.Sink.
func (c *Client) UploadEvents(ctx context.Context, events []*domain.CaseEvent) error {
	if !c.Session.Registered() {
		return errors.New("upload events: no test session")
	}
	_, err := c.do(ctx, http.MethodPost, c.sessionURL("events"), eventsRequest{Events: events})
	if err != nil {
		return fmt.Errorf("upload events: %w", err)
	}
	return nil
}

// Upload implements uploader.Sink
func (c *Client) Upload(ctx context.Context, events []*domain.CaseEvent) error {
	return c.UploadEvents(ctx, events)
}

// SessionPath returns builds/<build>/test_sessions/<id>, or "" before Start
func (c *Client) SessionPath() string {
	if !c.Session.Registered() {
		return ""
	}
	return c.Session.Path()
}

// Finish closes the test session
func (c *Client) Finish(ctx context.Context) error {
	if !c.Session.Registered() {
		return nil
	}
	if _, err := c.do(ctx, http.MethodPatch, c.sessionURL("close"), nil); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

func (c *Client) workspaceURL(elem ...string) string {
	base := []string{"intake", "organizations", c.Org, "workspaces", c.Workspace}
	u, err := url.JoinPath(c.BaseURL, append(base, elem...)...)
	if err != nil {
		// BaseURL is validated when the request is built
		return c.BaseURL
	}
	return u
}

func (c *Client) sessionURL(elem ...string) string {
	path := append([]string{"builds", c.Session.Build, "test_sessions", c.Session.ID}, elem...)
	return c.workspaceURL(path...)
}

func (c *Client) do(ctx context.Context, method, u string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		c.Log.Debugf("%s %s: %s", method, u, data)
		reader = bytes.NewReader(data)
	} else {
		c.Log.Debugf("%s %s", method, u)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-Name", ClientName)
	req.Header.Set("X-Client-Version", Version)
	req.Header.Set("Authorization", "Bearer "+c.Token)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.Log.Debugf("response status %d", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, URL: u, Code: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
