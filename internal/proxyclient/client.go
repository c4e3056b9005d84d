// Package proxyclient talks to the crossposter backend proxy. Every response
// comes wrapped in a proxyapi.Envelope; an unsuccessful envelope or a non-2xx
// status is returned as *APIError carrying the proxy's message.
package proxyclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/crossposter/internal/common"
	"github.com/dmitrijs2005/crossposter/internal/logging"
	"github.com/dmitrijs2005/crossposter/internal/proxyapi"
	"github.com/google/uuid"
)

const maxResponseBytes = 4 << 20

// TokenSource yields the current session access token.
type TokenSource interface {
	AccessToken() (string, bool)
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logging.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func New(baseURL string, tokens TokenSource, log logging.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
		tokens:  tokens,
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// APIError is a failed proxy call.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("proxy returned http %d", e.Status)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized, e.Code == proxyapi.CodeUnauthorized:
		return common.ErrorUnauthorized
	case e.Status == http.StatusNotFound, e.Code == proxyapi.CodeNotFound:
		return common.ErrorNotFound
	case e.Code == proxyapi.CodeConflict:
		return common.ErrLoginAlreadyTaken
	}
	return nil
}

type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	anonymous   bool
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any, anonymous bool) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
		body = bytes.NewReader(b)
	}
	return c.do(ctx, request{method: method, path: path, body: body, contentType: "application/json", anonymous: anonymous}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if !r.anonymous {
		token, ok := "", false
		if c.tokens != nil {
			token, ok = c.tokens.AccessToken()
		}
		if !ok || token == "" {
			return common.ErrNotAuthenticated
		}
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", r.path, err)
	}

	var env proxyapi.Envelope
	decodeErr := json.Unmarshal(raw, &env)

	ok2xx := resp.StatusCode >= 200 && resp.StatusCode < 300
	if decodeErr != nil {
		if !ok2xx {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("malformed %s response: %w", r.path, decodeErr)
	}

	if !ok2xx || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		c.log.Debug(ctx, "proxy call failed", "path", r.path, "status", resp.StatusCode, "code", apiErr.Code)
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("malformed %s response data: %w", r.path, err)
	}
	return nil
}

// form builds a multipart body.
type form struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *form {
	f := &form{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

func (f *form) field(name, value string) {
	if f.err != nil || value == "" {
		return
	}
	f.err = f.w.WriteField(name, value)
}

func (f *form) file(name, filename string, data []byte) {
	if f.err != nil {
		return
	}
	if filename == "" {
		filename = name + ".jpg"
	}
	part, err := f.w.CreateFormFile(name, filename)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(data)
}

func (f *form) request(method, path string) (request, error) {
	if f.err != nil {
		return request{}, fmt.Errorf("build form: %w", f.err)
	}
	if err := f.w.Close(); err != nil {
		return request{}, fmt.Errorf("build form: %w", err)
	}
	return request{method: method, path: path, body: &f.buf, contentType: f.w.FormDataContentType()}, nil
}

var errEmptyResponse = errors.New("empty response from proxy")
