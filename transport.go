package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

const defaultRequestTimeout = 30 * time.Second

// Response is the decoded envelope for one backend round trip. IsJSON is true
// only when the server declared a JSON content type and the body parsed as a
// JSON object; callers treat everything else as an unusable reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	IsJSON     bool
	JSON       map[string]any
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport is the credentialed HTTP client every operation goes through. A
// cookie jar round-trips httpOnly session cookies the client never reads, and
// a bearer header is attached whenever the CredentialStore holds a token.
type Transport struct {
	baseURL string
	client  *http.Client
	creds   CredentialStore
	logger  Logger
	debug   bool
}

// TransportOption customizes transport construction.
type TransportOption func(*Transport)

// WithTransportHTTPClient replaces the underlying http.Client. A cookie jar
// is installed if the client has none, since cookie-based sessions depend
// on it.
func WithTransportHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		if client != nil {
			t.client = client
		}
	}
}

// WithTransportLogger overrides the transport logger.
func WithTransportLogger(logger Logger) TransportOption {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithTransportDebug dumps decoded payloads to the logger.
func WithTransportDebug(debug bool) TransportOption {
	return func(t *Transport) {
		t.debug = debug
	}
}

// NewTransport returns a Transport rooted at baseURL. creds may be nil when
// the backend is purely cookie-based.
func NewTransport(baseURL string, creds CredentialStore, opts ...TransportOption) *Transport {
	t := &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		creds:   creds,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}

	if t.client == nil {
		t.client = &http.Client{Timeout: defaultRequestTimeout}
	}

	if t.client.Jar == nil {
		// cookiejar.New only errors on bad PublicSuffixList options.
		jar, err := cookiejar.New(nil)
		if err == nil {
			t.client.Jar = jar
		}
	}

	return t
}

func (t *Transport) Get(ctx context.Context, path string) (*Response, error) {
	return t.do(ctx, http.MethodGet, path, nil)
}

func (t *Transport) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return t.do(ctx, http.MethodPost, path, payload)
}

func (t *Transport) Put(ctx context.Context, path string, payload any) (*Response, error) {
	return t.do(ctx, http.MethodPut, path, payload)
}

func (t *Transport) Delete(ctx context.Context, path string) (*Response, error) {
	return t.do(ctx, http.MethodDelete, path, nil)
}

func (t *Transport) do(ctx context.Context, method, path string, payload any) (*Response, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to encode request payload")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to create request")
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if t.creds != nil {
		if credential, err := t.creds.Get(); err == nil && credential != "" {
			req.Header.Set("Authorization", "Bearer "+credential)
		}
	}

	res, err := t.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "request failed").
			WithMetadata(map[string]any{
				"method": method,
				"path":   path,
			})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read response body")
	}

	response := &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       raw,
	}

	if strings.Contains(res.Header.Get("Content-Type"), "application/json") {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err == nil {
			if obj, ok := decoded.(map[string]any); ok {
				response.IsJSON = true
				response.JSON = obj
			}
		}
	}

	if t.debug {
		t.logger.Debug("response",
			"method", method,
			"path", path,
			"status", response.StatusCode,
			"body", print.MaybePrettyJSON(response.JSON),
		)
	}

	return response, nil
}
