// Package apiclient talks to the Maghreb Global PHP API. Every request
// carries the X-API-KEY header; failures are returned as marked errors
// (see ErrForbidden, ErrServer, ErrNetwork, ErrConflict, ErrAPI).
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/maghrebglobal/backoffice/internal/config"
)

// HeaderAPIKey is the header carrying the API key.
const HeaderAPIKey = "X-API-KEY"

type noRetryKey struct{}

// Client is the remote API client.
type Client struct {
	baseURL string
	key     string
	http    *retryablehttp.Client
	pdfs    *gocache.Cache
	log     *zap.Logger
}

// New builds a client from the API configuration. Only GET requests are
// retried so creating a document never runs twice.
func New(cfg config.APIConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = leveledLogger{log.Sugar().Named("apiclient")}
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if skip, _ := ctx.Value(noRetryKey{}).(bool); skip {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if cfg.Timeout > 0 {
		rc.HTTPClient.Timeout = cfg.Timeout
	}

	ttl := cfg.PDFCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	base := cfg.BaseURL
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		baseURL: base,
		key:     cfg.Key,
		http:    rc,
		pdfs:    gocache.New(ttl, 2*ttl),
		log:     log,
	}
}

// URL resolves an endpoint against the base URL. Absolute URLs are kept.
func (c *Client) URL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + strings.TrimPrefix(endpoint, "/")
}

// Get fetches endpoint and decodes the JSON answer into out (may be nil).
func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

// Post sends body as JSON and decodes the answer into out (may be nil).
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(context.WithValue(ctx, noRetryKey{}, true), http.MethodPost, endpoint, body, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	data, err := c.raw(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(normalize(data), out); err != nil {
		return errors.Mark(errors.Wrapf(err, "decode %s", endpoint), ErrDecode)
	}
	return nil
}

func (c *Client) raw(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(b)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.URL(endpoint), reader)
	if err != nil {
		return nil, errors.Wrapf(err, "build request %s", endpoint)
	}
	req.Header.Set(HeaderAPIKey, c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("api request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, networkError(endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("api error", zap.String("endpoint", endpoint), zap.Int("status", resp.StatusCode))
		return nil, statusError(endpoint, resp.StatusCode, data)
	}
	return data, nil
}

// normalize maps an empty body to {} and a non-JSON body to {"message": text}.
func normalize(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []byte("{}")
	}
	if json.Valid(trimmed) {
		return trimmed
	}
	b, _ := json.Marshal(map[string]string{"message": string(data)})
	return b
}

// DownloadPDF fetches a generated PDF. Results are kept for the configured TTL.
func (c *Client) DownloadPDF(ctx context.Context, endpoint string) ([]byte, error) {
	u := c.URL(endpoint)
	if cached, ok := c.pdfs.Get(u); ok {
		return cached.([]byte), nil
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request %s", endpoint)
	}
	req.Header.Set(HeaderAPIKey, c.key)
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, networkError(endpoint, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(endpoint, resp.StatusCode, data)
	}
	c.pdfs.SetDefault(u, data)
	return data, nil
}

// ForgetPDFs empties the PDF cache.
func (c *Client) ForgetPDFs() {
	c.pdfs.Flush()
}

func withQuery(endpoint, key, value string) string {
	return endpoint + "?" + url.Values{key: {value}}.Encode()
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.s.Warnw(msg, kv...) }
