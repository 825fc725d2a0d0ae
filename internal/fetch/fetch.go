package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/blogforge/internal/cache"
)

// DesktopUserAgent is sent when a page must look like an ordinary browser
// visit.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 5 << 20

var (
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrContentType       = errors.New("unsupported content type")
	errTooManyRedirects  = errors.New("too many redirects")
)

// StatusError reports a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("unexpected status: %d", e.Code) }

// Client wraps http.Client with timeouts, a browser-like user agent, bounded
// retry on transient errors and an optional on-disk cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Cache, when set, enables conditional revalidation of GET bodies.
	Cache *cache.HTTPCache
	// MaxAge serves cached bodies younger than this without any request.
	MaxAge time.Duration
	// BypassCache fetches fresh without conditional headers but still saves.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxBodyBytes caps the bytes read per response. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET and returns the body and content type. Only HTML
// responses are accepted.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.Cache != nil && !c.BypassCache {
		if body, meta, ok := c.Cache.Fresh(ctx, rawURL, c.MaxAge); ok {
			log.Debug().Str("url", rawURL).Msg("http cache hit")
			return body, meta.ContentType, nil
		}
	}
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		res, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			if res.status == http.StatusNotModified && c.Cache != nil {
				if cached, err := c.Cache.LoadBody(ctx, rawURL); err == nil {
					return cached, res.contentType, nil
				}
			}
			if c.Cache != nil && res.status == http.StatusOK {
				if err := c.Cache.Save(ctx, rawURL, res.contentType, res.etag, res.lastMod, res.body); err != nil {
					log.Debug().Err(err).Str("url", rawURL).Msg("http cache save failed")
				}
			}
			return res.body, res.contentType, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return nil, "", lastErr
}

// Probe checks that rawURL answers. It sends HEAD and falls back to GET when
// the server rejects HEAD with 405. The returned code is the final status
// after redirects; err is set only when no response was received.
func (c *Client) Probe(ctx context.Context, rawURL string) (int, error) {
	code, err := c.probe(ctx, http.MethodHead, rawURL)
	if err == nil && code == http.StatusMethodNotAllowed {
		return c.probe(ctx, http.MethodGet, rawURL)
	}
	return code, err
}

func (c *Client) probe(ctx context.Context, method, rawURL string) (int, error) {
	req, err := c.newRequest(ctx, method, rawURL)
	if err != nil {
		return 0, err
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}
	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
	return resp.StatusCode, nil
}

type result struct {
	body        []byte
	contentType string
	etag        string
	lastMod     string
	status      int
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, req.URL.Scheme)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL string, etag string, lastMod string) (result, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return result{}, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return result{}, err
	}
	defer resp.Body.Close()

	res := result{
		contentType: resp.Header.Get("Content-Type"),
		etag:        resp.Header.Get("ETag"),
		lastMod:     resp.Header.Get("Last-Modified"),
		status:      resp.StatusCode,
	}
	if resp.StatusCode == http.StatusNotModified {
		return res, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return res, &StatusError{Code: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(res.contentType) {
		return res, fmt.Errorf("%w: %s", ErrContentType, res.contentType)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	res.body, err = io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return res, fmt.Errorf("read body: %w", err)
	}
	return res, nil
}

// isTransient treats 5xx, 429 and deadline errors as worth another attempt.
func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return false
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errTooManyRedirects
		}
		if !isHTTPScheme(req.URL) {
			return ErrUnsupportedScheme
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// servers that omit the header are given the benefit of the doubt
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
