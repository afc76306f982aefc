package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/hyperifyio/lmsquiz/internal/cache"
)

// Response is a fetched page.
type Response struct {
	Body        []byte
	ContentType string
	// FinalURL is the request URL after redirects.
	FinalURL string
	Status   int
}

// Client wraps http.Client and provides timeouts and limited retry on transient errors.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Headers are added to every request.
	Headers map[string]string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for GET bodies and validators.
	Cache *cache.PageCache
	// If true, skip conditional headers but still save the latest response.
	BypassCache bool

	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET with context, headers, and bounded retry for transient errors.
func (c *Client) Get(ctx context.Context, rawURL string) (Response, error) {
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
		resp, val, err := c.tryOnce(ctx, http.MethodGet, rawURL, nil, etag, lastMod)
		if err == nil {
			if c.Cache != nil && resp.Status == http.StatusOK {
				_ = c.Cache.Save(ctx, rawURL, resp.ContentType, val.etag, val.lastModified, resp.Body)
			}
			if resp.Status == http.StatusNotModified {
				if c.Cache == nil {
					return Response{}, &Error{Kind: KindStatus, URL: rawURL, Status: resp.Status}
				}
				cached, cerr := c.Cache.LoadBody(ctx, rawURL)
				if cerr != nil {
					return Response{}, &Error{Kind: KindStatus, URL: rawURL, Status: resp.Status, Err: cerr}
				}
				if meta, merr := c.Cache.LoadMeta(ctx, rawURL); merr == nil && resp.ContentType == "" {
					resp.ContentType = meta.ContentType
				}
				resp.Body = cached
			}
			return resp, nil
		}
		lastErr = err
		var fe *Error
		if !errors.As(err, &fe) || !fe.transient() || i == attempts-1 {
			return Response{}, err
		}
		select {
		case <-ctx.Done():
			return Response{}, transportError(rawURL, ctx.Err())
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return Response{}, lastErr
}

// PostForm submits a url-encoded form once. Responses are never cached.
func (c *Client) PostForm(ctx context.Context, rawURL string, values url.Values) (Response, error) {
	resp, _, err := c.tryOnce(ctx, http.MethodPost, rawURL, values, "", "")
	return resp, err
}

type validators struct {
	etag         string
	lastModified string
}

func (c *Client) tryOnce(ctx context.Context, method, rawURL string, form url.Values, etag, lastMod string) (Response, validators, error) {
	if err := c.acquire(ctx); err != nil {
		return Response{}, validators{}, transportError(rawURL, err)
	}
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return Response{}, validators{}, &Error{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("new request: %w", err)}
	}
	if !isHTTPScheme(req.URL) {
		return Response{}, validators{}, &Error{Kind: KindNetwork, URL: rawURL, Err: fmt.Errorf("unsupported URL scheme: %q", req.URL.Scheme)}
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return Response{}, validators{}, transportError(rawURL, err)
	}
	defer resp.Body.Close()

	out := Response{
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
		Status:      resp.StatusCode,
	}
	v := validators{etag: resp.Header.Get("ETag"), lastModified: resp.Header.Get("Last-Modified")}
	if resp.StatusCode == http.StatusNotModified && method == http.MethodGet {
		return out, v, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, validators{}, &Error{Kind: KindStatus, URL: rawURL, Status: resp.StatusCode}
	}
	if !isAllowedHTMLContentType(out.ContentType) {
		return Response{}, validators{}, &Error{Kind: KindContentType, URL: rawURL, Status: resp.StatusCode,
			Err: fmt.Errorf("unsupported content type: %s", out.ContentType)}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, validators{}, transportError(rawURL, fmt.Errorf("read body: %w", err))
	}
	out.Body = b
	return out, v, nil
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		// Carry custom headers across hops; net/http only copies a few.
		for k, v := range c.Headers {
			if req.Header.Get(k) == "" {
				req.Header.Set(k, v)
			}
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
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// acquire waits for a free slot or for ctx to end.
func (c *Client) acquire(ctx context.Context) error {
	if c.MaxConcurrent <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
