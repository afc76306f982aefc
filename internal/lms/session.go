// Package lms talks to a Moodle-style learning management system: it logs in
// with a username and password and fetches quiz review pages with the
// resulting cookies.
package lms

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/lmsquiz/internal/cache"
	"github.com/hyperifyio/lmsquiz/internal/fetch"
	"github.com/hyperifyio/lmsquiz/internal/quiz"
)

const (
	DefaultBaseURL = "https://plsd.elearningcommons.com"
	loginPath      = "/login/index.php"

	loginTimeout = 10 * time.Second
	pageTimeout  = 15 * time.Second
)

// DefaultHeaders mimic a desktop browser.
var DefaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

var (
	ErrNoLoginToken  = errors.New("login token not found")
	ErrLoginRejected = errors.New("login rejected")
	// ErrNotLoggedIn is returned when a page fetch lands on the login form.
	ErrNotLoggedIn = errors.New("not logged in")
)

// Credentials identify one LMS user.
type Credentials struct {
	Username string
	Password string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
}

// Options tune a Session. The zero value is usable.
type Options struct {
	// Transport is the round tripper shared by all requests; nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
	// Cache stores review pages. Login traffic is never cached.
	Cache       *cache.PageCache
	BypassCache bool
	// MaxAttempts for page fetches, default 2.
	MaxAttempts int
	Logger      zerolog.Logger
	Extraction  quiz.Options
}

// Session is one authenticated user. It owns a cookie jar and is safe for
// concurrent page fetches once logged in.
type Session struct {
	creds     Credentials
	baseURL   string
	auth      *fetch.Client
	pages     *fetch.Client
	extractor quiz.Extractor
	log       zerolog.Logger
}

// NewSession prepares a session; it does not contact the server.
func NewSession(creds Credentials, opts Options) (*Session, error) {
	base := strings.TrimRight(strings.TrimSpace(creds.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, fmt.Errorf("invalid base URL %q", creds.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	hc := &http.Client{Jar: jar, Transport: opts.Transport}
	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	creds.BaseURL = base
	return &Session{
		creds:   creds,
		baseURL: base,
		auth: &fetch.Client{
			HTTPClient:        hc,
			Headers:           DefaultHeaders,
			MaxAttempts:       1,
			PerRequestTimeout: loginTimeout,
		},
		pages: &fetch.Client{
			HTTPClient:        hc,
			Headers:           DefaultHeaders,
			MaxAttempts:       attempts,
			PerRequestTimeout: pageTimeout,
			Cache:             opts.Cache,
			BypassCache:       opts.BypassCache,
		},
		extractor: quiz.NewHeuristicExtractor(opts.Logger, opts.Extraction),
		log:       opts.Logger,
	}, nil
}

// BaseURL returns the normalized LMS root.
func (s *Session) BaseURL() string { return s.baseURL }

// Username returns the account the session logs in as.
func (s *Session) Username() string { return s.creds.Username }

func (s *Session) loginURL() string { return s.baseURL + loginPath }

// FetchPage returns the HTML of an authenticated page.
func (s *Session) FetchPage(ctx context.Context, url string) (string, error) {
	resp, err := s.pages.Get(ctx, url)
	if err != nil {
		s.log.Error().Err(err).Str("url", url).Msg("fetch page")
		return "", err
	}
	if isLoginURL(resp.FinalURL) && !isLoginURL(url) {
		return "", fmt.Errorf("%s: %w", url, ErrNotLoggedIn)
	}
	return string(resp.Body), nil
}

// Extract fetches a review page and returns its questions.
func (s *Session) Extract(ctx context.Context, url string) ([]quiz.Record, error) {
	markup, err := s.FetchPage(ctx, url)
	if err != nil {
		return nil, err
	}
	return s.extractor.Extract(markup), nil
}
