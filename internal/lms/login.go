package lms

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// tokenPatterns are tried in order when the login form cannot be parsed.
var tokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`name="logintoken"\s+value="([^"]+)"`),
	regexp.MustCompile(`name="logintoken"\s*value="([^"]+)"`),
	regexp.MustCompile(`<input[^>]*name="logintoken"[^>]*value="([^"]+)"`),
}

// LoginToken reads the anti-forgery token from the login form.
func (s *Session) LoginToken(ctx context.Context) (string, error) {
	resp, err := s.auth.Get(ctx, s.loginURL())
	if err != nil {
		return "", fmt.Errorf("get login page: %w", err)
	}
	if tok := parseLoginToken(string(resp.Body)); tok != "" {
		return tok, nil
	}
	return "", ErrNoLoginToken
}

func parseLoginToken(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err == nil {
		if v, ok := doc.Find(`input[name="logintoken"]`).First().Attr("value"); ok && v != "" {
			return v
		}
	}
	for _, re := range tokenPatterns {
		if m := re.FindStringSubmatch(markup); m != nil {
			return m[1]
		}
	}
	return ""
}

// Login authenticates the session. Cookies set by the server are kept in the
// session's jar for later page fetches.
func (s *Session) Login(ctx context.Context) error {
	token, err := s.LoginToken(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to get login token")
		return err
	}
	form := url.Values{
		"anchor":     {""},
		"logintoken": {token},
		"username":   {s.creds.Username},
		"password":   {s.creds.Password},
	}
	resp, err := s.auth.PostForm(ctx, s.loginURL(), form)
	if err != nil {
		s.log.Error().Err(err).Msg("login request failed")
		return fmt.Errorf("post login: %w", err)
	}
	if !loginSucceeded(resp.FinalURL) {
		s.log.Warn().Str("user", s.creds.Username).Msg("login rejected")
		return ErrLoginRejected
	}
	s.log.Info().Str("user", s.creds.Username).Msg("logged in")
	return nil
}

// loginSucceeded: the LMS redirects away from the login form on success and
// re-renders it on failure.
func loginSucceeded(finalURL string) bool {
	u := strings.ToLower(finalURL)
	return !strings.Contains(u, "login") || strings.Contains(u, "dashboard")
}

func isLoginURL(u string) bool {
	return strings.Contains(strings.ToLower(u), loginPath)
}
