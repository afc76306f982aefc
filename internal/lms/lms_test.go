package lms

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/lmsquiz/internal/fetch"
	"github.com/hyperifyio/lmsquiz/internal/quiz"
)

const reviewHTML = `<html><body>
<div class="que multichoice">
  <div class="formulation">
    <div class="qtext">Which planet is largest?</div>
    <div class="answer">
      <input type="radio" name="q1" id="a"><label for="a">a. Jupiter</label>
      <input type="radio" name="q1" id="b"><label for="b">b. Mars</label>
    </div>
  </div>
</div>
</body></html>`

// fakeLMS serves a login form, accepts alice/secret and guards /mod/quiz/review.php
// behind a session cookie.
func fakeLMS(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var posted []string
	mux := http.NewServeMux()
	mux.HandleFunc("/login/index.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodPost {
			_ = r.ParseForm()
			posted = append(posted, r.PostForm.Get("logintoken"), r.PostForm.Get("anchor"))
			if r.PostForm.Get("logintoken") == "tok123" &&
				r.PostForm.Get("username") == "alice" && r.PostForm.Get("password") == "secret" {
				http.SetCookie(w, &http.Cookie{Name: "MoodleSession", Value: "s1", Path: "/"})
				http.Redirect(w, r, "/my/", http.StatusSeeOther)
				return
			}
			_, _ = io.WriteString(w, `<form><input type="hidden" name="logintoken" value="tok123"></form>`)
			return
		}
		_, _ = io.WriteString(w, `<form><input type="hidden" name="logintoken" value="tok123"></form>`)
	})
	mux.HandleFunc("/my/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<h1>Dashboard</h1>")
	})
	mux.HandleFunc("/mod/quiz/review.php", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("MoodleSession"); err != nil || c.Value != "s1" {
			http.Redirect(w, r, "/login/index.php", http.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, reviewHTML)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &posted
}

func newTestSession(t *testing.T, base, user, pass string) *Session {
	t.Helper()
	s, err := NewSession(Credentials{Username: user, Password: pass, BaseURL: base}, Options{
		Extraction: quiz.Options{Quiet: true},
	})
	require.NoError(t, err)
	return s
}

func TestLogin_AndExtract(t *testing.T) {
	srv, posted := fakeLMS(t)
	s := newTestSession(t, srv.URL+"/", "alice", "secret")
	assert.Equal(t, srv.URL, s.BaseURL())

	ctx := context.Background()
	require.NoError(t, s.Login(ctx))
	assert.Equal(t, []string{"tok123", ""}, *posted)

	recs, err := s.Extract(ctx, srv.URL+"/mod/quiz/review.php?attempt=7")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, quiz.TypeMultipleChoice, recs[0].Type)
	assert.Equal(t, []string{"Jupiter", "Mars"}, recs[0].Choices)
}

func TestLogin_Rejected(t *testing.T) {
	srv, _ := fakeLMS(t)
	s := newTestSession(t, srv.URL, "alice", "wrong")
	err := s.Login(context.Background())
	assert.ErrorIs(t, err, ErrLoginRejected)
}

func TestFetchPage_RequiresLogin(t *testing.T) {
	srv, _ := fakeLMS(t)
	s := newTestSession(t, srv.URL, "alice", "secret")
	_, err := s.FetchPage(context.Background(), srv.URL+"/mod/quiz/review.php")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestFetchPage_StatusError(t *testing.T) {
	srv, _ := fakeLMS(t)
	s := newTestSession(t, srv.URL, "alice", "secret")
	_, err := s.FetchPage(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.True(t, fetch.IsStatus(err))
}

func TestLoginToken_Missing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<form></form>")
	}))
	defer srv.Close()

	s := newTestSession(t, srv.URL, "alice", "secret")
	_, err := s.LoginToken(context.Background())
	assert.True(t, errors.Is(err, ErrNoLoginToken))
	assert.ErrorIs(t, s.Login(context.Background()), ErrNoLoginToken)
}

func TestParseLoginToken(t *testing.T) {
	cases := []struct {
		name   string
		markup string
		want   string
	}{
		{"form input", `<input type="hidden" name="logintoken" value="abc">`, "abc"},
		{"value before name", `<input value="xyz" name="logintoken" type="hidden">`, "xyz"},
		{"regex only", `<script>var f = 'name="logintoken" value="fromscript"';</script>`, "fromscript"},
		{"none", `<input name="other" value="v">`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseLoginToken(tc.markup))
		})
	}
}

func TestLoginSucceeded(t *testing.T) {
	assert.True(t, loginSucceeded("https://lms.example.com/my/"))
	assert.True(t, loginSucceeded("https://lms.example.com/login/dashboard"))
	assert.False(t, loginSucceeded("https://lms.example.com/LOGIN/index.php"))
}

func TestNewSession_Defaults(t *testing.T) {
	s, err := NewSession(Credentials{Username: "u"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, s.BaseURL())
	assert.Equal(t, DefaultBaseURL+"/login/index.php", s.loginURL())

	_, err = NewSession(Credentials{BaseURL: "ftp://example.com"}, Options{})
	assert.Error(t, err)
}
