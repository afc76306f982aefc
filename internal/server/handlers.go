package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/hyperifyio/lmsquiz/internal/fetch"
	"github.com/hyperifyio/lmsquiz/internal/lms"
	"github.com/hyperifyio/lmsquiz/internal/quiz"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	sessionIDKey
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	BaseURL  string `json:"base_url,omitempty"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type extractRequest struct {
	URL  string `json:"url,omitempty"`
	HTML string `json:"html,omitempty"`
}

type extractResponse struct {
	URL       string        `json:"url,omitempty"`
	Count     int           `json:"count"`
	Questions []quiz.Record `json:"questions"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.len()})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	base := s.cfg.BaseURL
	if req.BaseURL != "" {
		if !s.cfg.AllowBaseURLOverride {
			writeError(w, http.StatusBadRequest, "base_url override is disabled")
			return
		}
		base = req.BaseURL
	}
	sess, err := lms.NewSession(lms.Credentials{Username: req.Username, Password: req.Password, BaseURL: base}, s.cfg.Session)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := sess.Login(r.Context()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("user", req.Username).Msg("login failed")
		switch {
		case errors.Is(err, lms.ErrLoginRejected), errors.Is(err, lms.ErrNoLoginToken):
			writeError(w, http.StatusUnauthorized, "login failed")
		default:
			writeFetchError(w, err)
		}
		return
	}
	expires := time.Now().Add(s.cfg.SessionTTL)
	sid := s.sessions.put(sess, expires)
	token, exp, err := s.tokens.Issue(sid)
	if err != nil {
		s.sessions.remove(sid)
		writeError(w, http.StatusInternalServerError, "issue token")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: exp.UTC()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sid, _ := r.Context().Value(sessionIDKey).(string)
	s.sessions.remove(sid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "url must be an absolute http(s) URL")
		return
	}
	sess := r.Context().Value(sessionKey).(*lms.Session)
	recs, err := sess.Extract(r.Context(), u.String())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("target", u.String()).Msg("extract failed")
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{URL: u.String(), Count: len(recs), Questions: recs})
}

func (s *Server) handleExtractHTML(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.HTML) == "" {
		writeError(w, http.StatusBadRequest, "html is required")
		return
	}
	recs := s.extractor.Extract(req.HTML)
	writeJSON(w, http.StatusOK, extractResponse{Count: len(recs), Questions: recs})
}

func writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lms.ErrNotLoggedIn):
		writeError(w, http.StatusUnauthorized, "lms session expired")
	case fetch.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "lms timed out")
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// requireSession resolves the bearer token to a live LMS session.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if !strings.HasPrefix(h, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "missing bearer")
			return
		}
		claims, err := s.tokens.Parse(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "bad token")
			return
		}
		sess, ok := s.sessions.get(claims.SID)
		if !ok {
			writeError(w, http.StatusUnauthorized, "session expired")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = context.WithValue(ctx, sessionIDKey, claims.SID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
