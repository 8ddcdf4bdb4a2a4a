package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberguess/internal/session"
)

const sessionCookieTTL = 7 * 24 * time.Hour

// ctxSessionKey is the context key type for the request's controller.
type ctxSessionKey struct{}

// withSession resolves the session cookie to a live controller, creating a
// fresh session (and cookie) when the cookie is missing, invalid or expired
// server-side.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctrl := s.lookupSession(r)
		if ctrl == nil {
			var err error
			ctrl, err = s.sessions.Create(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("create session")
				http.Error(w, `{"error":"session_unavailable"}`, http.StatusServiceUnavailable)
				return
			}
			tok, exp, err := s.signSession(ctrl.ID())
			if err != nil {
				log.Error().Err(err).Msg("sign session")
				http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
				return
			}
			s.setSessionCookie(w, tok, exp)
		}
		ctx := context.WithValue(r.Context(), ctxSessionKey{}, ctrl)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the controller installed by withSession.
func sessionFrom(r *http.Request) *session.Controller {
	ctrl, _ := r.Context().Value(ctxSessionKey{}).(*session.Controller)
	return ctrl
}

// lookupSession returns the live controller named by the cookie, or nil.
func (s *Server) lookupSession(r *http.Request) *session.Controller {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	id, err := s.parseSession(c.Value)
	if err != nil {
		log.Debug().Err(err).Msg("ignoring session cookie")
		return nil
	}
	ctrl, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	return ctrl
}

// signSession creates an HS256 JWT carrying the session ID.
func (s *Server) signSession(id string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(sessionCookieTTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": id,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	})
	ss, err := t.SignedString([]byte(s.cfg.SessionSecret))
	return ss, exp, err
}

// parseSession verifies a session token and returns its session ID.
func (s *Server) parseSession(tok string) (string, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SessionSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !t.Valid {
		return "", errors.New("invalid session token")
	}
	id, _ := claims["sid"].(string)
	if id == "" {
		return "", errors.New("session token missing sid")
	}
	return id, nil
}

// setSessionCookie writes the session cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	secure := s.cfg.Production()
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
	})
}
