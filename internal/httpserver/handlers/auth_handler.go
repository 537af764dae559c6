package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"gatekeeper/internal/account"
	"gatekeeper/internal/auth"
	"gatekeeper/internal/models"
)

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type signupReq struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type sessionResp struct {
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

func startSession(w http.ResponseWriter, codec *auth.Codec, sess account.Session, code int) {
	codec.SetCookie(w, sess.Token)
	respondStatus(w, code, sessionResp{User: sess.User, ExpiresAt: sess.Claims.ExpiresAt})
}

func Login(svc *account.Service, codec *auth.Codec, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := decode(r, &req); err != nil {
			// malformed credentials are reported like wrong ones
			http.Error(w, "invalid email or password", http.StatusUnauthorized)
			return
		}
		sess, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		startSession(w, codec, sess, http.StatusOK)
	}
}

func Signup(svc *account.Service, codec *auth.Codec, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupReq
		if err := decode(r, &req); err != nil {
			badRequest(w, err)
			return
		}
		sess, err := svc.Signup(r.Context(), req.Email, req.Name, req.Password)
		if err != nil {
			respondError(w, lg, err)
			return
		}
		startSession(w, codec, sess, http.StatusCreated)
	}
}

// Logout revokes the current session and clears the cookie. It succeeds
// without a session too.
func Logout(svc *account.Service, codec *auth.Codec, lg *zap.SugaredLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, err := codec.Verify(auth.TokenFromRequest(r)); err == nil {
			if err := svc.Logout(r.Context(), claims); err != nil {
				lg.Warnw("revoke session failed", "user", claims.ID, "error", err)
			}
		}
		codec.Revoke(w)
		respondJSON(w, map[string]any{"ok": true})
	}
}
