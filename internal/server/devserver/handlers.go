package devserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/users"
)

const refreshCookiePath = "/api/auth"

// userView is the identity payload; it never carries credential material.
type userView struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

func viewOf(u *users.User) userView {
	return userView{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// setCredentialCookies stores the pair as HTTP-only cookies. The access
// cookie lives as long as the refresh one so an expired access credential
// still reaches the server and is reported as expired instead of missing.
func (s *Server) setCredentialCookies(w http.ResponseWriter, tokens *users.TokenPair) {
	maxAge := int(s.refreshTTL.Seconds())
	http.SetCookie(w, &http.Cookie{
		Name:     common.AccessTokenCookieName,
		Value:    tokens.AccessToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	if tokens.RefreshToken == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    tokens.RefreshToken,
		Path:     refreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearCredentialCookies(w http.ResponseWriter) {
	for name, path := range map[string]string{
		common.AccessTokenCookieName:  "/",
		common.RefreshTokenCookieName: refreshCookiePath,
	} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: path, MaxAge: -1, HttpOnly: true})
	}
}

// requireUser resolves the caller from the access cookie. An expired
// credential is answered with the configured expired status, which the
// client treats as the signal to refresh.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (*users.User, bool) {
	c, err := r.Cookie(common.AccessTokenCookieName)
	if err != nil || c.Value == "" {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}

	u, err := s.users.Authenticate(r.Context(), c.Value)
	switch {
	case err == nil:
		return u, true
	case errors.Is(err, common.ErrTokenExpired):
		writeError(w, s.expiredStatus, common.ErrTokenExpired.Error())
	case errors.Is(err, common.ErrorInternal):
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	}
	return nil, false
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, "ok", nil)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, tokens, err := s.users.Login(r.Context(), req.Email, []byte(req.Password))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Info(r.Context(), "sign-in rejected", "request_id", requestIDFromContext(r.Context()))
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}

	s.setCredentialCookies(w, tokens)
	writeOK(w, "signed in", viewOf(u))
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(common.RefreshTokenCookieName); err == nil && c.Value != "" {
		if err := s.users.Logout(r.Context(), c.Value); err != nil {
			s.logger.Warn(r.Context(), "revoke refresh credential", "error", err)
		}
	}
	clearCredentialCookies(w)
	writeOK(w, "signed out", nil)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(common.RefreshTokenCookieName)
	if err != nil || c.Value == "" {
		writeError(w, http.StatusUnauthorized, "refresh token required")
		return
	}

	_, tokens, err := s.users.Refresh(r.Context(), c.Value)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, common.ErrRefreshTokenExpired.Error())
		return
	case errors.Is(err, common.ErrorInternal):
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	default:
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	s.setCredentialCookies(w, tokens)
	writeOK(w, "token refreshed", nil)
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	writeOK(w, "", viewOf(u))
}

func (s *Server) handleRequestOTP(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" {
		writeError(w, http.StatusBadRequest, "current password is required")
		return
	}
	if !s.users.CheckPassword(u, []byte(req.CurrentPassword)) {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if !s.codes.Allow(u.ID) {
		writeError(w, http.StatusTooManyRequests, common.ErrTooManyRequests.Error())
		return
	}

	code, err := s.codes.Issue(u.ID, u.Email)
	if err != nil {
		s.logger.Error(r.Context(), "issue verification code", "error", err)
		writeError(w, http.StatusInternalServerError, "could not issue verification code")
		return
	}
	if err := s.mailer.Deliver(r.Context(), u.Email, code); err != nil {
		s.logger.Error(r.Context(), "deliver verification code", "error", err)
		writeError(w, http.StatusInternalServerError, "could not deliver verification code")
		return
	}

	writeOK(w, "verification code sent", nil)
}

// handleCommitPassword checks all three values in one request. The strength
// check runs before the code check so a weak password does not burn the code.
func (s *Server) handleCommitPassword(w http.ResponseWriter, r *http.Request) {
	u, ok := s.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
		OTP             string `json:"otp"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "current password, new password and verification code are required")
		return
	}
	if !s.users.CheckPassword(u, []byte(req.CurrentPassword)) {
		writeError(w, http.StatusBadRequest, "current password is incorrect")
		return
	}
	if req.NewPassword == req.CurrentPassword {
		writeError(w, http.StatusBadRequest, "new password must differ from the current one")
		return
	}
	if s.scorer.Score(req.NewPassword, u.Email, u.Name).Score < s.minScore {
		writeError(w, http.StatusBadRequest, common.ErrWeakPassword.Error())
		return
	}
	if !s.codes.Verify(u.ID, req.OTP) {
		writeError(w, http.StatusBadRequest, common.ErrInvalidOTP.Error())
		return
	}

	_, tokens, err := s.users.ChangePassword(r.Context(), u.ID, []byte(req.NewPassword))
	if err != nil {
		s.logger.Error(r.Context(), "change password", "error", err)
		writeError(w, http.StatusInternalServerError, "could not update password")
		return
	}

	s.logger.Info(r.Context(), "password rotated", "user_id", u.ID, "request_id", requestIDFromContext(r.Context()))
	s.setCredentialCookies(w, tokens)
	writeOK(w, "password updated", nil)
}
