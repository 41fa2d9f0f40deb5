package memberauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// AuthErrorHandler can take over error rendering for a handler. Returning
// true means the response was written.
type AuthErrorHandler func(err *AuthError, w http.ResponseWriter, r *http.Request) bool

// LocalAuth exposes the credential manager over HTTP: login, logout,
// forgot/reset password, change password and add-local-password. These are
// plain http.Handlers meant to be mounted by the host application; see
// Router for a pre-wired gorilla/mux router.
type LocalAuth struct {
	// Credentials must be provided.
	Credentials *CredentialManager

	// ResolveLicense extracts the tenant scope from a request. Defaults to
	// the X-License header (empty license is a valid single-tenant setup).
	ResolveLicense func(r *http.Request) string

	// Optional email sender for reset links. Reset links are only mailed
	// when the supplied username is an email address.
	EmailSender SendEmail

	// Base URL for generating reset links.
	BaseURL string

	// How long generated reset tokens stay valid. Defaults to
	// TokenExpiryPasswordReset.
	ResetTokenExpiry time.Duration

	// Form field names
	UsernameField string
	PasswordField string

	// OnLoginError is called when login fails. If nil, returns JSON error.
	OnLoginError AuthErrorHandler
}

func (a *LocalAuth) getUsernameField() string {
	if a.UsernameField != "" {
		return a.UsernameField
	}
	return "username"
}

func (a *LocalAuth) getPasswordField() string {
	if a.PasswordField != "" {
		return a.PasswordField
	}
	return "password"
}

func (a *LocalAuth) license(r *http.Request) string {
	if a.ResolveLicense != nil {
		return a.ResolveLicense(r)
	}
	return r.Header.Get("X-License")
}

func (a *LocalAuth) resetTokenExpiry() time.Duration {
	if a.ResetTokenExpiry > 0 {
		return a.ResetTokenExpiry
	}
	return TokenExpiryPasswordReset
}

// ServeHTTP handles login requests
func (a *LocalAuth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if a.Credentials == nil {
		http.Error(w, `{"error": "Login not configured"}`, http.StatusInternalServerError)
		return
	}

	form, err := a.parseForm(r)
	if err != nil {
		a.handleLoginError(NewAuthError(ErrCodeMissingField, err.Error(), a.getUsernameField()), w, r)
		return
	}
	username := form[a.getUsernameField()]
	password := form[a.getPasswordField()]
	if username == "" || password == "" {
		a.handleLoginError(NewAuthError(ErrCodeMissingField, "username and password required", a.getUsernameField()), w, r)
		return
	}
	remember := form["remember"] == "true" || form["remember"] == "on"

	if !a.Credentials.Login(r.Context(), username, password, a.license(r), remember) {
		a.handleLoginError(NewAuthError(ErrCodeInvalidCreds, "Invalid credentials", a.getPasswordField()), w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"username": username,
	})
}

// HandleLogout revokes the current session. Always succeeds.
func (a *LocalAuth) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a.Credentials.Logout(r.Context())
	toUrl := r.URL.Query().Get("to")
	if toUrl == "" {
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	} else {
		http.Redirect(w, r, toUrl, http.StatusFound)
	}
}

// HandleForgotPassword issues a password reset token (POST). For security
// the response is the same whether or not the username exists.
func (a *LocalAuth) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	form, err := a.parseForm(r)
	if err != nil {
		http.Error(w, `{"error": "Invalid form data"}`, http.StatusBadRequest)
		return
	}
	username := form[a.getUsernameField()]
	if username == "" {
		http.Error(w, `{"error": "Username required"}`, http.StatusBadRequest)
		return
	}

	token, err := a.Credentials.GeneratePasswordResetToken(username, a.resetTokenExpiry(), a.license(r), false)
	if err != nil {
		if !IsAuthCode(err, ErrCodeInvalidUsername) {
			log.Printf("Error creating reset token: %v", err)
		}
		// Fall through and return success so callers cannot probe which
		// usernames exist.
	} else if a.EmailSender != nil && strings.Contains(username, "@") {
		resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s", a.BaseURL, token)
		if err := a.EmailSender.SendPasswordResetEmail(username, resetLink); err != nil {
			log.Printf("Error sending reset email: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "If that account exists, a reset link has been sent",
	})
}

// HandleResetPassword consumes a reset token and sets a new password (POST).
func (a *LocalAuth) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	form, err := a.parseForm(r)
	if err != nil {
		http.Error(w, `{"error": "Invalid form data"}`, http.StatusBadRequest)
		return
	}
	token := form["token"]
	password := form[a.getPasswordField()]
	if token == "" || password == "" {
		http.Error(w, `{"error": "Token and password required"}`, http.StatusBadRequest)
		return
	}

	if !a.Credentials.ResetPassword(token, password) {
		http.Error(w, `{"error": "Invalid or expired token"}`, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password reset successfully",
	})
}

// HandleChangePassword verifies the old password and installs a new one
// (POST).
func (a *LocalAuth) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	form, err := a.parseForm(r)
	if err != nil {
		http.Error(w, `{"error": "Invalid form data"}`, http.StatusBadRequest)
		return
	}
	username := form[a.getUsernameField()]
	oldPassword := form["old_password"]
	newPassword := form["new_password"]
	if username == "" || oldPassword == "" || newPassword == "" {
		http.Error(w, `{"error": "Username, old and new password required"}`, http.StatusBadRequest)
		return
	}

	if !a.Credentials.ChangePassword(username, oldPassword, newPassword, a.license(r)) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": "Invalid credentials",
			"code":  ErrCodeInvalidCreds,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleSetLocalPassword adds a password credential to an OAuth-only
// account (POST). Responds 409 when a local password already exists.
func (a *LocalAuth) HandleSetLocalPassword(w http.ResponseWriter, r *http.Request) {
	form, err := a.parseForm(r)
	if err != nil {
		http.Error(w, `{"error": "Invalid form data"}`, http.StatusBadRequest)
		return
	}
	username := form[a.getUsernameField()]
	password := form[a.getPasswordField()]
	if username == "" || password == "" {
		http.Error(w, `{"error": "Username and password required"}`, http.StatusBadRequest)
		return
	}

	if err := a.Credentials.SetLocalPassword(username, password, a.license(r)); err != nil {
		status := http.StatusBadRequest
		code := ErrCodePersistence
		var ae *AuthError
		if errors.As(err, &ae) {
			code = ae.Code
			if ae.Code == ErrCodeLocalPasswordExists {
				status = http.StatusConflict
			}
		}
		writeJSON(w, status, map[string]any{
			"error": err.Error(),
			"code":  code,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Password added successfully. You can now login with username and password.",
	})
}

// parseForm reads url-encoded or JSON bodies into a flat string map.
func (a *LocalAuth) parseForm(r *http.Request) (map[string]string, error) {
	out := map[string]string{}
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("error parsing form")
		}
		for k, vs := range r.Form {
			if len(vs) > 0 {
				out[k] = vs[0]
			}
		}
		return out, nil
	}

	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil || data == nil {
		return nil, fmt.Errorf("invalid post body")
	}
	for k, v := range data {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case bool:
			if tv {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
		}
	}
	return out, nil
}

// handleLoginError handles login errors using the configured handler or default JSON
func (a *LocalAuth) handleLoginError(err *AuthError, w http.ResponseWriter, r *http.Request) {
	if a.OnLoginError != nil && a.OnLoginError(err, w, r) {
		return
	}
	statusCode := http.StatusUnauthorized
	if err.Code == ErrCodeMissingField {
		statusCode = http.StatusBadRequest
	}
	writeJSON(w, statusCode, map[string]any{
		"error": err.Message,
		"code":  err.Code,
		"field": err.Field,
	})
}

func writeJSON(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
