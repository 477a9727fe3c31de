// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"siteflags/internal/middleware"
	"siteflags/internal/models"
	"siteflags/internal/render"
	"siteflags/internal/session"
	"siteflags/internal/store"
)

// TOTPIssuer is the issuer shown in authenticator apps.
const TOTPIssuer = "Site Flags"

// homePath is where a fully authenticated user lands.
const homePath = "/admin/sites"

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	renderer *render.Renderer
	sessions *session.Store
	users    UserStore
}

// NewAuth creates a new Auth handler group.
func NewAuth(renderer *render.Renderer, sessions *session.Store, users UserStore) *Auth {
	return &Auth{
		renderer: renderer,
		sessions: sessions,
		users:    users,
	}
}

// LoginPage renders the login form.
func (a *Auth) LoginPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess != nil && sess.TwoFADone {
		http.Redirect(w, r, homePath, http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
	})
}

// LoginSubmit processes the login form.
func (a *Auth) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	user, err := a.users.FindByEmail(r.Context(), email)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		a.loginError(w, r, "An unexpected error occurred.")
		return
	}
	if user == nil || !store.CheckPassword(user, password) {
		a.loginError(w, r, "Invalid email or password.")
		return
	}

	// TwoFADone stays false until a TOTP code is verified.
	_, err = a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	})
	if err != nil {
		slog.Error("session create failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("login", "user_id", user.ID, "role", user.Role)
	if user.Needs2FASetup() {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/admin/2fa/verify", http.StatusSeeOther)
}

func (a *Auth) loginError(w http.ResponseWriter, r *http.Request, msg string) {
	a.renderer.Page(w, r, "login", &render.PageData{
		Title: "Sign In",
		Data:  map[string]any{"Error": msg},
	})
}

// TwoFASetupPage generates a TOTP secret and displays the QR code.
func (a *Auth) TwoFASetupPage(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: sess.Email,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if err := a.users.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	a.setupPage(w, r, key, "")
}

// setupPage renders the enrollment page for key with an optional error.
func (a *Auth) setupPage(w http.ResponseWriter, r *http.Request, key *otp.Key, errMsg string) {
	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"QRCode": base64.StdEncoding.EncodeToString(qrPNG),
		"Secret": key.Secret(),
	}
	if errMsg != "" {
		data["Error"] = errMsg
	}
	a.renderer.Page(w, r, "2fa_setup", &render.PageData{
		Title: "Set Up Two-Factor Authentication",
		Data:  data,
	})
}

// TwoFAVerifyPage renders the code entry form for enrolled users.
func (a *Auth) TwoFAVerifyPage(w http.ResponseWriter, r *http.Request) {
	if middleware.SessionFromCtx(r.Context()) == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	a.renderer.Page(w, r, "2fa_verify", &render.PageData{
		Title: "Two-Factor Authentication",
	})
}

// TwoFAVerifySubmit validates the TOTP code and completes authentication.
func (a *Auth) TwoFAVerifySubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	user, err := a.users.FindByID(r.Context(), sess.UserID)
	if err != nil || user == nil {
		slog.Error("user lookup for 2fa failed", "user_id", sess.UserID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if user.TOTPSecret == nil {
		http.Redirect(w, r, "/admin/2fa/setup", http.StatusSeeOther)
		return
	}

	code := strings.TrimSpace(r.FormValue("code"))
	if !totp.Validate(code, *user.TOTPSecret) {
		a.invalidCode(w, r, user)
		return
	}

	if !user.TOTPEnabled {
		if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
			slog.Error("enable totp failed", "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	sess.TwoFADone = true
	if err := a.sessions.Update(r.Context(), r, sess); err != nil {
		slog.Error("session update failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, homePath, http.StatusSeeOther)
}

// invalidCode re-renders the page the code was submitted from.
func (a *Auth) invalidCode(w http.ResponseWriter, r *http.Request, user *models.User) {
	const msg = "Invalid code. Please try again."

	if user.TOTPEnabled {
		a.renderer.Page(w, r, "2fa_verify", &render.PageData{
			Title: "Two-Factor Authentication",
			Data:  map[string]any{"Error": msg},
		})
		return
	}

	key, err := otp.NewKeyFromURL(totpURL(user.Email, *user.TOTPSecret))
	if err != nil {
		slog.Error("rebuild totp key failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	a.setupPage(w, r, key, msg)
}

// totpURL builds the otpauth URL of an existing secret.
func totpURL(account, secret string) string {
	q := url.Values{}
	q.Set("secret", secret)
	q.Set("issuer", TOTPIssuer)
	return "otpauth://totp/" + url.PathEscape(TOTPIssuer+":"+account) + "?" + q.Encode()
}

// Logout destroys the session and redirects to the login page.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
