package httpserver

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"chatTracker/internal/auth"
	"chatTracker/internal/tracker"
	"chatTracker/models"
	"chatTracker/repository"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Result is the outcome of an account action, rendered as JSON. Redirect tells
// browser clients where to go next.
type Result struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
	Token    string `json:"token,omitempty"`
	Role     string `json:"role,omitempty"`
}

type Handler struct {
	svc    *tracker.Service
	tokens *repository.TokenRepository
	db     *sql.DB
	secret string
	ttl    time.Duration
}

func NewHandler(d *sql.DB, svc *tracker.Service, tokens *repository.TokenRepository, secret string, ttl time.Duration) *Handler {
	return &Handler{svc: svc, tokens: tokens, db: d, secret: secret, ttl: ttl}
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "login.html", "Login")
}

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "signup.html", "Sign up")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, map[string]string{"Title": title}); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("render page")
	}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// readCredentials accepts a JSON body or a urlencoded/multipart form.
func readCredentials(r *http.Request) (credentials, error) {
	var c credentials
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		err := json.NewDecoder(r.Body).Decode(&c)
		return c, err
	}
	if err := r.ParseForm(); err != nil {
		return c, err
	}
	c.Username = r.PostFormValue("username")
	c.Email = r.PostFormValue("email")
	c.Password = r.PostFormValue("password")
	return c, nil
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, err := h.svc.Signup(r.Context(), c.Username, c.Email, c.Password)
	switch {
	case errors.Is(err, tracker.ErrConflict):
		writeJSON(w, http.StatusConflict, Result{Message: "Username or Email already exists!", Redirect: "/signup"})
		return
	case errors.Is(err, tracker.ErrInvalidAccount):
		writeJSON(w, http.StatusBadRequest, Result{Message: err.Error(), Redirect: "/signup"})
		return
	case err != nil:
		h.internalError(w, r, err, "signup")
		return
	}
	token, err := h.issue(w, &u.User)
	if err != nil {
		h.internalError(w, r, err, "issue token")
		return
	}
	writeJSON(w, http.StatusCreated, Result{Message: "Account Created!", Redirect: "/chats", Token: token, Role: string(u.Role)})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u, err := h.svc.Authenticate(r.Context(), c.Username, c.Password)
	if errors.Is(err, tracker.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, Result{Message: "Invalid Username or Password", Redirect: "/login"})
		return
	}
	if err != nil {
		h.internalError(w, r, err, "login")
		return
	}
	token, err := h.issue(w, u)
	if err != nil {
		h.internalError(w, r, err, "issue token")
		return
	}
	redirect := "/chats"
	if u.IsAdmin() {
		redirect = "/admin"
	}
	writeJSON(w, http.StatusOK, Result{Message: "Logged In Successfully", Redirect: redirect, Token: token, Role: string(u.Role)})
}

// issue signs a token for u and stores it in the session cookie.
func (h *Handler) issue(w http.ResponseWriter, u *models.User) (string, error) {
	token, p, err := auth.Issue(h.secret, u, h.ttl)
	if err != nil {
		return "", err
	}
	auth.SetCookie(w, token, p.ExpiresAt)
	return token, nil
}

// Logout revokes the presented token, if any is valid, and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if raw, err := auth.TokenFromRequest(r); err == nil {
		if p, err := auth.Parse(raw, h.secret); err == nil {
			if err := h.tokens.Revoke(r.Context(), p.TokenID, p.ExpiresAt); err != nil {
				h.internalError(w, r, err, "revoke token")
				return
			}
		}
	}
	auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, Result{Message: "Logged Out", Redirect: "/login"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type opsKey struct{}

// currentUser reloads the caller so a deleted account or changed role takes effect immediately.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return nil, false
	}
	u, err := h.svc.UserByID(r.Context(), p.UserID)
	if err != nil {
		h.internalError(w, r, err, "load user")
		return nil, false
	}
	if u == nil {
		writeError(w, http.StatusUnauthorized, "user not found")
		return nil, false
	}
	return u, true
}

func (h *Handler) requireRegular(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		ops, err := h.svc.AsRegular(u)
		if err != nil {
			writeError(w, http.StatusForbidden, "only regular users can manage chats")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), opsKey{}, ops)))
	})
}

func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := h.currentUser(w, r)
		if !ok {
			return
		}
		ops, err := h.svc.AsAdmin(u)
		if err != nil {
			writeError(w, http.StatusForbidden, "only admins can search")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), opsKey{}, ops)))
	})
}

func regularOps(r *http.Request) *tracker.RegularUserOps {
	ops, _ := r.Context().Value(opsKey{}).(*tracker.RegularUserOps)
	return ops
}

func adminOps(r *http.Request) *tracker.AdminOps {
	ops, _ := r.Context().Value(opsKey{}).(*tracker.AdminOps)
	return ops
}

func chatIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	return id, err == nil && id > 0
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error, op string) {
	hlog.FromRequest(r).Error().Err(err).Str("op", op).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(msg)})
}
