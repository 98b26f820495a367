package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/vidstream/backend/internal/models"
)

// Cookie names under which the token pair travels. Both cookies are
// http-only so scripts can never read them.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// maxUploadBytes bounds the multipart form we are willing to buffer.
const maxUploadBytes = 32 << 20

// Handler holds the auth HTTP handlers.
type Handler struct {
	service      *Service
	cookieSecure bool
	accessTTL    time.Duration
	refreshTTL   time.Duration
}

func NewHandler(service *Service, cookieSecure bool, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{service: service, cookieSecure: cookieSecure, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Register creates a new user from a multipart form: text fields plus an
// avatar file (required) and a coverImage file (optional).
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, `{"error":"invalid multipart form"}`, http.StatusBadRequest)
		return
	}

	in := RegisterInput{
		FullName: r.FormValue("full_name"),
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	avatar, closeAvatar, err := formAsset(r, "avatar")
	if err == nil {
		defer closeAvatar()
		in.Avatar = avatar
	}
	cover, closeCover, err := formAsset(r, "coverImage")
	if err == nil {
		defer closeCover()
		in.CoverImage = cover
	}

	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login authenticates a user, sets the token cookies, and returns the user
// together with the token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	user, pair, err := h.service.Login(r.Context(), LoginInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		// A missing account and a wrong password look identical to the
		// caller, so login responses cannot be used to enumerate accounts.
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	})
}

// Refresh rotates the refresh token. The presented token comes from the
// refresh_token cookie or, failing that, the JSON body.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req models.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, err := h.service.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setTokenCookies(w, pair)
	writeJSON(w, http.StatusOK, pair)
}

// Logout clears the stored refresh token and expires both cookies.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), userID(r)); err != nil {
		writeError(w, err)
		return
	}
	h.clearTokenCookies(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword swaps the caller's password after verifying the old one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID(r), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateAccount changes the caller's full name and email.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	user, err := h.service.UpdateAccount(r.Context(), userID(r), req.FullName, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateAvatar replaces the caller's avatar with the uploaded file.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", h.service.UpdateAvatar)
}

// UpdateCoverImage replaces the caller's cover image with the uploaded file.
func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", h.service.UpdateCoverImage)
}

func (h *Handler) updateImage(w http.ResponseWriter, r *http.Request, field string,
	update func(ctx context.Context, userID string, a *Asset) (*models.User, error)) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, `{"error":"invalid multipart form"}`, http.StatusBadRequest)
		return
	}

	var asset *Asset
	if a, closeFile, err := formAsset(r, field); err == nil {
		defer closeFile()
		asset = a
	}

	user, err := update(r.Context(), userID(r), asset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// userID pulls the authenticated user's id set by the auth middleware.
func userID(r *http.Request) string {
	id, _ := r.Context().Value("user_id").(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUpload):
		status = http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		// The wrapped detail names subsystems and hosts; it belongs in the
		// server log, not the response body.
		log.Printf("internal error: %v", err)
		msg = ErrInternal.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// formAsset pulls one uploaded file out of the parsed multipart form.
func formAsset(r *http.Request, field string) (*Asset, func(), error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	asset := &Asset{
		Reader:      file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}
	return asset, func() { file.Close() }, nil
}

func (h *Handler) setTokenCookies(w http.ResponseWriter, pair TokenPair) {
	http.SetCookie(w, h.tokenCookie(AccessTokenCookie, pair.AccessToken, h.accessTTL))
	http.SetCookie(w, h.tokenCookie(RefreshTokenCookie, pair.RefreshToken, h.refreshTTL))
}

func (h *Handler) clearTokenCookies(w http.ResponseWriter) {
	http.SetCookie(w, h.tokenCookie(AccessTokenCookie, "", -time.Second))
	http.SetCookie(w, h.tokenCookie(RefreshTokenCookie, "", -time.Second))
}

func (h *Handler) tokenCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl / time.Second),
	}
}
