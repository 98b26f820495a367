package auth

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/vidstream/backend/internal/models"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateRefreshToken swaps the stored refresh token. When expected is
	// non-nil the update applies only if the stored value still equals
	// *expected, and the return value reports whether a row changed. A nil
	// expected overwrites unconditionally. An empty next clears the token.
	UpdateRefreshToken(ctx context.Context, id string, expected *string, next string) (bool, error)

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, id, avatarURL string) (*models.User, error)
	UpdateCoverImage(ctx context.Context, id, coverImageURL string) (*models.User, error)
}

// Asset is a file resolved from the request before the service is invoked.
type Asset struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

// ObjectStore persists uploaded assets and hands back a public URL.
type ObjectStore interface {
	Upload(ctx context.Context, a *Asset) (string, error)
}

// ProfileCache caches sanitized user records. Implementations must treat
// all failures as misses; the service never fails an operation over the
// cache.
type ProfileCache interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Set(ctx context.Context, u *models.User) error
	Invalidate(ctx context.Context, id string) error
}

// Service implements the session lifecycle: registration, login, token
// refresh with rotation, logout, password change, and profile updates.
type Service struct {
	users   UserStore
	objects ObjectStore
	cache   ProfileCache
	hasher  *Hasher
	issuer  *TokenIssuer
}

func NewService(users UserStore, objects ObjectStore, cache ProfileCache, hasher *Hasher, issuer *TokenIssuer) *Service {
	return &Service{users: users, objects: objects, cache: cache, hasher: hasher, issuer: issuer}
}

// RegisterInput carries the validated fields for a new account. Avatar is
// mandatory; CoverImage may be nil.
type RegisterInput struct {
	FullName   string
	Username   string
	Email      string
	Password   string
	Avatar     *Asset
	CoverImage *Asset
}

// Register creates a new user. The username is lowercased before the
// duplicate check and before storage. The avatar upload must succeed; a
// failed cover image upload just leaves the account without one.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.TrimSpace(in.Email)
	if in.FullName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}
	if in.Avatar == nil {
		return nil, fmt.Errorf("%w: avatar image is required", ErrValidation)
	}

	existing, err := s.users.GetByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: check existing user: %v", ErrInternal, err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email or username taken", ErrConflict)
	}

	avatarURL, err := s.objects.Upload(ctx, in.Avatar)
	if err != nil || avatarURL == "" {
		return nil, fmt.Errorf("%w: avatar", ErrUpload)
	}

	var coverURL string
	if in.CoverImage != nil {
		// Best effort: a cover image is optional, so a failed upload
		// degrades to no cover image.
		coverURL, _ = s.objects.Upload(ctx, in.CoverImage)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}

	created, err := s.users.CreateUser(ctx, &models.User{
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		Password:      hash,
	})
	if err != nil {
		return nil, err
	}

	// Re-read to catch a write that silently failed.
	fresh, err := s.users.GetByID(ctx, created.ID)
	if err != nil || fresh == nil {
		return nil, fmt.Errorf("%w: user not found after create", ErrInternal)
	}
	return fresh.Sanitize(), nil
}

// LoginInput identifies the account by username or email.
type LoginInput struct {
	Username string
	Email    string
	Password string
}

// Login verifies credentials and mints a token pair. The new refresh token
// overwrites whatever was stored, so a login on a second device invalidates
// the first device's refresh token.
func (s *Service) Login(ctx context.Context, in LoginInput) (*models.User, TokenPair, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.TrimSpace(in.Email)
	if (in.Username == "" && in.Email == "") || in.Password == "" {
		return nil, TokenPair{}, fmt.Errorf("%w: username or email and password are required", ErrValidation)
	}

	user, err := s.users.GetByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: find user: %v", ErrInternal, err)
	}
	if user == nil {
		return nil, TokenPair{}, ErrNotFound
	}
	if !s.hasher.Check(in.Password, user.Password) {
		return nil, TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: issue tokens: %v", ErrInternal, err)
	}
	if _, err := s.users.UpdateRefreshToken(ctx, user.ID, nil, pair.RefreshToken); err != nil {
		return nil, TokenPair{}, fmt.Errorf("%w: store refresh token: %v", ErrInternal, err)
	}
	return user.Sanitize(), pair, nil
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// stored token. The presented token must be the exact one on record; a
// superseded token fails even before its own expiry. The swap is
// conditional on the stored value, so two refreshes racing on the same
// token produce exactly one winner.
func (s *Service) Refresh(ctx context.Context, presented string) (TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return TokenPair{}, fmt.Errorf("%w: refresh token is required", ErrValidation)
	}

	userID, err := s.issuer.VerifyRefreshToken(presented)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: load user: %v", ErrInternal, err)
	}
	if user == nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if user.RefreshToken != presented {
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: issue tokens: %v", ErrInternal, err)
	}
	swapped, err := s.users.UpdateRefreshToken(ctx, user.ID, &presented, pair.RefreshToken)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: rotate refresh token: %v", ErrInternal, err)
	}
	if !swapped {
		// Someone else rotated or revoked the token between our read and
		// the swap. The presented token is no longer current.
		return TokenPair{}, ErrInvalidCredentials
	}
	return pair, nil
}

// Logout clears the stored refresh token, making every previously issued
// refresh token for the user unusable immediately.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if _, err := s.users.UpdateRefreshToken(ctx, userID, nil, ""); err != nil {
		return fmt.Errorf("%w: clear refresh token: %v", ErrInternal, err)
	}
	return nil
}

// ChangePassword swaps the password hash after verifying the old password.
// The stored refresh token is left untouched, so the current session stays
// signed in.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: old and new passwords are required", ErrValidation)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("%w: load user: %v", ErrInternal, err)
	}
	if user == nil {
		return ErrNotFound
	}
	if !s.hasher.Check(oldPassword, user.Password) {
		return ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", ErrInternal, err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("%w: update password: %v", ErrInternal, err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// CurrentUser returns the sanitized record for an already-authenticated
// identity, preferring the cache.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*models.User, error) {
	if s.cache != nil {
		if u, err := s.cache.Get(ctx, userID); err == nil && u != nil {
			return u, nil
		}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: load user: %v", ErrInternal, err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	sanitized := user.Sanitize()
	if s.cache != nil {
		_ = s.cache.Set(ctx, sanitized)
	}
	return sanitized, nil
}

// UpdateAccount changes the full name and email.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, fmt.Errorf("%w: full name and email are required", ErrValidation)
	}
	user, err := s.users.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	s.invalidate(ctx, userID)
	return user.Sanitize(), nil
}

// UpdateAvatar uploads a replacement avatar and stores its URL.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, avatar *Asset) (*models.User, error) {
	return s.updateImage(ctx, userID, avatar, s.users.UpdateAvatar)
}

// UpdateCoverImage uploads a replacement cover image and stores its URL.
func (s *Service) UpdateCoverImage(ctx context.Context, userID string, cover *Asset) (*models.User, error) {
	return s.updateImage(ctx, userID, cover, s.users.UpdateCoverImage)
}

func (s *Service) updateImage(ctx context.Context, userID string, a *Asset,
	update func(context.Context, string, string) (*models.User, error)) (*models.User, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: image file is required", ErrValidation)
	}
	url, err := s.objects.Upload(ctx, a)
	if err != nil || url == "" {
		return nil, ErrUpload
	}
	user, err := update(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	s.invalidate(ctx, userID)
	return user.Sanitize(), nil
}

func (s *Service) invalidate(ctx context.Context, userID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, userID)
	}
}
