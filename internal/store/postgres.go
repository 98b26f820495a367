package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidstream/backend/internal/auth"
	"github.com/vidstream/backend/internal/models"
)

// PostgresStore handles user CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			username        VARCHAR(50)  UNIQUE NOT NULL,
			email           VARCHAR(255) UNIQUE NOT NULL,
			full_name       VARCHAR(255) NOT NULL,
			avatar_url      TEXT NOT NULL,
			cover_image_url TEXT NOT NULL DEFAULT '',
			password        VARCHAR(255) NOT NULL,
			refresh_token   TEXT NOT NULL DEFAULT '',
			created_at      TIMESTAMPTZ  DEFAULT NOW()
		)
	`)
	return err
}

const userColumns = `id, username, email, full_name, avatar_url, cover_image_url, password, refresh_token, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL,
		&u.CoverImageURL, &u.Password, &u.RefreshToken, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u *models.User) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, full_name, avatar_url, cover_image_url, password)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		u.Username, u.Email, u.FullName, u.AvatarURL, u.CoverImageURL, u.Password,
	)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, auth.ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// GetByUsernameOrEmail matches either field; empty arguments never match.
// Returns (nil, nil) when no user is found.
func (s *PostgresStore) GetByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)`,
		username, email,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns (nil, nil) when no user is found.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateRefreshToken swaps the stored refresh token. With a non-nil
// expected value the update is conditional on the stored token still being
// that value, which makes concurrent rotations race safely: at most one
// caller sees a row change.
func (s *PostgresStore) UpdateRefreshToken(ctx context.Context, id string, expected *string, next string) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	if expected == nil {
		tag, err = s.pool.Exec(ctx,
			`UPDATE users SET refresh_token = $2 WHERE id = $1`, id, next)
	} else {
		tag, err = s.pool.Exec(ctx,
			`UPDATE users SET refresh_token = $3 WHERE id = $1 AND refresh_token = $2`,
			id, *expected, next)
	}
	if err != nil {
		return false, fmt.Errorf("update refresh token: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET password = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, id, fullName, email string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET full_name = $2, email = $3 WHERE id = $1 RETURNING `+userColumns,
		id, fullName, email,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, auth.ErrConflict
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdateAvatar(ctx context.Context, id, avatarURL string) (*models.User, error) {
	return s.updateImageColumn(ctx, id, "avatar_url", avatarURL)
}

func (s *PostgresStore) UpdateCoverImage(ctx context.Context, id, coverImageURL string) (*models.User, error) {
	return s.updateImageColumn(ctx, id, "cover_image_url", coverImageURL)
}

func (s *PostgresStore) updateImageColumn(ctx context.Context, id, column, url string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET `+column+` = $2 WHERE id = $1 RETURNING `+userColumns,
		id, url,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", column, err)
	}
	return u, nil
}
