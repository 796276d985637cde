package db

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"thodemy/internal/domain/auth"
	"thodemy/internal/platform/config"
)

// Seed makes sure the configured administrator can log in. It never touches
// an existing account.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	return ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	err = pool.QueryRow(ctx, `
    INSERT INTO users (email, full_name, password_hash, role, status)
    VALUES ($1, $2, $3, $4, $5)
    RETURNING id
  `, email, "Administrator", hash, auth.RoleSuperAdmin, auth.UserStatusActive).Scan(&id)
	if err != nil {
		return err
	}
	slog.Info("seeded admin user", "userId", id, "email", email)
	return nil
}
