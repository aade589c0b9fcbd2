package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"hrconsole/internal/domain/auth"
	"hrconsole/internal/platform/config"
)

// Seed makes sure the default tenant and its HR admin exist. It is safe to run
// on every start.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cfg.SeedAdminPassword) == "" {
		log.Warn().Msg("SEED_ADMIN_PASSWORD not set, skipping admin user seed")
		return nil
	}
	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}
	return auth.NewStore(pool).EnsureUser(ctx, tenantID, cfg.SeedAdminEmail, hash, auth.RoleHR)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	err = pool.QueryRow(ctx, `
    INSERT INTO tenants (name) VALUES ($1)
    ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
    RETURNING id
  `, name).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
