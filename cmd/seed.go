package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/hookgw/hookgw/internal/config"
	"github.com/hookgw/hookgw/internal/db"
	"github.com/hookgw/hookgw/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo tenants and endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer sqlDB.Close()

		log.Println(">> Seeding demo tenants...")

		if err := seedProfiles(sqlDB); err != nil {
			return err
		}
		if err := seedEndpoints(sqlDB); err != nil {
			return err
		}

		log.Println(">> Seed completed")
		return nil
	},
}

// seedProfiles inserts deterministic demo tenants (idempotent).
func seedProfiles(dbx *sqlx.DB) error {
	profiles := []model.Profile{
		{
			ID:       "user_acme",
			Username: "acme",
			APIKey:   "11111111111111111111111111111111",
		},
		{
			ID:                "user_foobar",
			Username:          "foobar",
			APIKey:            "22222222222222222222222222222222",
			RateLimitOverride: intptr(1000),
		},
		{
			ID:       "user_beta",
			Username: "beta-testers",
			APIKey:   "33333333333333333333333333333333",
		},
	}

	// idempotent upsert based on id (PK)
	const q = `
INSERT INTO profiles
    (id, username, api_key, rate_limit_override, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
    api_key             = VALUES(api_key),
    rate_limit_override = VALUES(rate_limit_override),
    updated_at          = VALUES(updated_at)
`
	tx, err := dbx.Beginx()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	for _, p := range profiles {
		if _, err := tx.Exec(q, p.ID, p.Username, p.APIKey, p.RateLimitOverride, now, now); err != nil {
			return fmt.Errorf("insert profile %q: %w", p.Username, err)
		}
	}

	// foobar is a paying tenant
	if _, err := tx.Exec(`
INSERT INTO subscriptions (user_id, plan, status, created_at, updated_at)
VALUES ('user_foobar', 'pro', 'active', ?, ?)
ON DUPLICATE KEY UPDATE status = VALUES(status), updated_at = VALUES(updated_at)
`, now, now); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profiles: %w", err)
	}
	return nil
}

// seedEndpoints creates one active endpoint per demo tenant plus a paused one.
func seedEndpoints(dbx *sqlx.DB) error {
	type seed struct {
		id, userID, slug, name string
		active                 bool
		code                   int
	}
	endpoints := []seed{
		{"ep_acme_orders", "user_acme", "orders", "Order events", true, 200},
		{"ep_foobar_ci", "user_foobar", "ci-events", "CI notifications", true, 202},
		{"ep_beta_test", "user_beta", "orders", "Shared slug demo", true, 200},
		{"ep_acme_paused", "user_acme", "paused", "Paused endpoint", false, 200},
	}

	const q = `
INSERT INTO endpoints
    (id, user_id, slug, name, is_active, response_code, response_body, response_headers, created_at, updated_at)
VALUES
    (?, ?, ?, ?, ?, ?, '{"ok":true}', '{"Content-Type":"application/json"}', NOW(), NOW())
ON DUPLICATE KEY UPDATE
    is_active     = VALUES(is_active),
    response_code = VALUES(response_code),
    updated_at    = NOW()
`
	for _, e := range endpoints {
		if _, err := dbx.Exec(q, e.id, e.userID, e.slug, e.name, e.active, e.code); err != nil {
			return fmt.Errorf("insert endpoint %q: %w", e.slug, err)
		}
	}
	return nil
}

func intptr(i int) *int { return &i }
