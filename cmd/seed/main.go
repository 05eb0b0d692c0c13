package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/config"
	"github.com/oksasatya/staff-auth/internal/domain/entity"
	"github.com/oksasatya/staff-auth/pkg/helpers"
)

type seedAccount struct {
	name       string
	email      string
	password   string
	department string
	employeeID string
	role       entity.Role
}

// Seeds the default administrator and guest accounts. Existing rows (by email
// or employee id) are left untouched, so running it twice is harmless.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		logger.WithError(err).Fatal("failed to open db")
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	accounts := []seedAccount{
		{name: "System Administrator", email: cfg.SeedAdminEmail, password: cfg.SeedAdminPassword, department: "it", employeeID: "ADM001", role: entity.RoleAdmin},
		{name: "Guest User", email: cfg.SeedGuestEmail, password: cfg.SeedGuestPassword, department: "it", employeeID: "G001", role: entity.RoleUser},
	}
	for _, a := range accounts {
		inserted, err := seed(ctx, db, a)
		if err != nil {
			logger.WithError(err).WithField("email", a.email).Fatal("failed to seed account")
		}
		logger.WithFields(logrus.Fields{"email": a.email, "role": a.role, "inserted": inserted}).Info("seed account")
	}
}

func seed(ctx context.Context, db *sql.DB, a seedAccount) (bool, error) {
	hash, err := helpers.HashPassword(a.password)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `
		INSERT INTO users (name, email, department, employee_id, role, status, password_hash, created_at, updated_at)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT DO NOTHING
	`, a.name, a.email, a.department, a.employeeID, string(a.role), string(entity.StatusActive), hash, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
