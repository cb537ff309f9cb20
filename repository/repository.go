// Package repository persists cases and dashboard users.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mietrecht-backend/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup key
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("record already exists")
)

// CaseRepository is the durable store of booked cases.
// Every method is a single unit of work against the underlying store.
type CaseRepository interface {
	// Create allocates the next case identifier and stores a case with status New
	Create(ctx context.Context, user models.UserSnapshot, c models.CaseSnapshot, booking models.BookingSnapshot, ts time.Time) (string, error)
	// Get returns one case or ErrNotFound
	Get(ctx context.Context, id string) (*models.Case, error)
	// SetStatus reports whether the status changed; unknown ids yield ErrNotFound
	SetStatus(ctx context.Context, id string, status models.CaseStatus) (bool, error)
	// List returns all cases, most recently created first
	List(ctx context.Context) ([]models.Case, error)
}

// UserRepository stores dashboard credentials
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store bundles the repositories of one database
type Store interface {
	Cases() CaseRepository
	Users() UserRepository
	// Migrate creates missing tables; it is safe to run repeatedly
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Driver names a supported database
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config selects and configures the store
type Config struct {
	Driver      Driver
	SQLitePath  string
	DatabaseURL string
}

// Open connects to the configured store. It does not migrate.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		return OpenSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

func validStatus(status models.CaseStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown case status %q", status)
	}
	return nil
}
