package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mietrecht-backend/models"
)

// case_counter holds the last allocated sequence number. Incrementing it in
// the insert transaction serializes creators on one row lock; a rolled back
// create gives its number back, so allocation leaves no gaps.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS case_counter (
	id BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
	last_seq BIGINT NOT NULL
);

INSERT INTO case_counter (id, last_seq) VALUES (TRUE, %d)
ON CONFLICT (id) DO NOTHING;

CREATE TABLE IF NOT EXISTS cases (
	seq BIGINT PRIMARY KEY,
	case_identifier VARCHAR(32) NOT NULL UNIQUE,
	timestamp TIMESTAMPTZ NOT NULL,
	user_data JSONB NOT NULL,
	case_data JSONB NOT NULL,
	booking_data JSONB NOT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'New' CHECK (status IN ('New', 'Paid'))
);

CREATE TABLE IF NOT EXISTS users (
	id BIGSERIAL PRIMARY KEY,
	email VARCHAR(255) NOT NULL,
	password_hash TEXT NOT NULL,
	name VARCHAR(255) NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (LOWER(email));
`

// PostgresStore keeps cases and users in PostgreSQL
type PostgresStore struct {
	pool  *pgxpool.Pool
	cases *PostgresCaseRepository
	users *PostgresUserRepository
}

// OpenPostgres connects a pgx pool
func OpenPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{
		pool:  pool,
		cases: &PostgresCaseRepository{db: pool},
		users: &PostgresUserRepository{db: pool},
	}, nil
}

func (s *PostgresStore) Cases() CaseRepository { return s.cases }
func (s *PostgresStore) Users() UserRepository { return s.users }

// Migrate creates the schema
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, fmt.Sprintf(postgresSchema, models.FirstCaseSequence-1))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// PostgresCaseRepository handles case rows in PostgreSQL
type PostgresCaseRepository struct {
	db *pgxpool.Pool
}

// Create allocates the next number and inserts the case in one transaction
func (r *PostgresCaseRepository) Create(ctx context.Context, user models.UserSnapshot, c models.CaseSnapshot, booking models.BookingSnapshot, ts time.Time) (string, error) {
	var id string
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx,
			`UPDATE case_counter SET last_seq = last_seq + 1 WHERE id RETURNING last_seq`,
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("failed to allocate case number: %w", err)
		}

		id = models.FormatCaseID(seq)
		query := `
			INSERT INTO cases (
				seq, case_identifier, timestamp, user_data, case_data, booking_data, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7)`

		_, err = tx.Exec(ctx, query,
			seq,
			id,
			ts,
			user,
			c,
			booking,
			string(models.CaseStatusNew),
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to create case: %w", err)
	}
	return id, nil
}

// Get retrieves a case by identifier
func (r *PostgresCaseRepository) Get(ctx context.Context, id string) (*models.Case, error) {
	query := `
		SELECT case_identifier, timestamp, user_data, case_data, booking_data, status
		FROM cases
		WHERE case_identifier = $1`

	c, err := scanPostgresCase(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetStatus updates the status unless it already has the target value
func (r *PostgresCaseRepository) SetStatus(ctx context.Context, id string, status models.CaseStatus) (bool, error) {
	if err := validStatus(status); err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE cases SET status = $1 WHERE case_identifier = $2 AND status <> $1`,
		string(status), id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update case status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	err = r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM cases WHERE case_identifier = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, ErrNotFound
	}
	return false, nil
}

// List returns all cases, newest first
func (r *PostgresCaseRepository) List(ctx context.Context) ([]models.Case, error) {
	query := `
		SELECT case_identifier, timestamp, user_data, case_data, booking_data, status
		FROM cases
		ORDER BY seq DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []models.Case{}
	for rows.Next() {
		c, err := scanPostgresCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}

func scanPostgresCase(row pgx.Row) (*models.Case, error) {
	var (
		c      models.Case
		status string
	)
	err := row.Scan(&c.ID, &c.Timestamp, &c.User, &c.Case, &c.Booking, &status)
	if err != nil {
		return nil, err
	}
	c.Status = models.CaseStatus(status)
	return &c, nil
}

// PostgresUserRepository handles dashboard users in PostgreSQL
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// Create inserts a user and fills ID and CreatedAt
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, name)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, user.Email, user.PasswordHash, user.Name).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByEmail looks a user up by email, ignoring case
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, password_hash, name, created_at
		FROM users
		WHERE LOWER(email) = LOWER($1)`

	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
