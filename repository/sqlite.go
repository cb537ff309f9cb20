package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mietrecht-backend/models"
)

const defaultSQLitePath = "juris_mind.db"

// Case identifiers are JM-<seq>. seq is an AUTOINCREMENT rowid, so a number
// is never handed out twice even after deletes; sqlite_sequence is seeded so
// the first case gets FirstCaseSequence.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cases (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	user_data TEXT NOT NULL,
	case_data TEXT NOT NULL,
	booking_data TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'New' CHECK (status IN ('New', 'Paid'))
);

INSERT INTO sqlite_sequence (name, seq)
SELECT 'cases', %d
WHERE NOT EXISTS (SELECT 1 FROM sqlite_sequence WHERE name = 'cases');

CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

// SQLiteStore keeps cases and users in a single SQLite file
type SQLiteStore struct {
	db    *sql.DB
	cases *SQLiteCaseRepository
	users *SQLiteUserRepository
}

// OpenSQLite opens (or creates) the database file. All statements share one
// connection, which serializes writers inside the process; busy_timeout
// covers other processes on the same file.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		path = defaultSQLitePath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	pragmas := []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(ON)",
		"busy_timeout(5000)",
	}
	dsn := path + "?_txlock=immediate&_pragma=" + strings.Join(pragmas, "&_pragma=")

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteStore{
		db:    db,
		cases: &SQLiteCaseRepository{db: db},
		users: &SQLiteUserRepository{db: db},
	}, nil
}

func (s *SQLiteStore) Cases() CaseRepository { return s.cases }
func (s *SQLiteStore) Users() UserRepository { return s.users }

// Migrate creates the schema
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(sqliteSchema, models.FirstCaseSequence-1))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SQLiteCaseRepository handles case rows in SQLite
type SQLiteCaseRepository struct {
	db *sql.DB
}

// Create inserts the case; identifier allocation and insert are one statement
func (r *SQLiteCaseRepository) Create(ctx context.Context, user models.UserSnapshot, c models.CaseSnapshot, booking models.BookingSnapshot, ts time.Time) (string, error) {
	query := `
		INSERT INTO cases (timestamp, user_data, case_data, booking_data, status)
		VALUES (?, ?, ?, ?, ?)
		RETURNING seq`

	var seq int64
	err := r.db.QueryRowContext(ctx, query,
		ts.UTC().Format(time.RFC3339Nano),
		user,
		c,
		booking,
		string(models.CaseStatusNew),
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to create case: %w", err)
	}
	return models.FormatCaseID(seq), nil
}

// Get retrieves a case by identifier
func (r *SQLiteCaseRepository) Get(ctx context.Context, id string) (*models.Case, error) {
	query := `
		SELECT seq, timestamp, user_data, case_data, booking_data, status
		FROM cases
		WHERE seq = ?`

	seq, ok := models.ParseCaseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	c, err := scanSQLiteCase(r.db.QueryRowContext(ctx, query, seq))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetStatus updates the status unless it already has the target value
func (r *SQLiteCaseRepository) SetStatus(ctx context.Context, id string, status models.CaseStatus) (bool, error) {
	if err := validStatus(status); err != nil {
		return false, err
	}

	seq, ok := models.ParseCaseID(id)
	if !ok {
		return false, ErrNotFound
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE cases SET status = ? WHERE seq = ? AND status <> ?`,
		string(status), seq, string(status),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update case status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM cases WHERE seq = ?`, seq).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// List returns all cases, newest first
func (r *SQLiteCaseRepository) List(ctx context.Context) ([]models.Case, error) {
	query := `
		SELECT seq, timestamp, user_data, case_data, booking_data, status
		FROM cases
		ORDER BY seq DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cases := []models.Case{}
	for rows.Next() {
		c, err := scanSQLiteCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, *c)
	}
	return cases, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCase(row rowScanner) (*models.Case, error) {
	var (
		c      models.Case
		seq    int64
		ts     string
		status string
	)
	if err := row.Scan(&seq, &ts, &c.User, &c.Case, &c.Booking, &status); err != nil {
		return nil, err
	}

	c.ID = models.FormatCaseID(seq)
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("case %s has invalid timestamp %q: %w", c.ID, ts, err)
	}
	c.Timestamp = t
	c.Status = models.CaseStatus(status)
	return &c, nil
}

// SQLiteUserRepository handles dashboard users in SQLite
type SQLiteUserRepository struct {
	db *sql.DB
}

// Create inserts a user and fills ID and CreatedAt
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, name, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		user.Email, user.PasswordHash, user.Name, now.Format(time.RFC3339Nano),
	).Scan(&user.ID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = now
	return nil
}

// GetByEmail looks a user up by email, ignoring case
func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var (
		user    models.User
		created string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, name, created_at FROM users WHERE email = ?`,
		email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return &user, nil
}
