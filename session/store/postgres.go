package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	kverrors "github.com/carecost/carecost/errors"
	"github.com/carecost/carecost/estimate"
	"github.com/carecost/carecost/session"
)

// PostgresStore persists session records in PostgreSQL, upserting on the
// session ID.
type PostgresStore struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultPostgresConfig returns default PostgreSQL settings.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "carecost",
		SSLMode:  "disable",
	}
}

// NewPostgresStore connects to PostgreSQL and prepares the sessions table.
func NewPostgresStore(config *PostgresConfig) (*PostgresStore, error) {
	if config == nil {
		config = DefaultPostgresConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(255) PRIMARY KEY,
		insurance_input TEXT NOT NULL DEFAULT '',
		plan_details JSONB,
		care_history TEXT[] NOT NULL DEFAULT '{}',
		zip_code VARCHAR(10) NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated_at ON sessions(updated_at);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("%w: session record must have an ID", kverrors.ErrInvalidInput)
	}

	var planJSON []byte
	if record.Plan != nil {
		var err error
		planJSON, err = json.Marshal(record.Plan)
		if err != nil {
			return fmt.Errorf("failed to marshal plan details: %w", err)
		}
	}

	query := `
	INSERT INTO sessions (session_id, insurance_input, plan_details, care_history, zip_code, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (session_id) DO UPDATE SET
		insurance_input = EXCLUDED.insurance_input,
		plan_details    = EXCLUDED.plan_details,
		care_history    = EXCLUDED.care_history,
		zip_code        = EXCLUDED.zip_code,
		updated_at      = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.InsuranceInput,
		planJSON,
		pq.Array(record.CareHistory),
		record.ZipCode,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*session.Record, error) {
	query := `
	SELECT session_id, insurance_input, plan_details, care_history, zip_code, updated_at
	FROM sessions WHERE session_id = $1
	`
	record := &session.Record{}
	var planJSON []byte
	var history pq.StringArray

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.InsuranceInput,
		&planJSON,
		&history,
		&record.ZipCode,
		&record.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: session %s", kverrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	record.CareHistory = []string(history)
	if len(planJSON) > 0 {
		record.Plan = &estimate.PlanDetails{}
		if err := json.Unmarshal(planJSON, record.Plan); err != nil {
			return nil, fmt.Errorf("failed to decode plan details: %w", err)
		}
	}
	return record, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM sessions WHERE session_id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session: %w", err)
	}
	return exists, nil
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
