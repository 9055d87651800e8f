package analytics

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresRecorder appends query rows to an insert-only PostgreSQL table.
type PostgresRecorder struct {
	db *sql.DB
}

// PostgresConfig holds PostgreSQL connection settings for analytics.
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

// NewPostgresRecorder connects to PostgreSQL and prepares the queries table.
func NewPostgresRecorder(config *PostgresConfig) (*PostgresRecorder, error) {
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

	recorder := &PostgresRecorder{db: db}
	if err := recorder.createTable(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return recorder, nil
}

func (r *PostgresRecorder) createTable(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS queries (
		id BIGSERIAL PRIMARY KEY,
		session_id VARCHAR(255) NOT NULL DEFAULT '',
		symptoms TEXT NOT NULL DEFAULT '',
		care_needed TEXT NOT NULL DEFAULT '',
		zip_code VARCHAR(10) NOT NULL DEFAULT '',
		insurance TEXT NOT NULL DEFAULT '',
		providers_found INT NOT NULL DEFAULT 0,
		confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
		final_score INT NOT NULL DEFAULT 0,
		used_defaults BOOLEAN NOT NULL DEFAULT FALSE,
		urgency VARCHAR(16) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_queries_created_at ON queries(created_at);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

func (r *PostgresRecorder) Record(ctx context.Context, q *Query) error {
	query := `
	INSERT INTO queries (session_id, symptoms, care_needed, zip_code, insurance,
		providers_found, confidence, final_score, used_defaults, urgency, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		q.SessionID,
		q.Symptoms,
		q.CareNeeded,
		q.ZipCode,
		q.Insurance,
		q.ProvidersFound,
		q.Confidence,
		q.FinalScore,
		q.UsedDefaults,
		q.Urgency,
		q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}
	return nil
}

// Close releases the database connection pool.
func (r *PostgresRecorder) Close() error {
	return r.db.Close()
}
