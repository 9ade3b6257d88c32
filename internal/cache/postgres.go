package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS factcheck_results (
    id BIGSERIAL PRIMARY KEY,
    source_url TEXT NOT NULL,
    url_fingerprint TEXT NOT NULL,
    short_code TEXT NOT NULL,
    transcript TEXT NOT NULL,
    analysis TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    CONSTRAINT factcheck_results_fingerprint_key UNIQUE (url_fingerprint),
    CONSTRAINT factcheck_results_short_code_key UNIQUE (short_code)
)`

const uniqueViolation = "23505"

// PostgresBackend stores results in a shared PostgreSQL database.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and ensures the results table exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresBackend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresBackend{pool: pool}, nil
}

func (p *PostgresBackend) FindByFingerprint(ctx context.Context, fingerprint string) (*Result, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM factcheck_results WHERE url_fingerprint = $1`, fingerprint)
	return scanPgOptional(row, "find by fingerprint")
}

func (p *PostgresBackend) FindByShortCode(ctx context.Context, code string) (*Result, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM factcheck_results WHERE short_code = $1`, code)
	return scanPgOptional(row, "find by short code")
}

func (p *PostgresBackend) ShortCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM factcheck_results WHERE short_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check short code: %w", err)
	}
	return exists, nil
}

func (p *PostgresBackend) Insert(ctx context.Context, result *Result) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO factcheck_results (source_url, url_fingerprint, short_code, transcript, analysis, created_at)
         VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		result.SourceURL,
		result.Fingerprint,
		result.ShortCode,
		result.Transcript,
		result.Analysis,
		result.CreatedAt.UTC(),
	).Scan(&result.ID)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "short_code") {
			return fmt.Errorf("%w: %v", ErrCodeTaken, err)
		}
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return fmt.Errorf("insert result: %w", err)
}

func (p *PostgresBackend) List(ctx context.Context, limit int) ([]Result, error) {
	query := `SELECT ` + resultColumns + ` FROM factcheck_results ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var result Result
		if err := rows.Scan(
			&result.ID, &result.SourceURL, &result.Fingerprint, &result.ShortCode,
			&result.Transcript, &result.Analysis, &result.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, result)
	}
	return out, rows.Err()
}

func (p *PostgresBackend) Close() error {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func scanPgOptional(row pgx.Row, op string) (*Result, error) {
	var result Result
	err := row.Scan(
		&result.ID, &result.SourceURL, &result.Fingerprint, &result.ShortCode,
		&result.Transcript, &result.Analysis, &result.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
