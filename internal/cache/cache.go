package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"factcheck/internal/logging"
	"factcheck/internal/services"
)

const (
	// DefaultRecentLimit is used when Recent is called with a non-positive limit.
	DefaultRecentLimit = 5

	maxCodeAttempts = 16
	stageName       = "cache"
)

// Backend persists results. Implementations enforce uniqueness of fingerprint
// and short code, reporting violations as ErrDuplicate and ErrCodeTaken.
type Backend interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*Result, error)
	FindByShortCode(ctx context.Context, code string) (*Result, error)
	ShortCodeExists(ctx context.Context, code string) (bool, error)
	Insert(ctx context.Context, result *Result) error
	// List returns results newest first. limit <= 0 returns every row.
	List(ctx context.Context, limit int) ([]Result, error)
	Close() error
}

// Cache is the result cache over a Backend.
type Cache struct {
	backend  Backend
	logger   *slog.Logger
	now      func() time.Time
	generate func() (string, error)
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCodeGenerator overrides short code generation (for tests).
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(c *Cache) {
		if generate != nil {
			c.generate = generate
		}
	}
}

// New wraps backend. A nil logger disables logging.
func New(backend Backend, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		backend:  backend,
		logger:   logging.NewComponentLogger(logger, "cache"),
		now:      time.Now,
		generate: GenerateShortCode,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil || c.backend == nil {
		return nil
	}
	return c.backend.Close()
}

// Lookup returns the cached result for the exact sourceURL, or nil on a miss.
func (c *Cache) Lookup(ctx context.Context, sourceURL string) (*Result, error) {
	result, err := c.backend.FindByFingerprint(ctx, Fingerprint(sourceURL))
	if err != nil {
		return nil, services.Wrap(services.ErrCacheWrite, stageName, "lookup", "", err)
	}
	return result, nil
}

// Store inserts a new result and returns its short code. A fingerprint that
// already exists fails with an error matching both ErrCacheWrite and
// ErrDuplicate.
func (c *Cache) Store(ctx context.Context, sourceURL, transcript, analysis string) (string, error) {
	result := &Result{
		SourceURL:   sourceURL,
		Fingerprint: Fingerprint(sourceURL),
		Transcript:  transcript,
		Analysis:    analysis,
		CreatedAt:   c.now().UTC(),
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := c.freeShortCode(ctx)
		if err != nil {
			return "", err
		}
		result.ShortCode = code
		err = c.backend.Insert(ctx, result)
		switch {
		case err == nil:
			logging.WithContext(ctx, c.logger).Info("result cached",
				logging.String("short_code", code),
				logging.String("fingerprint", result.Fingerprint),
			)
			return code, nil
		case errors.Is(err, ErrCodeTaken):
			continue
		case errors.Is(err, ErrDuplicate):
			return "", services.Wrap(services.ErrCacheWrite, stageName, "store", "result already cached for url", err)
		default:
			return "", services.Wrap(services.ErrCacheWrite, stageName, "store", "", err)
		}
	}
	return "", services.Wrap(services.ErrCacheWrite, stageName, "store", "could not allocate a unique short code", ErrCodeTaken)
}

// freeShortCode draws codes until one is not present in the backend.
func (c *Cache) freeShortCode(ctx context.Context) (string, error) {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := c.generate()
		if err != nil {
			return "", services.Wrap(services.ErrCacheWrite, stageName, "short code", "", err)
		}
		exists, err := c.backend.ShortCodeExists(ctx, code)
		if err != nil {
			return "", services.Wrap(services.ErrCacheWrite, stageName, "short code", "", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", services.Wrap(services.ErrCacheWrite, stageName, "short code", "could not allocate a unique short code", ErrCodeTaken)
}

// Resolve returns the result for code, or nil when unknown.
func (c *Cache) Resolve(ctx context.Context, code string) (*Result, error) {
	if !ValidShortCode(code) {
		return nil, nil
	}
	result, err := c.backend.FindByShortCode(ctx, code)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheWrite, stageName, "resolve", "", err)
	}
	return result, nil
}

// Recent returns up to limit results, newest first.
func (c *Cache) Recent(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	results, err := c.backend.List(ctx, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheWrite, stageName, "recent", "", err)
	}
	return results, nil
}

// All returns every result, newest first.
func (c *Cache) All(ctx context.Context) ([]Result, error) {
	results, err := c.backend.List(ctx, 0)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheWrite, stageName, "all", "", err)
	}
	return results, nil
}
