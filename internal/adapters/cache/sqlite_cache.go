package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the core.VerdictCache interface.
// It keeps URL verdicts across restarts, which matters when the reputation
// service is rate limited.
type SQLiteCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteCache creates a new SQLite verdict cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS url_verdicts (
			url TEXT PRIMARY KEY,
			verdict TEXT,
			last_seen TIMESTAMP,
			expires_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_url_verdicts_expires_at ON url_verdicts(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	cache := &SQLiteCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached verdict for a URL
func (c *SQLiteCache) Get(ctx context.Context, url string) (string, bool) {
	var verdict string
	err := c.db.QueryRowContext(ctx, `
		SELECT verdict
		FROM url_verdicts
		WHERE url = ? AND expires_at > ?
	`, url, time.Now().Format(time.RFC3339)).Scan(&verdict)

	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query verdict cache", zap.Error(err), zap.String("url", url))
		}
		return "", false
	}
	return verdict, true
}

// Set stores a verdict for a URL
func (c *SQLiteCache) Set(ctx context.Context, url string, verdict string, ttl time.Duration) {
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO url_verdicts (url, verdict, last_seen, expires_at)
		VALUES (?, ?, ?, ?)
	`, url, verdict, now.Format(time.RFC3339), now.Add(ttl).Format(time.RFC3339))

	if err != nil {
		c.logger.Error("Failed to insert verdict entry", zap.Error(err), zap.String("url", url))
	}
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM url_verdicts
		WHERE expires_at <= ?
	`, time.Now().Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired verdict entries", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask runs the periodic cleanup until Stop is called
func (c *SQLiteCache) startCleanupTask() {
	ticker := time.NewTicker(c.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				c.logger.Error("Failed to clean up verdict cache", zap.Error(err))
			}
		case <-c.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
