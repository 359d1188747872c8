package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the core.VerdictCache interface
// for deployments where several filter instances share one verdict store.
type MySQLCache struct {
	db          *sql.DB
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewMySQLCache creates a new MySQL verdict cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS url_verdicts (
			url VARCHAR(2048) NOT NULL,
			url_hash CHAR(64) AS (SHA2(url, 256)) STORED,
			verdict TEXT,
			last_seen TIMESTAMP,
			expires_at TIMESTAMP,
			PRIMARY KEY (url_hash),
			INDEX idx_url_verdicts_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	cache := &MySQLCache{
		db:          db,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	go cache.startCleanupTask()

	return cache, nil
}

// Get retrieves a cached verdict for a URL
func (c *MySQLCache) Get(ctx context.Context, url string) (string, bool) {
	var verdict string
	err := c.db.QueryRowContext(ctx, `
		SELECT verdict
		FROM url_verdicts
		WHERE url_hash = SHA2(?, 256) AND expires_at > NOW()
	`, url).Scan(&verdict)

	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Error("Failed to query verdict cache", zap.Error(err), zap.String("url", url))
		}
		return "", false
	}
	return verdict, true
}

// Set stores a verdict for a URL
func (c *MySQLCache) Set(ctx context.Context, url string, verdict string, ttl time.Duration) {
	now := time.Now()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO url_verdicts (url, verdict, last_seen, expires_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE verdict = VALUES(verdict), last_seen = VALUES(last_seen), expires_at = VALUES(expires_at)
	`, url, verdict, now, now.Add(ttl))

	if err != nil {
		c.logger.Error("Failed to insert verdict entry", zap.Error(err), zap.String("url", url))
	}
}

// Cleanup removes expired entries
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM url_verdicts
		WHERE expires_at <= NOW()
	`)

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
func (c *MySQLCache) startCleanupTask() {
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
func (c *MySQLCache) Stop() {
	close(c.stopCh)
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL connection", zap.Error(err))
	}
}
