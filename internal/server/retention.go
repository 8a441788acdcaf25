// retention.go - Background pruning of old coverage data.
//
// Summary rows are small but accumulate forever under busy CI; archived raw
// reports are large. Both are pruned past the configured age. Disabled by
// default so a fresh deployment keeps everything.
package server

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
)

// RetentionConfig holds configuration for the retention job
type RetentionConfig struct {
	Enabled     bool
	Interval    time.Duration
	MaxAge      time.Duration
	DB          *sql.DB
	MinioClient *minio.Client
	Bucket      string
}

// StartRetentionJob starts a background goroutine that periodically prunes
// summaries and archived reports older than MaxAge.
func StartRetentionJob(ctx context.Context, cfg RetentionConfig) {
	if !cfg.Enabled {
		log.Printf("service=retention msg=%q", "disabled")
		return
	}

	log.Printf("service=retention msg=%q interval=%s max_age=%s",
		"starting", cfg.Interval, cfg.MaxAge)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start
	runRetention(ctx, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Printf("service=retention msg=%q", "shutting_down")
			return
		case <-ticker.C:
			runRetention(ctx, cfg)
		}
	}
}

func runRetention(ctx context.Context, cfg RetentionConfig) {
	start := time.Now()
	cutoff := time.Now().Add(-cfg.MaxAge)

	res, err := cfg.DB.ExecContext(ctx,
		`DELETE FROM summary WHERE insert_time < $1`, cutoff)
	if err != nil {
		log.Printf("service=retention msg=%q err=%v", "summary_prune_failed", err)
		return
	}
	summariesPruned, _ := res.RowsAffected()

	reportsPruned := pruneReports(ctx, cfg, cutoff)

	log.Printf("service=retention msg=%q summaries=%d reports=%d duration_ms=%d",
		"retention_complete", summariesPruned, reportsPruned,
		time.Since(start).Milliseconds())
}

// pruneReports deletes old report rows together with their stored objects.
// The object is removed first so a failure leaves a retryable row, not an
// orphaned object.
func pruneReports(ctx context.Context, cfg RetentionConfig, cutoff time.Time) int {
	rows, err := cfg.DB.QueryContext(ctx, `
		SELECT id, object_key
		FROM report
		WHERE created_at < $1
		ORDER BY created_at ASC
		LIMIT 100
	`, cutoff)
	if err != nil {
		log.Printf("service=retention msg=%q err=%v", "report_query_failed", err)
		return 0
	}
	defer rows.Close()

	deleted := 0
	for rows.Next() {
		var id, objectKey string
		if err := rows.Scan(&id, &objectKey); err != nil {
			log.Printf("service=retention msg=%q err=%v", "scan_failed", err)
			continue
		}

		if cfg.MinioClient != nil {
			if err := cfg.MinioClient.RemoveObject(ctx, cfg.Bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
				log.Printf("service=retention msg=%q id=%s err=%v", "object_delete_failed", id, err)
				continue
			}
		}

		if _, err := cfg.DB.ExecContext(ctx, `DELETE FROM report WHERE id = $1`, id); err != nil {
			log.Printf("service=retention msg=%q id=%s err=%v", "db_delete_failed", id, err)
			continue
		}

		deleted++
	}
	return deleted
}

// RunRetentionOnce performs a single retention pass outside the ticker loop.
func RunRetentionOnce(ctx context.Context, cfg RetentionConfig) {
	runRetention(ctx, cfg)
}

// RetentionConfigFromEnv reads retention configuration from environment
// variables. CVB_RETENTION_DAYS is the single switch: a positive number of
// days enables pruning, zero or unset keeps everything.
func RetentionConfigFromEnv(db *sql.DB, mc *minio.Client, bucket string) RetentionConfig {
	interval := 1 * time.Hour
	if v := os.Getenv("CVB_RETENTION_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			interval = d
		}
	}

	enabled := false
	var maxAge time.Duration
	if v := os.Getenv("CVB_RETENTION_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			maxAge = time.Duration(days) * 24 * time.Hour
			enabled = true
		}
	}

	return RetentionConfig{
		Enabled:     enabled,
		Interval:    interval,
		MaxAge:      maxAge,
		DB:          db,
		MinioClient: mc,
		Bucket:      bucket,
	}
}
