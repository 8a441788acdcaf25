package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"coverage-board/internal/db"
	"coverage-board/internal/server"
)

func main() {
	// A .env file is a convenience for local runs; deployments set real
	// environment variables.
	_ = godotenv.Load()

	// Postgres credentials are the only hard requirement. Exit code 2
	// distinguishes misconfiguration from runtime failure.
	password := os.Getenv("POSTGRES_PASSWORD")
	dbname := os.Getenv("POSTGRES_DB")
	if password == "" || dbname == "" {
		fmt.Fprintln(os.Stderr, "POSTGRES_PASSWORD and POSTGRES_DB must be set")
		os.Exit(2)
	}

	if v := server.ValidateEnvironment(); v.HasErrors() {
		fmt.Fprint(os.Stderr, v.ErrorString())
		os.Exit(2)
	}

	addr := getenvDefault("BIND_ADDRESS", "0.0.0.0:1001")

	// Hourly rolling log files alongside stdout.
	logDir := getenvDefault("LOG_DIR", "./logs")
	logSuffix := getenvDefault("LOG_SUFFIX", "log")
	closeLogs, err := server.InitFileLogging(logDir, logSuffix)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "log_dir_unavailable", err)
		os.Exit(1)
	}
	defer func() { _ = closeLogs() }()

	build := server.BuildInfo{
		Version: getenvDefault("CVB_VERSION", "dev"),
		Commit:  getenvDefault("CVB_COMMIT", "unknown"),
	}

	// Database
	dsn := server.BuildDSN(os.Getenv("POSTGRES_HOST"), password, dbname)
	dbConn, err := server.OpenDB(dsn)
	if err != nil {
		log.Printf("service=backend msg=%q err=%v", "db_connect_failed", err)
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	// Run migrations
	log.Printf("service=backend msg=%q", "running_migrations")
	if err := db.RunMigrations(dbConn); err != nil {
		log.Printf("service=backend msg=%q err=%v", "migration_failed", err)
		os.Exit(1)
	}
	log.Printf("service=backend msg=%q", "migrations_complete")

	// Optional raw report archive.
	mc, bucket, err := server.NewArchiveClient()
	if err != nil {
		if err == server.ErrArchiveNotConfigured {
			log.Printf("service=backend msg=%q", "report_archive_disabled")
		} else {
			log.Printf("service=backend msg=%q err=%v", "archive_connect_failed", err)
			os.Exit(1)
		}
	}

	// Optional webhook receivers.
	webhooks := server.NewWebhookDispatcher(
		server.SplitWebhookURLs(os.Getenv("CVB_WEBHOOK_URLS")),
		os.Getenv("CVB_WEBHOOK_SECRET"),
	)

	threshold := 0.0
	if v := os.Getenv("CVB_REGRESSION_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			threshold = f
		}
	}

	// Background jobs share one cancellable context.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	go server.StartRetentionJob(jobCtx, server.RetentionConfigFromEnv(dbConn, mc, bucket))

	backups := server.NewBackupManager(server.LoadBackupConfig(dsn), mc)
	backups.Start()
	defer backups.Stop()

	srv := server.New(server.Config{
		Addr:                addr,
		Build:               build,
		DB:                  dbConn,
		Minio:               mc,
		Bucket:              bucket,
		IngestToken:         os.Getenv("CVB_INGEST_TOKEN"),
		Webhooks:            webhooks,
		RegressionThreshold: threshold,
	})

	// Start the HTTP server in a background goroutine so we can listen for
	// OS signals while it runs.
	errCh := make(chan error, 1)
	go func() {
		log.Printf("service=backend msg=%q addr=%s version=%s commit=%s",
			"starting", addr, build.Version, build.Commit)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("service=backend msg=%q signal=%s", "shutting_down", sig.String())
		cancelJobs()
		// Give the server 5 seconds to finish in-flight requests.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("service=backend msg=%q err=%v", "shutdown_error", err)
			os.Exit(1)
		}
		if webhooks != nil {
			webhooks.Wait()
		}
		log.Printf("service=backend msg=%q", "shutdown_complete")
	case err := <-errCh:
		if err != nil {
			log.Printf("service=backend msg=%q err=%v", "server_error", err)
			os.Exit(1)
		}
	}
}

// getenvDefault reads an environment variable and returns a default value if not set.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
