package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/config"
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/logging"
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/pipeline"
	"github.com/Murray-Assal/csv-to-postgresql-injestion/internal/sink"
)

var (
	csvPath    string
	engine     string
	dbURL      string
	dbName     string
	sqlitePath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Normalize a wide CSV dataset into a relational schema and load it",
	Long: `ingest reads a flat, denormalized CSV, splits one-to-many and many-to-many
categorical columns into entity and junction tables with surrogate keys, and
bulk-loads the result into PostgreSQL or SQLite.

Configuration comes from environment variables (a .env file is honored);
flags override the environment.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "Path to the source CSV (overrides DATASET_CSV)")
	rootCmd.Flags().StringVar(&engine, "engine", "", "Destination engine: postgres or sqlite (overrides DB_ENGINE)")
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL maintenance connection string (overrides DATABASE_URL)")
	rootCmd.Flags().StringVar(&dbName, "db-name", "", "Destination database name (overrides DB_NAME)")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path (overrides SQLITE_PATH)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides LOG_LEVEL)")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides LOG_FORMAT)")
}

func run(cmd *cobra.Command, args []string) error {
	applyFlagOverrides()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dest, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dest.Close(); err != nil {
			slog.Warn("closing sink", "error", err)
		}
	}()

	p := pipeline.New(dest, cfg.Dataset.MaxFileSize)
	if err := p.Run(ctx, cfg.Dataset.CSVPath, pipeline.NetflixPlan()); err != nil {
		return err
	}

	slog.Info("ingestion complete")
	return nil
}

// applyFlagOverrides pushes non-empty flags into the environment so the
// config loader sees a single source of truth.
func applyFlagOverrides() {
	overrides := map[string]string{
		"DATASET_CSV":  csvPath,
		"DB_ENGINE":    engine,
		"DATABASE_URL": dbURL,
		"DB_NAME":      dbName,
		"SQLITE_PATH":  sqlitePath,
		"LOG_LEVEL":    logLevel,
		"LOG_FORMAT":   logFormat,
	}
	for key, value := range overrides {
		if value != "" {
			os.Setenv(key, value)
		}
	}
}

// openSink connects the configured destination engine.
func openSink(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	switch cfg.Database.Engine {
	case config.EngineSQLite:
		s, err := sink.NewSQLite(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to sqlite database", "path", cfg.Database.SQLitePath)
		return s, nil

	case config.EnginePostgres:
		if err := sink.EnsureDatabase(ctx, cfg.Database.URL, cfg.Database.Name); err != nil {
			return nil, err
		}

		targetURL, err := cfg.Database.TargetURL()
		if err != nil {
			return nil, err
		}

		poolConfig, err := pgxpool.ParseConfig(targetURL)
		if err != nil {
			return nil, fmt.Errorf("parse database URL: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.Database.MaxConns)
		poolConfig.MinConns = int32(cfg.Database.MinConns)
		poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		slog.Info("connected to database", "name", cfg.Database.Name)
		return sink.NewPostgres(pool), nil

	default:
		return nil, fmt.Errorf("unsupported engine %q", cfg.Database.Engine)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("ingestion failed", "error", err)
		os.Exit(1)
	}
}
