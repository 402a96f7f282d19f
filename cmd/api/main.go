package main

import (
	"fmt"
	"os"

	"statlens/adapters/api"
	"statlens/adapters/postgres"
	"statlens/adapters/tabular"
	"statlens/internal"
	"statlens/internal/config"
	apperrors "statlens/internal/errors"
	"statlens/internal/history"
	"statlens/internal/session"
	"statlens/ports"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// .env is optional; real deployments configure via the environment.
	_ = godotenv.Load()

	logger := internal.NewDefaultLogger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.Server.GinMode)

	store, err := buildHistoryStore(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history store error: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(cfg, store, logger)

	if cfg.Data.File != "" {
		tbl, err := tabular.NewDataReader(cfg.Data.File).Read()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", cfg.Data.File, err)
			os.Exit(1)
		}
		sess.Load(tbl)
	}

	server := api.NewServer(sess, logger)
	if err := server.Start(":" + cfg.Server.Port); err != nil {
		fmt.Fprintf(os.Stderr, "server failed: %v\n", err)
		os.Exit(1)
	}
}

// buildHistoryStore picks PostgreSQL when DATABASE_URL is set, otherwise
// the in-memory store.
func buildHistoryStore(cfg *config.Config, logger *internal.Logger) (ports.HistoryStore, error) {
	if cfg.Database.URL == "" {
		logger.Info("no DATABASE_URL, using in-memory analysis history")
		return history.NewMemoryStore(), nil
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, apperrors.Wrapf(err, "connecting to postgres")
	}
	logger.Info("analysis history backed by postgres")
	return postgres.NewHistoryRepository(db)
}
