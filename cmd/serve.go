package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/api"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/secrets"
	"github.com/spigell/cv-matcher/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API backed by PostgreSQL",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "address to listen on (default :8080)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the cv-matcher api", zap.String("version", version))

	dbCfg := config.Database
	if dbCfg == nil {
		dbCfg = &DatabaseConfig{}
	}
	dsn, err := secrets.Load(secrets.Source{
		Name:  "database dsn",
		Value: dbCfg.DSN,
		File:  dbCfg.DSNFile,
		Env:   "DATABASE_URL",
	})
	if err != nil {
		logger.Fatal("loading database dsn", zap.Error(err),
			zap.String("hint", "set database.dsn, database.dsn-file or the DATABASE_URL environment variable"))
	}

	db, err := storage.Open(dsn, logger)
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}

	matcher, closer, err := newMatcher(ctx, config, logger)
	if err != nil {
		logger.Fatal("configuring the judgment oracle", zap.Error(err))
	}
	defer closer()

	server := api.New(config.Server, storage.NewRepository(db), matcher, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(config.Server.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}
}
