package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eddwmvv/projetovereler-sub001/config"
	"github.com/eddwmvv/projetovereler-sub001/internal/repository"
	"github.com/eddwmvv/projetovereler-sub001/internal/service"
	"github.com/eddwmvv/projetovereler-sub001/pkg/database"
	"github.com/eddwmvv/projetovereler-sub001/pkg/jwt"
	applogger "github.com/eddwmvv/projetovereler-sub001/pkg/logger"
)

var (
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd operator tooling for the inventory backend
var rootCmd = &cobra.Command{
	Use:   "verelerctl",
	Short: "Administrative tasks for the vereler backend",
	Long: `verelerctl runs maintenance tasks against the same database and
configuration as the API server: schema migrations, admin bootstrap and
frame spreadsheet import.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger, err = applogger.NewLogger(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("VERELER_CONFIG"), "path to config file")

	rootCmd.AddCommand(migrateCmd, framesCmd, usersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB connects to the configured database; the returned func closes it
func openDB() (*gorm.DB, func(), error) {
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return db, func() { _ = sqlDB.Close() }, nil
}

// newServices wires the service layer without redis; cache and revocation
// only matter to the running server
func newServices(repo *repository.Repository) *service.Service {
	return service.NewService(cfg, repo, jwt.NewManager(&cfg.Auth), nil, nil, logger)
}
