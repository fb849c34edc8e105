// @title           Extraction Viewer API
// @version         1.0
// @description     Upload PDFs or pre-extracted archives, drive the extraction tool and browse, annotate and edit the per-page results.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email   ank.github@gmail.com

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8081
// @BasePath  /
// @schemes   http https
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/akolanti/extractview/internal/config"
	"github.com/akolanti/extractview/internal/data/store"
	"github.com/akolanti/extractview/internal/job"
	"github.com/akolanti/extractview/internal/scanner"
	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extractview",
		Short: "Viewer and editor for PDF extraction results",
		Long: `extractview stores uploaded PDFs, runs the external extraction tool on them one at a time
and serves the per-page images, tables and text for review and annotation.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "extractview.toml", "path to the TOML config file (skipped when missing)")

	cmd.AddCommand(newServeCmd(), newProcessCmd(), newRescanCmd(), newRenderCmd())
	return cmd
}

// app holds what every command needs: configuration, the history store and
// the job service.
type app struct {
	cfg     config.Config
	history *store.FileHistoryStore
	scanner *scanner.Scanner
	jobs    *job.Service
	logger  *logger_i.Logger

	serviceContext context.Context
	closeServices  context.CancelFunc
}

func bootstrap() (*app, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger_i.Init(logger_i.Options{Level: cfg.LogLevel, JSON: cfg.LogJSON})
	logger := logger_i.NewLogger("main")

	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}

	history := store.InitFileHistoryStore(cfg.HistoryPath())
	sc := scanner.New()
	jobs := job.InitJobService(job.ServiceConfig{
		History:           history,
		Scanner:           sc,
		Runner:            job.ExecRunner{Command: cfg.Tool.Command},
		UploadsDir:        cfg.UploadsDir,
		HeartbeatInterval: cfg.Scheduler.HeartbeatInterval.Duration,
	})

	serviceContext, closeServices := context.WithCancel(context.Background())
	logger.Debug("bootstrapped", "uploadsDir", cfg.UploadsDir, "tool", cfg.Tool.Command)
	return &app{
		cfg:            cfg,
		history:        history,
		scanner:        sc,
		jobs:           jobs,
		logger:         logger,
		serviceContext: serviceContext,
		closeServices:  closeServices,
	}, nil
}

func (a *app) close() {
	a.closeServices()
	a.history.Close()
}
