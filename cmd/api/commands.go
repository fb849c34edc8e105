package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/extractview/internal/cloud/onedrive"
	"github.com/akolanti/extractview/internal/data/store"
	"github.com/akolanti/extractview/internal/domain/extractionModel"
	"github.com/akolanti/extractview/internal/handlers"
	"github.com/akolanti/extractview/internal/middleware"
	"github.com/akolanti/extractview/internal/server"
	"github.com/akolanti/extractview/internal/sheet"
	"github.com/akolanti/extractview/internal/upload"
	"github.com/akolanti/extractview/internal/worker"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var listenAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the extraction scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			if listenAddr != "" {
				a.cfg.ListenAddr = listenAddr
			}
			return serve(a)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "server listen address (overrides config)")
	return cmd
}

func serve(a *app) error {
	cfg := a.cfg
	logger := a.logger

	tables := sheet.NewService(sheet.ExcelizeLoader{}, store.GetRenderCache(a.serviceContext, cfg.Redis), cfg.Render.Locale)

	deps := handlers.Dependencies{
		Config:      cfg,
		History:     a.history,
		Jobs:        a.jobs,
		Uploads:     upload.NewService(cfg.UploadsDir, a.history, a.scanner),
		Tables:      tables,
		Scanner:     a.scanner,
		Annotations: store.InitAnnotationStore(cfg.TagsFile),
	}
	if cfg.OneDrive.Enabled() {
		client, err := onedrive.New(onedrive.Options{Config: cfg.OneDrive})
		if err != nil {
			logger.Warn("OneDrive disabled", "err", err)
		} else {
			deps.OneDrive = client
		}
	}

	var stopScheduler func()
	if cfg.Scheduler.Enabled {
		scheduler, err := worker.InitScheduler(worker.SchedulerConfig{
			JobService:       a.jobs,
			History:          a.history,
			Spec:             cfg.Scheduler.Spec,
			StaleLockTimeout: cfg.Scheduler.StaleLockTimeout.Duration,
		})
		if err != nil {
			a.close()
			return err
		}
		scheduler.Start()
		stopScheduler = scheduler.Stop
	}

	routes := server.Routes(handlers.New(deps), middleware.New(cfg), cfg.UploadsDir)

	//server handling
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	stopExecution := make(chan bool, 1)

	go server.ShutDownHandler(server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		StopExecution:    stopExecution,
		StopScheduler:    stopScheduler,
		WaitJobs:         a.jobs.Wait,
		CloseServices:    a.closeServices,
	})
	go server.CreateServer(cfg.ListenAddr, routes)

	<-stopExecution
	tables.Wait()
	a.history.Close()
	logger.Info("Server stopped")
	return nil
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process <id>",
		Short: "Run the extraction tool on one extraction and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			done, err := a.jobs.Trigger(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "processing %s\n", args[0])
			final := <-done
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (pages %d, images %d, tables %d)\n",
				final.Id, final.Status, final.TotalPages, final.TotalImages, final.TotalTables)
			if final.Status == extractionModel.StatusError {
				return errors.New(final.LastError)
			}
			return nil
		},
	}
}

func newRescanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rescan [id]",
		Short: "Recount pages, images and tables into the history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap()
			if err != nil {
				return err
			}
			defer a.close()

			ids := args
			if len(ids) == 0 {
				entries, err := a.history.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, e := range entries {
					ids = append(ids, e.Id)
				}
			}
			var failed int
			for _, id := range ids {
				entry, _, err := a.jobs.Rescan(cmd.Context(), id)
				if err != nil {
					failed++
					a.logger.Warn("rescan failed", "extractionId", id, "err", err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: pages %d, images %d, tables %d\n",
					entry.Id, entry.TotalPages, entry.TotalImages, entry.TotalTables)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d extractions could not be rescanned", failed, len(ids))
			}
			return nil
		},
	}
}

func newRenderCmd() *cobra.Command {
	var extractId, relativeBase, locale string
	cmd := &cobra.Command{
		Use:   "render <xlsx>",
		Short: "Print the HTML a spreadsheet renders to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := sheet.NewService(sheet.ExcelizeLoader{}, store.InitInMemoryRenderCache(), locale)
			result, err := tables.Render(cmd.Context(), args[0], sheet.RenderOptions{ExtractId: extractId, RelativeBase: relativeBase})
			if err != nil {
				return err
			}
			tables.Wait()
			fmt.Fprintln(cmd.OutOrStdout(), result.HTML)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d rows, %d columns\n", result.SheetName, result.RowCount, result.ColumnCount)
			return nil
		},
	}
	cmd.Flags().StringVar(&extractId, "extract-id", "", "extraction id used for image placeholders")
	cmd.Flags().StringVar(&relativeBase, "base", "", "page folder holding the images, e.g. 2")
	cmd.Flags().StringVar(&locale, "locale", "en-US", "number and date locale")
	return cmd
}
