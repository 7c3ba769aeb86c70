package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"batch-engine/core/loader"
	"batch-engine/core/logger"
	"batch-engine/core/middleware/auth"
	"batch-engine/core/middleware/rayid"
	"batch-engine/feature/bulk"
	"batch-engine/feature/query"
	"batch-engine/feature/system"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// @title Batch Engine API
// @version 1.0
// @description Batched entity queries and bulk updates.
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the HTTP server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		logg := a.Logger
		cfg := a.Config

		app := fiber.New(cfg.Server.FiberConfig())

		mgr := loader.NewManager(logg)
		mgr.Register(query.NewFeature(a.Query, cfg.Features.Query))
		mgr.Register(bulk.NewFeature(a.Bulk, logg, cfg.Features.Bulk))
		mgr.Register(system.NewFeature(a.System, cfg.Features.System))

		// RayID goes first so every later log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{
			ApiKey: cfg.Server.ApiKey,
			Public: []string{"/system/health"},
		}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			errCh <- app.Listen(cfg.Server.Address())
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-quit:
		}

		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
