package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the placement API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		logger, cleanup, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		supplier, err := questionSupplier(ctx, cfg, "", s, logger)
		if err != nil {
			return err
		}
		cache, closeCache, err := newCache(ctx, cfg, s, logger.Named("cache"))
		if err != nil {
			return err
		}
		defer closeCache()
		publisher, err := newPublisher(cfg, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()

		svc, err := attempt.NewService(attempt.Deps{
			Supplier:  supplier,
			Sink:      s.AttemptRepo(),
			History:   s.AttemptRepo(),
			Cache:     cache,
			Publisher: publisher,
			Logger:    logger.Named("attempt"),
		}, serviceOptions(cfg))
		if err != nil {
			return err
		}

		logger.Info("starting englevel",
			zap.String("version", version),
			zap.String("db_driver", cfg.Database.Driver),
			zap.String("cache", cfg.Cache.Backend))

		srv := server.New(svc, s, logger.Named("http"), server.Options{
			Addr:      cfg.Server.Addr,
			Mode:      cfg.Server.Mode,
			RateLimit: cfg.Server.RateLimit,
			RateBurst: cfg.Server.RateBurst,
		})
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (defaults to config, :8080)")
}
