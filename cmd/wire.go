package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/englevel/internal/attempt"
	"github.com/abhisek/englevel/internal/config"
	"github.com/abhisek/englevel/internal/events"
	"github.com/abhisek/englevel/internal/logging"
	"github.com/abhisek/englevel/internal/questionbank"
	"github.com/abhisek/englevel/internal/sessioncache"
	"github.com/abhisek/englevel/internal/store"
)

// loadConfig reads --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// resolveDSN returns the database DSN using --db (highest priority), then
// the configured DSN, then the default XDG path for SQLite.
func resolveDSN(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if cfg.Database.Driver == store.DriverSQLite {
			return p, store.EnsureDir(p)
		}
		return p, nil
	}
	if cfg.Database.DSN != "" {
		return cfg.Database.DSN, nil
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command, cfg *config.Config) (*store.Store, error) {
	dsn, err := resolveDSN(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newLogger builds the command logger. Interactive commands pass quiet so
// only the log file, if any, receives entries.
func newLogger(cfg *config.Config, quiet bool) (*zap.Logger, func(), error) {
	return logging.New(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Quiet: quiet,
	})
}

// questionSupplier picks the question source: an explicit bank file, then
// questions imported into the database, then the embedded seed bank.
func questionSupplier(ctx context.Context, cfg *config.Config, bankPath string, s *store.Store, logger *zap.Logger) (questionbank.Supplier, error) {
	if bankPath == "" {
		bankPath = cfg.Bank.Path
	}
	if bankPath != "" {
		bank, err := questionbank.LoadFile(bankPath)
		if err != nil {
			return nil, err
		}
		for _, rej := range bank.Rejected() {
			logger.Warn("rejected question", zap.String("bank", bankPath), zap.Error(rej))
		}
		logger.Info("using question bank file", zap.String("path", bankPath), zap.Int("questions", bank.Len()))
		return bank, nil
	}

	if s != nil {
		repo := s.QuestionRepo()
		n, err := repo.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("count questions: %w", err)
		}
		if n > 0 {
			logger.Info("using database question bank", zap.Int("questions", n))
			return repo, nil
		}
	}

	bank := questionbank.Seed()
	logger.Info("using embedded seed bank", zap.Int("questions", bank.Len()))
	return bank, nil
}

// newCache builds the configured session cache. The SQL backend prunes
// expired snapshots in the background until ctx ends or the returned func is
// called; the func also releases connections.
func newCache(ctx context.Context, cfg *config.Config, s *store.Store, logger *zap.Logger) (sessioncache.Cache, func(), error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		r, err := sessioncache.DialRedis(ctx, sessioncache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	case config.CacheSQL:
		c := sessioncache.NewSQL(s.SnapshotRepo(), cfg.Cache.TTL)
		pctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			c.RunPruner(pctx, sessioncache.DefaultPruneInterval, logger)
		}()
		return c, func() {
			cancel()
			<-done
		}, nil
	default:
		return sessioncache.NewMemory(cfg.Cache.TTL), func() {}, nil
	}
}

func newPublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	if cfg.AMQP.URL == "" {
		return events.Nop{}, nil
	}
	p, err := events.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange)
	if err != nil {
		return nil, err
	}
	logger.Info("publishing events", zap.String("exchange", cfg.AMQP.Exchange))
	return p, nil
}

func serviceOptions(cfg *config.Config) attempt.Options {
	return attempt.Options{
		MaxQuestions:  cfg.Assessment.MaxQuestions,
		MatchLevel:    cfg.Assessment.MatchLevel,
		ExcludeRecent: cfg.Assessment.ExcludeRecent,
		Seed:          cfg.Assessment.Seed,
	}
}
