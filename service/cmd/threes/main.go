// cmd/threes/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/eric0410771/Game-Theory-Threes/engine/agent"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/cache"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/checkpoint"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/config"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/database"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/monitor"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/stats"
	"github.com/eric0410771/Game-Theory-Threes/service/internal/trainer"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatal("Threes training failed.")
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := parseFlags(&cfg, args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, keeping info.")
	}
	log := logrus.WithField("app", "threes")
	log.Infof("Threes Demo: %s", strings.Join(args, " "))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stat := stats.NewStatistic(cfg.Total, cfg.Block, cfg.Limit)
	if cfg.LoadPath != "" {
		if err := loadStatistic(stat, cfg.LoadPath); err != nil {
			return err
		}
		cfg.Summary = cfg.Summary || stat.IsFinished()
		log.WithFields(logrus.Fields{"path": cfg.LoadPath, "episodes": stat.Count()}).Info("Episodes loaded.")
	}

	if cfg.WeightsIn != "" {
		checked, err := checkpoint.Verify(cfg.WeightsIn)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"path": cfg.WeightsIn, "verified": checked}).Info("Loading weights.")
	}

	player, err := newAgent(cfg.PlayerOptions())
	if err != nil {
		return err
	}
	env, err := newAgent(cfg.EnvironmentOptions())
	if err != nil {
		return err
	}

	if cfg.RedisAddr != "" {
		if err := cache.ConnectRedis(ctx, cfg.RedisAddr); err != nil {
			return err
		}
		defer cache.CloseRedis()
		log.WithField("addr", cfg.RedisAddr).Info("Publishing episodes to Redis.")
	}
	if cfg.DatabaseURL != "" {
		if err := database.ConnectDB(ctx, cfg.DatabaseURL); err != nil {
			return err
		}
		defer database.CloseDB()
		if err := database.EnsureSchema(ctx); err != nil {
			return err
		}
		log.Info("Recording runs in the database.")
	}

	tr, err := trainer.New(player, env, stat, log)
	if err != nil {
		return err
	}

	if cfg.MonitorAddr != "" {
		hub := monitor.NewHub([]byte(cfg.MonitorSecret), log)
		srv := startMonitor(cfg.MonitorAddr, hub, log)
		defer func() {
			hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		tr.Broadcaster = hub
		if tok, err := monitor.IssueToken([]byte(cfg.MonitorSecret), "operator", 24*time.Hour); err == nil {
			log.WithField("addr", cfg.MonitorAddr).Infof("Monitor listening; connect with ?token=%s", tok)
		}
	}

	res, runErr := tr.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}

	if cfg.Summary {
		sum := stat.Summary()
		if _, err := sum.WriteTo(os.Stdout); err != nil {
			return err
		}
	}
	if cfg.SavePath != "" {
		if err := saveStatistic(stat, cfg.SavePath); err != nil {
			return err
		}
	}
	log.WithFields(logrus.Fields{"episodes": res.Episodes, "run": res.RunID}).Info("Training finished.")
	return nil
}

// parseFlags overrides cfg with command-line flags.
func parseFlags(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("threes", flag.ContinueOnError)
	fs.IntVar(&cfg.Total, "total", cfg.Total, "episodes to play")
	fs.IntVar(&cfg.Block, "block", cfg.Block, "episodes per summary (0: total)")
	fs.IntVar(&cfg.Limit, "limit", cfg.Limit, "episodes kept in memory (0: total)")
	fs.StringVar(&cfg.PlayArgs, "play", cfg.PlayArgs, "player options, e.g. \"name=td alpha=0.003 init=1771561\"")
	fs.StringVar(&cfg.EvilArgs, "evil", cfg.EvilArgs, "environment options, e.g. \"seed=1\"")
	fs.StringVar(&cfg.LoadPath, "load", cfg.LoadPath, "episode log to resume from")
	fs.StringVar(&cfg.SavePath, "save", cfg.SavePath, "episode log to write")
	fs.BoolVar(&cfg.Summary, "summary", cfg.Summary, "print the whole-run summary")
	fs.StringVar(&cfg.WeightsIn, "weights-in", cfg.WeightsIn, "player weight file to load")
	fs.StringVar(&cfg.WeightsOut, "weights-out", cfg.WeightsOut, "player weight file to save")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "Redis address for the episode stream")
	fs.StringVar(&cfg.DatabaseURL, "database", cfg.DatabaseURL, "Postgres URL for run records")
	fs.StringVar(&cfg.MonitorAddr, "monitor", cfg.MonitorAddr, "listen address of the websocket monitor")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "logrus level")
	return fs.Parse(args)
}

func newAgent(opts string) (agent.Agent, error) {
	cfg, err := agent.ParseOptions(opts)
	if err != nil {
		return nil, err
	}
	return agent.New(cfg)
}

func loadStatistic(stat *stats.Statistic, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open episodes: %w", err)
	}
	defer f.Close()
	return stat.Load(f)
}

func saveStatistic(stat *stats.Statistic, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create episodes: %w", err)
	}
	if err := stat.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func startMonitor(addr string, hub *monitor.Hub, log *logrus.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Monitor server stopped.")
		}
	}()
	return srv
}
