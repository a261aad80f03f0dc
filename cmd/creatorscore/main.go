// Command creatorscore scores a creator account from its public
// listing: deterministic account and engagement arithmetic plus an
// optional AI content-quality pass, reduced to one composite score.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"creatorscore/internal/collector"
	"creatorscore/internal/config"
	"creatorscore/internal/contentapi"
	"creatorscore/internal/evaluator"
	"creatorscore/internal/logging"
	"creatorscore/internal/metrics"
	"creatorscore/internal/pipeline"
	"creatorscore/internal/store"
)

var configPath string

func main() {
	// Local development keeps credentials in .env; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "creatorscore",
		Short:         "Creator scoring pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "creatorscore.yaml", "path to the YAML config")
	root.AddCommand(initCmd(), scoreCmd(), cacheCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when the
// file does not exist so `score` works out of the box with env keys.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		cfg.ResolveEnv()
		return cfg, cfg.Validate()
	}
	return config.Config{}, err
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists", configPath)
			}
			if err := config.Save(configPath, config.Default()); err != nil {
				return err
			}
			fmt.Println("wrote", configPath)
			return nil
		},
	}
}

func scoreCmd() *cobra.Command {
	var keyword string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "score <username>",
		Short: "Score one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if keyword != "" {
				cfg.Windows.Keyword = keyword
			}
			log := logging.New(cfg.Logging)
			metrics.StartServer(cfg.MetricsAddr)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := contentapi.NewClient(cfg.Upstream, log)
			col := collector.New(client, cfg.Upstream, cfg.Windows, log)
			eval := evaluator.New(client, cfg.Evaluator, log)

			var cache pipeline.ScoreCache
			if cfg.Cache.Enabled && !noCache {
				st, err := store.Open(cfg.Cache, log)
				if err != nil {
					log.Warn().Err(err).Msg("cache unavailable, scoring without it")
				} else {
					defer st.Close()
					cache = st
				}
			}

			score, err := pipeline.New(client, col, eval, cache, cfg, log).Run(ctx, args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(score, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&keyword, "keyword", "", "topic keyword; filters the recent window and enables AI evaluation")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the score cache for this run")
	return cmd
}

func cacheCmd() *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage the score cache",
	}
	cache.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Drop every cached score",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging)
			st, err := store.Open(cfg.Cache, log)
			if err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("purged %d cached scores\n", n)
			return nil
		},
	})
	return cache
}
