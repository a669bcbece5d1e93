package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"courtside/internal/api"
	"courtside/internal/config"
	"courtside/internal/db"
	"courtside/pkg/event"
	"courtside/pkg/feed"
	"courtside/pkg/live"
	"courtside/pkg/member"
	"courtside/pkg/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "courtside",
		Short:         "Live-synced team performance tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "courtside.yaml", "config file path")

	root.AddCommand(newServeCmd(&cfgPath))
	root.AddCommand(newInitCmd(&cfgPath))
	root.AddCommand(newWatchCmd(&cfgPath))
	root.AddCommand(newMemberCmd(&cfgPath))
	root.AddCommand(newSessionCmd(&cfgPath))
	root.AddCommand(newEventCmd(&cfgPath))
	root.AddCommand(newTypeCmd(&cfgPath))
	return root
}

// connect loads config and opens the pool; callers own pool.Close.
func connect(ctx context.Context, cfgPath string) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}

// ensureSchema creates tables in dependency order, then the notify
// triggers that drive the change feed.
func ensureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if err := member.NewPgStore(pool).EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure members: %w", err)
	}
	if err := session.NewPgStore(pool).EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure sessions: %w", err)
	}
	if err := session.NewPgTypeStore(pool).EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure session types: %w", err)
	}
	if err := event.NewPgStore(pool).EnsureTable(ctx); err != nil {
		return fmt.Errorf("ensure events: %w", err)
	}
	if err := feed.EnsureTriggers(ctx, pool); err != nil {
		return fmt.Errorf("ensure triggers: %w", err)
	}
	return nil
}

func newInitCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create tables and change-feed triggers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			_, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()
			return ensureSchema(ctx, pool)
		},
	}
}

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server and change-feed consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := ensureSchema(ctx, pool); err != nil {
				return err
			}

			cache := live.New(cfg.Team,
				member.NewPgStore(pool),
				session.NewPgStore(pool),
				event.NewPgStore(pool),
				session.NewPgTypeStore(pool))
			if err := cache.Load(ctx); err != nil {
				return fmt.Errorf("initial load: %w", err)
			}

			srv := &http.Server{
				Addr:    cfg.Listen,
				Handler: api.New(cache),
			}

			listener := feed.NewListener(pool, cfg.Team)
			listener.OnSubscribe = cache.Load

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return listener.Run(ctx, cache.Apply)
			})
			g.Go(func() error {
				slog.Info("courtside listening", "addr", cfg.Listen, "team", cfg.Team)
				if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func newWatchCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the team's change feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, pool, err := connect(ctx, *cfgPath)
			if err != nil {
				return err
			}
			defer pool.Close()

			err = feed.NewListener(pool, cfg.Team).Run(ctx, func(ch feed.Change) {
				printJSON(ch)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
