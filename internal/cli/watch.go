package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
	"github.com/vietddude/dexagg/internal/core/exec"
	"github.com/vietddude/dexagg/internal/health"
)

var watchFlags struct {
	chain    string
	tokens   []string
	interval time.Duration
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll token prices and serve /health and /metrics",
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchFlags.chain, "chain", "1", "chain ID or name")
	watchCmd.Flags().StringSliceVar(&watchFlags.tokens, "tokens", nil, "comma separated token addresses")
	watchCmd.Flags().DurationVar(&watchFlags.interval, "interval", 15*time.Second, "poll interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	chain, err := parseChain(watchFlags.chain)
	if err != nil {
		return err
	}
	if err := apierr.RequireAddresses(chain, "tokens", watchFlags.tokens); err != nil {
		return err
	}
	if watchFlags.interval <= 0 {
		return apierr.Invalid("interval", "must be positive")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := health.NewServer(client.Monitor(), cfg.Server.Port)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Health server listening", "port", cfg.Server.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Stop(shutdownCtx)
	})

	g.Go(func() error {
		pollPrices(gctx, cmd.OutOrStdout(), chain)
		return nil
	})

	slog.Info("Watching prices", "chain", chain, "tokens", len(watchFlags.tokens), "interval", watchFlags.interval)
	err = g.Wait()
	slog.Info("Watch stopped")
	return err
}

// pollPrices re-subscribes to the same cold price operation every tick until ctx ends.
func pollPrices(ctx context.Context, out io.Writer, chain domain.ChainID) {
	prices := exec.Defer(client.Executor(), client.Prices.PricesOp(chain, watchFlags.tokens))
	observer := exec.Observer[domain.Prices]{
		OnSuccess: func(p domain.Prices) {
			if err := printJSON(out, map[string]any{"at": time.Now().UTC(), "prices": p}); err != nil {
				slog.Error("Failed to write prices", "error", err)
			}
		},
		OnError: func(err *apierr.Error) {
			slog.Warn("Price poll failed", "kind", err.Kind(), "error", err)
		},
	}

	ticker := time.NewTicker(watchFlags.interval)
	defer ticker.Stop()

	for {
		sub := prices.Subscribe(ctx, observer)
		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case <-sub.Done():
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
