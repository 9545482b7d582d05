package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/dexagg/internal/api"
	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/config"
	"github.com/vietddude/dexagg/internal/core/domain"
)

var (
	cfgPath string
	isDebug bool

	cfg    *config.AppConfig
	client *api.Client
)

var rootCmd = &cobra.Command{
	Use:               "dexagg",
	Short:             "DeFi aggregation API client",
	Long:              `dexagg queries swap quotes, token metadata, prices, balances and portfolios across EVM chains and Solana.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	err := rootCmd.Execute()
	if client != nil {
		_ = client.Close()
	}
	if err != nil {
		if apierr.KindOf(err) == apierr.KindUnknown {
			slog.Error("Command failed", "error", err)
		} else {
			printError(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = loadConfig(cmd)
	if err != nil {
		stylelog.InitDefault()
		return err
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	setupLogging(cmd.ErrOrStderr(), slogLevel, cfg.Logging.Format)

	client, err = api.New(cfg, api.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}
	return nil
}

// loadConfig reads --config. Without an explicit flag a missing file falls
// back to defaults with the API key from the environment.
func loadConfig(cmd *cobra.Command) (*config.AppConfig, error) {
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.Default(), nil
	}
	c, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return c, nil
}

// setupLogging installs the default logger. The json format writes slog
// JSON records to w; anything else gets the colored console handler.
func setupLogging(w io.Writer, level slog.Level, format string) {
	if format == config.LogFormatJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
		return
	}
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printError writes the classified error envelope to w.
func printError(w io.Writer, err error) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]any{"error": apierr.Classify(err).Envelope()})
}

// parseChain accepts a chain ID ("1") or name ("ethereum").
func parseChain(s string) (domain.ChainID, error) {
	if id, ok := domain.ChainNameToID[domain.ChainName(strings.ToUpper(s))]; ok {
		return id, nil
	}
	id := domain.ChainID(s)
	if err := apierr.RequireChain(id); err != nil {
		return "", err
	}
	return id, nil
}
