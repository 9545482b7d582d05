package cli

import (
	"github.com/spf13/cobra"

	"github.com/vietddude/dexagg/internal/api"
)

var pricesFlags struct {
	chain  string
	tokens []string
	batch  int
}

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Show USD prices of tokens",
	RunE:  runPrices,
}

func init() {
	pricesCmd.Flags().StringVar(&pricesFlags.chain, "chain", "1", "chain ID or name")
	pricesCmd.Flags().StringSliceVar(&pricesFlags.tokens, "tokens", nil, "comma separated token addresses")
	pricesCmd.Flags().IntVar(&pricesFlags.batch, "batch", api.DefaultPriceBatch, "tokens per upstream request")
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(cmd *cobra.Command, args []string) error {
	chain, err := parseChain(pricesFlags.chain)
	if err != nil {
		return err
	}

	prices, failed, err := client.Prices.PricesBatched(cmd.Context(), chain, pricesFlags.tokens, pricesFlags.batch)
	if err != nil {
		return err
	}

	out := map[string]any{"prices": prices}
	if len(failed) > 0 {
		errs := make(map[string]any, len(failed))
		for token, e := range failed {
			errs[token] = e.Envelope()
		}
		out["errors"] = errs
	}
	return printJSON(cmd.OutOrStdout(), out)
}
