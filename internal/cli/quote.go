package cli

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/vietddude/dexagg/internal/core/apierr"
	"github.com/vietddude/dexagg/internal/core/domain"
)

var quoteFlags struct {
	chain  string
	src    string
	dst    string
	amount string
	fee    string
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote a swap",
	RunE:  runQuote,
}

func init() {
	quoteCmd.Flags().StringVar(&quoteFlags.chain, "chain", "1", "chain ID or name")
	quoteCmd.Flags().StringVar(&quoteFlags.src, "src", "", "source token address")
	quoteCmd.Flags().StringVar(&quoteFlags.dst, "dst", "", "destination token address")
	quoteCmd.Flags().StringVar(&quoteFlags.amount, "amount", "", "amount of source token in base units")
	quoteCmd.Flags().StringVar(&quoteFlags.fee, "fee", "0", "integrator fee in percent")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	chain, err := parseChain(quoteFlags.chain)
	if err != nil {
		return err
	}
	fee, err := decimal.NewFromString(quoteFlags.fee)
	if err != nil {
		return apierr.Invalid("fee", "not a number")
	}

	quote, err := client.Swap.Quote(cmd.Context(), domain.QuoteRequest{
		ChainID: chain,
		Src:     quoteFlags.src,
		Dst:     quoteFlags.dst,
		Amount:  quoteFlags.amount,
		Fee:     fee,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), quote)
}
