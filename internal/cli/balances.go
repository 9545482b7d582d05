package cli

import (
	"github.com/spf13/cobra"
)

var balancesFlags struct {
	chain   string
	wallets []string
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show token balances of one or more wallets",
	RunE:  runBalances,
}

func init() {
	balancesCmd.Flags().StringVar(&balancesFlags.chain, "chain", "1", "chain ID or name")
	balancesCmd.Flags().StringSliceVar(&balancesFlags.wallets, "wallets", nil, "comma separated wallet addresses")
	rootCmd.AddCommand(balancesCmd)
}

func runBalances(cmd *cobra.Command, args []string) error {
	chain, err := parseChain(balancesFlags.chain)
	if err != nil {
		return err
	}

	result, err := client.Balances.MultiWallet(cmd.Context(), chain, balancesFlags.wallets)
	if err != nil {
		return err
	}

	out := make(map[string]any, result.Len())
	for wallet, o := range result.Outcomes {
		if o.OK() {
			out[wallet] = o.Value
			continue
		}
		out[wallet] = map[string]any{"error": o.Err.Envelope()}
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{"allSucceeded": result.AllSucceeded, "wallets": out})
}
