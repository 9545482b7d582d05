package cli

import (
	"github.com/spf13/cobra"

	"github.com/vietddude/dexagg/internal/core/domain"
)

var portfolioFlags struct {
	wallets []string
	chains  []string
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show the current value of wallets",
	Long: `Without --chains the combined value of all wallets is shown. With --chains the
first wallet is valued on each chain separately.`,
	RunE: runPortfolio,
}

func init() {
	portfolioCmd.Flags().StringSliceVar(&portfolioFlags.wallets, "wallets", nil, "comma separated wallet addresses")
	portfolioCmd.Flags().StringSliceVar(&portfolioFlags.chains, "chains", nil, "comma separated chain IDs or names")
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	if len(portfolioFlags.chains) == 0 || len(portfolioFlags.wallets) == 0 {
		overview, err := client.Portfolio.Overview(cmd.Context(), portfolioFlags.wallets)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), overview)
	}

	chains := make([]domain.ChainID, 0, len(portfolioFlags.chains))
	for _, c := range portfolioFlags.chains {
		id, err := parseChain(c)
		if err != nil {
			return err
		}
		chains = append(chains, id)
	}

	result, err := client.Portfolio.MultiChain(cmd.Context(), portfolioFlags.wallets[0], chains)
	if err != nil {
		return err
	}

	out := make(map[domain.ChainID]any, result.Len())
	for chain, o := range result.Outcomes {
		if o.OK() {
			out[chain] = o.Value
			continue
		}
		out[chain] = map[string]any{"error": o.Err.Envelope()}
	}
	return printJSON(cmd.OutOrStdout(), map[string]any{"allSucceeded": result.AllSucceeded, "chains": out})
}
