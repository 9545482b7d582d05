package cli

import (
	"github.com/spf13/cobra"
)

var tokensFlags struct {
	chain   string
	address string
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List tokens of a chain or show one token",
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().StringVar(&tokensFlags.chain, "chain", "1", "chain ID or name")
	tokensCmd.Flags().StringVar(&tokensFlags.address, "address", "", "show a single token")
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	chain, err := parseChain(tokensFlags.chain)
	if err != nil {
		return err
	}

	if tokensFlags.address != "" {
		token, err := client.Tokens.Token(cmd.Context(), chain, tokensFlags.address)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), token)
	}

	tokens, err := client.Tokens.List(cmd.Context(), chain)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), tokens)
}
