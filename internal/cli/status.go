package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var statusChain string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the upstream API and show transport health",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusChain, "chain", "1", "chain used for the check request")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	chain, err := parseChain(statusChain)
	if err != nil {
		return err
	}

	_, checkErr := client.Tokens.List(cmd.Context(), chain)
	if checkErr != nil {
		slog.Warn("Check request failed", "chain", chain, "error", checkErr)
	}

	stats := client.Monitor().Stats()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "STATUS\tREQUESTS\tFAILURES\tAVG LATENCY\tRETRY AFTER")
	_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
		stats.StatusName, stats.Requests, stats.Failures, stats.AverageLatency, stats.RetryAfter)
	_ = w.Flush()

	return checkErr
}
