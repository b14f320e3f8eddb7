package commands

import (
	"wgward/internal/commands"

	"github.com/spf13/cobra"
)

var statsIncludeAddresses bool
var statsTextfilePath string

var StatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show live peer statistics",
	Long:  `Show the latest handshake and transfer counters of every peer on the running interface`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithService(cmd, func(service *commands.Service) error {
			return service.Stats(cmd.OutOrStdout(), cmd.ErrOrStderr(), statsIncludeAddresses, statsTextfilePath)
		})
	},
}

var ReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Backfill registry records for clients found only in the server config",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithService(cmd, func(service *commands.Service) error {
			return service.Reconcile(cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

func init() {
	StatsCmd.Flags().BoolVar(&statsIncludeAddresses, "ip", false, "Include client addresses and endpoints")
	StatsCmd.Flags().StringVar(&statsTextfilePath, "textfile", "", "Also write metrics to this file in node-exporter textfile format")
}
