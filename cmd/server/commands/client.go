package commands

import (
	"wgward/internal/commands"

	"github.com/spf13/cobra"
)

var createdBy int64
var assumeYes bool
var configOutputPath string

var ClientCmd = &cobra.Command{
	Use:   "client",
	Short: "Manage VPN clients",
	Long:  `Add, remove, rename and list WireGuard clients, and print their configurations`,
}

var AddClientCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new client",
	Long: `Add a new client: allocate its IPv4/IPv6 addresses, generate its keys, write its config file,
add it to the server config and apply the change to the running interface.

Client names are 1-15 characters: letters, digits, '_' or '-'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithService(cmd, func(service *commands.Service) error {
			return service.ClientAdd(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], createdBy)
		})
	},
}

var RemoveClientCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a client",
	Long:  `Remove a client: delete its config file, drop it from the server config and the running interface`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if !assumeYes {
			confirmed, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Remove client "+args[0]+"? [y/N] ")

			if err != nil {
				cmd.PrintErrf("%v\n", err)
				markFailed(err)
				return
			}

			if !confirmed {
				cmd.Printf("Aborted\n")
				return
			}
		}

		runWithService(cmd, func(service *commands.Service) error {
			return service.ClientRemove(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		})
	},
}

var RenameClientCmd = &cobra.Command{
	Use:   "rename <old-name> <new-name>",
	Short: "Rename a client",
	Long:  `Rename a client, keeping its keys and addresses. Connected devices keep working without reconfiguration`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runWithService(cmd, func(service *commands.Service) error {
			return service.ClientRename(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1])
		})
	},
}

var ListClientsCmd = &cobra.Command{
	Use:   "list",
	Short: "List clients",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runWithService(cmd, func(service *commands.Service) error {
			return service.ClientList(cmd.OutOrStdout(), cmd.ErrOrStderr())
		})
	},
}

var ClientConfigCmd = &cobra.Command{
	Use:   "config <name>",
	Short: "Print a client's WireGuard config",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runWithService(cmd, func(service *commands.Service) error {
			return service.ClientConfig(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], configOutputPath)
		})
	},
}

func init() {
	AddClientCmd.Flags().Int64Var(&createdBy, "created-by", 0, "ID of the user requesting the client (0 = unknown)")
	RemoveClientCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	ClientConfigCmd.Flags().StringVarP(&configOutputPath, "output", "o", "", "Write the config to this file (mode 0600) instead of stdout")

	ClientCmd.AddCommand(AddClientCmd)
	ClientCmd.AddCommand(RemoveClientCmd)
	ClientCmd.AddCommand(RenameClientCmd)
	ClientCmd.AddCommand(ListClientsCmd)
	ClientCmd.AddCommand(ClientConfigCmd)
}
