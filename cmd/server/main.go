package main

import (
	"fmt"
	"os"

	"wgward/cmd/server/commands"
	"wgward/cmd/server/config"
	"wgward/internal/database"
	"wgward/internal/logger"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "wgward",
	Short: "Lifecycle manager for WireGuard clients",
	Long: `wgward manages the clients of a WireGuard server: it allocates their addresses, generates their keys,
writes their config files, keeps the server config in sync and applies changes to the running interface
without dropping existing connections.

Server facts (public IP, port, public key, DNS, tunnel addresses) are read from the parameters file
written by the server installer (WIREGUARD_PARAMS_PATH, default /etc/wireguard/params).

Quick start:

wgward client add alice
wgward client config alice -o alice.conf
wgward stats --ip

Clients added by hand to the server config under a "### Client <name>" header are picked up
automatically on the next run (or explicitly with 'wgward reconcile').
`,
	Version: fmt.Sprintf("%s; db path: %s; wireguard dir: %s", version, config.Config.DatabasePath, config.WireguardDir),
}

func main() {
	logger.SetLevel(logger.ParseLevel(config.Config.LogLevel))

	db, err := database.InitDB(config.Config.DatabasePath)

	if err != nil {
		rootCmd.PrintErrf("Failed to initialize database at %s: %v\n", config.Config.DatabasePath, err)
	}

	commands.RegisterCommands(rootCmd, db)

	exitCode := 0

	if err := rootCmd.Execute(); err != nil || commands.Failed() {
		exitCode = 1
	}

	if db != nil {
		if err := database.CloseDB(db); err != nil {
			rootCmd.PrintErrf("Failed to close database: %v\n", err)
		}
	}

	os.Exit(exitCode)
}
