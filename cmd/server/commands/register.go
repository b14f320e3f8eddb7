package commands

import (
	"context"
	"fmt"

	"wgward/cmd/server/config"
	"wgward/internal/clientconf"
	"wgward/internal/clients"
	"wgward/internal/commands"
	"wgward/internal/lifecycle"
	"wgward/internal/logger"
	"wgward/internal/metrics"
	"wgward/internal/networkapps"
	"wgward/internal/params"
	"wgward/internal/serverconf"
	"wgward/internal/wg"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	dbInstance        *gorm.DB
	clientsRepository *clients.Repository
	metricsInstance   *metrics.Metrics
	commandsService   *commands.Service
	failed            bool
)

func RegisterCommands(rootCmd *cobra.Command, db *gorm.DB) {
	dbInstance = db
	clientsRepository = clients.NewRepository(db)
	metricsInstance = metrics.New()

	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		writeMetricsTextfile()
	}

	rootCmd.AddCommand(ClientCmd)
	rootCmd.AddCommand(StatsCmd)
	rootCmd.AddCommand(ReconcileCmd)
}

// Failed reports whether any command reported an error.
func Failed() bool {
	return failed
}

func markFailed(err error) {
	if err != nil {
		failed = true
	}
}

// getCommandsService builds the lifecycle manager on first use; building it runs
// reconciliation, which needs the server parameters file.
func getCommandsService(cmd *cobra.Command) (*commands.Service, error) {
	if commandsService != nil {
		return commandsService, nil
	}

	if dbInstance == nil {
		return nil, fmt.Errorf("database is not available at %s", config.Config.DatabasePath)
	}

	serverParams, err := params.Load(config.Config.WireguardParamsPath)

	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()

	if ctx == nil {
		ctx = context.Background()
	}

	editor := serverconf.NewEditor(serverconf.ConfigPath(config.Config.WireguardDir, serverParams.InterfaceName))

	var keyTool wg.KeyTool = wg.NewCLIKeyTool(config.Config.WGBinary, config.Config.ExternalToolTimeout)

	if config.Config.KeyGenerator == "native" {
		keyTool = wg.NativeKeyTool{}
	}

	manager, err := lifecycle.New(ctx, lifecycle.Options{
		Params:      serverParams,
		Registry:    clientsRepository,
		Editor:      editor,
		Allocator:   serverconf.NewAllocator(serverParams.IPv4Base, serverParams.IPv6Base),
		Keys:        wg.NewProvisioner(keyTool),
		ClientFiles: clientconf.NewWriter(config.Config.WireguardClientsDir, serverParams),
		Syncer:      networkapps.NewWireguardSyncer(serverParams.InterfaceName, editor, config.Config.WGBinary, config.Config.ExternalToolTimeout),
		State:       wg.NewDeviceStateReader(config.Config.ExternalToolTimeout),
		Metrics:     metricsInstance,
	})

	if err != nil {
		return nil, err
	}

	commandsService = &commands.Service{
		LocalCommandsService: commands.LocalCommandsService{
			Ctx:     ctx,
			Manager: manager,
			Metrics: metricsInstance,
		},
	}

	return commandsService, nil
}

// runWithService resolves the service or reports why it could not be built.
func runWithService(cmd *cobra.Command, run func(service *commands.Service) error) {
	service, err := getCommandsService(cmd)

	if err != nil {
		cmd.PrintErrf("Failed to initialize client manager: %v\n", err)
		markFailed(err)
		return
	}

	markFailed(run(service))
}

func writeMetricsTextfile() {
	if config.Config.MetricsTextfilePath == "" || commandsService == nil {
		return
	}

	if err := metricsInstance.WriteTextfile(config.Config.MetricsTextfilePath); err != nil {
		logger.Warn("Failed to write metrics to %s: %v", config.Config.MetricsTextfilePath, err)
	}
}
