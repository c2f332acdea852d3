package kv

import (
	"github.com/ValentinKolb/rdv/cmd/util"
	"github.com/ValentinKolb/rdv/lib/store"
	"github.com/ValentinKolb/rdv/rpc/client"
	"github.com/ValentinKolb/rdv/rpc/common"
	"github.com/spf13/cobra"
)

var (
	rpcStore store.IGroupStore

	// KeyValueCommands represents the KV command group
	KeyValueCommands = &cobra.Command{
		Use:               "kv",
		Short:             "Perform key-value operations against a running daemon",
		Long:              util.WrapString("Connect to a running rdv daemon as one group member and perform key-value operations. The connection occupies one of the daemon's world-size slots, so the daemon must be started with a world size that accounts for it."),
		PersistentPreRunE: setupKVClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common client flags to the KV command
	util.SetupClientFlags(KeyValueCommands)

	// Add subcommands
	KeyValueCommands.AddCommand(setCmd)
	KeyValueCommands.AddCommand(getCmd)
	KeyValueCommands.AddCommand(waitCmd)
	KeyValueCommands.AddCommand(perfTestCmd)
}

// setupKVClient connects to the daemon as a group member
func setupKVClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	common.InitLoggers(util.GetLogLevel())

	// Get client configuration
	config := util.GetClientConfig()

	// Create the group store client
	var err error
	rpcStore, err = client.NewGroupStore(*config)

	return err
}
