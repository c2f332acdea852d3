package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/rdv/cmd/kv"
	"github.com/ValentinKolb/rdv/cmd/serve"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rdv",
		Short: "group rendezvous key-value store",
		Long: fmt.Sprintf(`rdv (v%s)

A minimal coordination service for a fixed-size group of cooperating
processes: members exchange small key-value blobs and block until a set
of keys becomes visible before proceeding. One designated member hosts
the coordination daemon; every member talks to it as a client.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rdv",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rdv v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(kv.KeyValueCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
