package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/obnet/cmd/gen"
)

var rootCmd = &cobra.Command{
	Use:   "obnet",
	Short: "A client for obby collaborative-editing servers",
	Long: `obnet is a terminal client for the obby/net6 collaborative-editing
protocol. It connects to a server, joins the chatroom, and tracks the
roster of users and shared documents.`,
}

func init() {
	rootCmd.AddCommand(ConnectCmd)
	rootCmd.AddCommand(VersionCmd)
	rootCmd.AddCommand(gen.RootCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
