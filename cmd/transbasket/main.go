// Command transbasket runs the translation proxy daemon and its
// maintenance tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/transbasket"
)

var rootCmd = &cobra.Command{
	Use:           "transbasket",
	Short:         transbasket.Description,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newCacheCmd(),
		newVersionCmd(),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n", transbasket.Name, transbasket.FullVersion())
			if transbasket.BuildDate != "unknown" {
				fmt.Printf("  built: %s\n", transbasket.BuildDate)
			}
		},
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
