package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/brogergvhs/noveld/internal/providers"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	flagIgnoreConfig bool
	flagDebug        bool
)

var rootCmd = &cobra.Command{
	Use:   "noveld",
	Short: "Web novel downloader with EPUB output",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env only fills variables that are not already set
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
		}
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the noveld version and the supported sites",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("noveld version:", Version)
		fmt.Println("sites:", strings.Join(providers.Names(), ", "))
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
