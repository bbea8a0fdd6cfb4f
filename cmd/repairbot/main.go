// Command repairbot runs the pole repair LINE bot and its maintenance tasks.
//
//	@title						Pole Repair Bot API
//	@version					1.0
//	@description				LINE webhook, LIFF form endpoints and the admin dashboard API for street-light pole repair requests.
//	@BasePath					/api
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

//go:generate swag init --generalInfo main.go --dir ./,../../internal --output ../../docs --parseDependency

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/khayai/repairbot/internal/config"
	"github.com/khayai/repairbot/internal/sysutil"

	_ "time/tzdata"
)

var version = "dev"

// cfg is loaded once by the root command before any subcommand runs.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:           "repairbot",
	Short:         "LINE bot for street-light pole repair requests",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal in containers.
		_ = godotenv.Load()

		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
		sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, countersCmd, adminCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "repairbot %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
