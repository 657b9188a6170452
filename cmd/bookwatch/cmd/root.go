// Package cmd implements the bookwatch CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/bookwatch/internal/api/client"
)

var (
	cfgFile    string
	clientFile string
	rootCmd    = &cobra.Command{
		Use:   "bookwatch",
		Short: "Watch followed books for price changes",
		Long: "bookwatch watches the books a user follows and notifies them when a\n" +
			"price changes. It runs the API server and watch sessions, and doubles\n" +
			"as a command-line client for that API.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "config.yaml", "server config file path")
	rootCmd.PersistentFlags().
		StringVar(&clientFile, "client-config", "", "client config file (default $HOME/.bookwatch.yaml)")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")
	rootCmd.PersistentFlags().
		String("token", "", "bearer token (default from client config or BW_TOKEN)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))
	cobra.CheckErr(viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token")))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCommand())
	rootCmd.AddCommand(signUpCmd())
	rootCmd.AddCommand(signInCmd())
	rootCmd.AddCommand(signOutCmd())
	rootCmd.AddCommand(followedCmd())
	rootCmd.AddCommand(followCmd())
	rootCmd.AddCommand(unfollowCmd())
	rootCmd.AddCommand(priceCmd())
	rootCmd.AddCommand(feedCmd())
	rootCmd.AddCommand(sessionCmd())
}

func initConfig() {
	// A local .env feeds both the ${VAR} references in the server config
	// and the BW_ client settings.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	if clientFile != "" {
		viper.SetConfigFile(clientFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bookwatch")
	}

	viper.SetEnvPrefix("BW")
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"), apiclient.WithToken(viper.GetString("token")))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}
