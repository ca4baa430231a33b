package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fivetwenty-io/content-sdk/cmd/contentctl/commands"
	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags maps persistent flags to their viper keys.
var globalFlags = map[string]string{
	"url":           "url",
	"token":         "token",
	"channel-token": "channel_token",
	"output":        "output",
	"debug":         "debug",
	"cache-dir":     "cache_dir",
	"cache-store":   "cache_store",
	"download-dir":  "download_dir",
	"retries":       "retries",
	"poll-interval": "poll_interval",
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "contentctl",
		Short: "Content delivery and management CLI",
		Long: `A command-line interface for reading published content.

It lists and reads items, assets and taxonomies, downloads asset renditions
through an optional local cache and runs bulk publish jobs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.contentctl/config.yml)")
	flags.String("url", "", "content server URL")
	flags.StringP("token", "t", "", "bearer token")
	flags.String("channel-token", "", "channel token for published content")
	flags.StringP("output", "o", "", "output format (table, json, yaml)")
	flags.Bool("debug", false, "log requests to stderr")
	flags.String("cache-dir", "", "cache downloads below this directory")
	flags.String("cache-store", "", "cache entry store (disk, sqlite)")
	flags.String("download-dir", "", "directory for fresh downloads")
	flags.Int("retries", 0, "maximum retries for failed requests")
	flags.Duration("poll-interval", 0, "interval between bulk job status checks")

	_ = viper.BindPFlag("config", flags.Lookup("config"))

	for flag, key := range globalFlags {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewItemsCommand())
	rootCmd.AddCommand(commands.NewAssetsCommand())
	rootCmd.AddCommand(commands.NewTaxonomiesCommand())

	return rootCmd
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := commands.ConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := os.MkdirAll(configDir, constants.ConfigDirPerm); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("CONTENTCTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("debug") {
		fmt.Fprintln(os.Stderr, "Using config file:", filepath.Clean(viper.ConfigFileUsed()))
	}
}

func main() {
	cobra.OnInitialize(initConfig)

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
