package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration.
type Config struct {
	URL          string `json:"url,omitempty"           yaml:"url,omitempty"`
	Token        string `json:"token,omitempty"         yaml:"token,omitempty"`
	ChannelToken string `json:"channel_token,omitempty" yaml:"channel_token,omitempty"`
	Output       string `json:"output,omitempty"        yaml:"output,omitempty"`
	CacheDir     string `json:"cache_dir,omitempty"     yaml:"cache_dir,omitempty"`
	CacheStore   string `json:"cache_store,omitempty"   yaml:"cache_store,omitempty"`
	DownloadDir  string `json:"download_dir,omitempty"  yaml:"download_dir,omitempty"`
	Retries      int    `json:"retries,omitempty"       yaml:"retries,omitempty"`
	Debug        bool   `json:"debug,omitempty"         yaml:"debug,omitempty"`
}

// ConfigDir returns the directory holding config.yml.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".contentctl"), nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the settings stored in ~/.contentctl/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			shown := *config
			if shown.Token != "" {
				shown.Token = "***"
			}

			return render(cmd, shown, func(w io.Writer) error {
				return renderTable(w, []string{"property", "value"}, [][]string{
					{"url", orNA(shown.URL)},
					{"token", orNA(shown.Token)},
					{"channel_token", orNA(shown.ChannelToken)},
					{"output", orNA(shown.Output)},
					{"cache_dir", orNA(shown.CacheDir)},
					{"cache_store", orNA(shown.CacheStore)},
					{"download_dir", orNA(shown.DownloadDir)},
					{"retries", strconv.Itoa(shown.Retries)},
					{"debug", strconv.FormatBool(shown.Debug)},
				})
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := setConfigValue(config, args[0], args[1]); err != nil {
				return err
			}

			if err := saveConfig(config); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", args[0])

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			if err := setConfigValue(config, args[0], ""); err != nil {
				return err
			}

			if err := saveConfig(config); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func loadConfig() *Config {
	return &Config{
		URL:          viper.GetString("url"),
		Token:        viper.GetString("token"),
		ChannelToken: viper.GetString("channel_token"),
		Output:       viper.GetString("output"),
		CacheDir:     viper.GetString("cache_dir"),
		CacheStore:   viper.GetString("cache_store"),
		DownloadDir:  viper.GetString("download_dir"),
		Retries:      viper.GetInt("retries"),
		Debug:        viper.GetBool("debug"),
	}
}

func setConfigValue(config *Config, key, value string) error {
	switch key {
	case "url":
		config.URL = value
	case "token":
		config.Token = value
	case "channel_token":
		config.ChannelToken = value
	case "output":
		config.Output = value
	case "cache_dir":
		config.CacheDir = value
	case "cache_store":
		config.CacheStore = value
	case "download_dir":
		config.DownloadDir = value
	case "retries":
		if value == "" {
			config.Retries = 0

			break
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value %q: %w", value, err)
		}

		config.Retries = n
	case "debug":
		config.Debug = value == "true" || value == "1"
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	viper.Set(key, value)

	return nil
}

func saveConfig(config *Config) error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		dir, err := ConfigDir()
		if err != nil {
			return err
		}

		configFile = filepath.Join(dir, "config.yml")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(configFile, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
