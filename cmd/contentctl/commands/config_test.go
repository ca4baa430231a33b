package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fivetwenty-io/content-sdk/cmd/contentctl/commands"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func useConfigFile(t *testing.T) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(path)
	viper.Set("output", "json")

	return path
}

func TestConfigCommand_Structure(t *testing.T) {
	cmd := commands.NewConfigCommand()

	for _, name := range []string{"show", "set", "unset"} {
		assert.NotNil(t, findSubcommand(cmd, name), name)
	}
}

func TestConfigSetAndShow(t *testing.T) {
	path := useConfigFile(t)

	_, err := execute(t, commands.NewConfigCommand(), "set", "url", "https://content.example.com")
	require.NoError(t, err)

	_, err = execute(t, commands.NewConfigCommand(), "set", "token", "secret")
	require.NoError(t, err)

	_, err = execute(t, commands.NewConfigCommand(), "set", "retries", "3")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved commands.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "https://content.example.com", saved.URL)
	assert.Equal(t, "secret", saved.Token)
	assert.Equal(t, 3, saved.Retries)

	out, err := execute(t, commands.NewConfigCommand(), "show")
	require.NoError(t, err)

	shown := decode[commands.Config](t, out)
	assert.Equal(t, "https://content.example.com", shown.URL)
	assert.Equal(t, "***", shown.Token)
}

func TestConfigUnset(t *testing.T) {
	path := useConfigFile(t)

	_, err := execute(t, commands.NewConfigCommand(), "set", "channel_token", "abc")
	require.NoError(t, err)

	_, err = execute(t, commands.NewConfigCommand(), "unset", "channel_token")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "abc")
}

func TestConfigSet_Invalid(t *testing.T) {
	useConfigFile(t)

	_, err := execute(t, commands.NewConfigCommand(), "set", "colour", "blue")
	require.ErrorIs(t, err, commands.ErrUnknownConfigKey)

	_, err = execute(t, commands.NewConfigCommand(), "set", "retries", "many")
	require.Error(t, err)
}
