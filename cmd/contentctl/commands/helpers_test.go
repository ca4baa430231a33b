package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fivetwenty-io/content-sdk/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// configure points viper at server and resets it when the test ends.
func configure(t *testing.T, server *testutil.Server) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("url", server.URL)
	viper.Set("token", server.Token)
	viper.Set("channel_token", server.Channel)
	viper.Set("output", "json")
	viper.Set("download_dir", t.TempDir())
	viper.Set("poll_interval", time.Millisecond)
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)

	return v
}
