package commands_test

import (
	"testing"

	"github.com/fivetwenty-io/content-sdk/cmd/contentctl/commands"
	"github.com/fivetwenty-io/content-sdk/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTaxonomy(server *testutil.Server) {
	server.AddTaxonomy(
		testutil.Object{"id": "TAX1", "name": "Regions", "shortName": "REG", "status": "published"},
		testutil.Object{"id": "CAT1", "name": "Europe", "apiName": "europe", "position": 0},
		testutil.Object{
			"id":       "CAT2",
			"name":     "France",
			"position": 1,
			"parent":   testutil.Object{"id": "CAT1", "name": "Europe"},
		},
	)
}

func TestTaxonomiesList(t *testing.T) {
	server := testutil.NewServer(t)
	seedTaxonomy(server)
	configure(t, server)

	out, err := execute(t, commands.NewTaxonomiesCommand(), "list")
	require.NoError(t, err)

	taxonomies := decode[[]map[string]interface{}](t, out)
	require.Len(t, taxonomies, 1)
	assert.Equal(t, "Regions", taxonomies[0]["name"])
}

func TestTaxonomiesGet(t *testing.T) {
	server := testutil.NewServer(t)
	seedTaxonomy(server)
	configure(t, server)
	viper.Set("output", "yaml")

	out, err := execute(t, commands.NewTaxonomiesCommand(), "get", "TAX1")
	require.NoError(t, err)
	assert.Contains(t, out, "shortName: REG")
}

func TestTaxonomiesCategories(t *testing.T) {
	server := testutil.NewServer(t)
	seedTaxonomy(server)
	configure(t, server)
	viper.Set("output", "table")

	out, err := execute(t, commands.NewTaxonomiesCommand(), "categories", "TAX1")
	require.NoError(t, err)

	assert.Contains(t, out, "Europe")
	assert.Contains(t, out, "France")
	assert.Contains(t, out, "europe")
}

func TestTaxonomiesCategories_UnknownTaxonomy(t *testing.T) {
	server := testutil.NewServer(t)
	configure(t, server)

	_, err := execute(t, commands.NewTaxonomiesCommand(), "categories", "NOPE")
	require.Error(t, err)
}
