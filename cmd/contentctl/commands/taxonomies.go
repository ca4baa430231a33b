package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/spf13/cobra"
)

// NewTaxonomiesCommand creates the taxonomies command group.
func NewTaxonomiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "taxonomies",
		Aliases: []string{"taxonomy", "tax"},
		Short:   "Browse published taxonomies and their categories",
	}

	cmd.AddCommand(newTaxonomiesListCommand())
	cmd.AddCommand(newTaxonomiesGetCommand())
	cmd.AddCommand(newTaxonomiesCategoriesCommand())

	return cmd
}

func newTaxonomiesListCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published taxonomies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			taxonomies, err := client.ListTaxonomies().Query(query).FetchAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list taxonomies: %w", err)
			}

			return render(cmd, taxonomies, func(w io.Writer) error {
				rows := make([][]string, 0, len(taxonomies))
				for _, t := range taxonomies {
					rows = append(rows, []string{t.ID, t.Name, orNA(t.ShortName), orNA(t.Status)})
				}

				return renderTable(w, []string{"id", "name", "short name", "status"}, rows)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter expression")

	return cmd
}

func newTaxonomiesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one taxonomy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			taxonomy, err := client.ReadTaxonomy(args[0]).Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get taxonomy: %w", err)
			}

			return render(cmd, taxonomy, func(w io.Writer) error {
				return renderTable(w, []string{"property", "value"}, [][]string{
					{"id", taxonomy.ID},
					{"name", taxonomy.Name},
					{"short name", orNA(taxonomy.ShortName)},
					{"status", orNA(taxonomy.Status)},
					{"version", orNA(taxonomy.Version)},
					{"publishable", strconv.FormatBool(taxonomy.IsPublishable)},
					{"updated", formatAge(taxonomy.UpdatedDate)},
				})
			})
		},
	}
}

func newTaxonomiesCategoriesCommand() *cobra.Command {
	var orderBy []string

	cmd := &cobra.Command{
		Use:   "categories TAXONOMY_ID",
		Short: "List the categories of a taxonomy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			list := client.ListTaxonomyCategories(args[0])
			if len(orderBy) > 0 {
				list.OrderBy(parseOrderBy(orderBy)...)
			}

			var categories []content.Category

			err = list.ForEach(cmd.Context(), func(c content.Category) error {
				categories = append(categories, c)
				return nil
			})
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}

			return render(cmd, categories, func(w io.Writer) error {
				rows := make([][]string, 0, len(categories))
				for _, c := range categories {
					parent := NotAvailable
					if c.Parent != nil {
						parent = c.Parent.Name
					}

					rows = append(rows, []string{c.ID, c.Name, orNA(c.APIName), parent, strconv.Itoa(c.Position)})
				}

				return renderTable(w, []string{"id", "name", "api name", "parent", "position"}, rows)
			})
		},
	}

	cmd.Flags().StringSliceVar(&orderBy, "order-by", nil, "sort clauses as field[:asc|desc]")

	return cmd
}
