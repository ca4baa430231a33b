package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/fivetwenty-io/content-sdk/pkg/contentclient"
	"github.com/spf13/cobra"
)

// NewItemsCommand creates the items command group.
func NewItemsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Read and publish content items",
	}

	cmd.AddCommand(newItemsListCommand())
	cmd.AddCommand(newItemsGetCommand())
	cmd.AddCommand(newItemsBulkCommand(contentclient.OperationPublish))
	cmd.AddCommand(newItemsBulkCommand(contentclient.OperationUnpublish))

	return cmd
}

func newItemsListCommand() *cobra.Command {
	var (
		query   string
		orderBy []string
		fields  []string
		limit   uint
		offset  uint
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published items",
		Example: `  contentctl items list --query 'type eq "Article"' --order-by name:desc
  contentctl items list --all --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			clauses := parseOrderBy(orderBy)

			list := client.ListItems().TotalResults(true)
			if query != "" {
				list.Query(query)
			}

			if len(clauses) > 0 {
				list.OrderBy(clauses...)
			}

			if len(fields) > 0 {
				list.Fields(fields...)
			}

			if limit > 0 {
				list.Limit(limit)
			}

			if offset > 0 {
				list.Offset(offset)
			}

			var items []content.Item

			if all {
				items, err = list.FetchAll(cmd.Context())
			} else {
				var page *content.Page[content.Item]
				if page, err = list.FetchNext(cmd.Context()); page != nil {
					items = page.Items
				}
			}

			if err != nil {
				return fmt.Errorf("failed to list items: %w", err)
			}

			return render(cmd, items, func(w io.Writer) error {
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					rows = append(rows, []string{item.ID, item.Type, item.Name, orNA(item.Slug), formatAge(item.UpdatedDate)})
				}

				if err := renderTable(w, []string{"id", "type", "name", "slug", "updated"}, rows); err != nil {
					return err
				}

				state := list.State()
				if state.HasMore {
					_, _ = fmt.Fprintf(w, "Showing %d of %d items, use --all or --offset %d for more\n",
						len(items), state.TotalResults, state.Offset)
				}

				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "filter expression, e.g. 'type eq \"Article\"'")
	cmd.Flags().StringSliceVar(&orderBy, "order-by", nil, "sort clauses as field[:asc|desc]")
	cmd.Flags().StringSliceVar(&fields, "fields", nil, "fields to return")
	cmd.Flags().UintVar(&limit, "limit", 0, "page size")
	cmd.Flags().UintVar(&offset, "offset", 0, "index of the first item")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every page")

	return cmd
}

func newItemsGetCommand() *cobra.Command {
	var (
		bySlug bool
		expand bool
	)

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			svc := client.ReadItem(args[0])
			if bySlug {
				svc = client.ReadItemBySlug(args[0])
			}

			if expand {
				svc.ExpandAll()
			}

			item, err := svc.Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get item: %w", err)
			}

			return render(cmd, item, func(w io.Writer) error {
				rows := [][]string{
					{"id", item.ID},
					{"type", item.Type},
					{"name", item.Name},
					{"slug", orNA(item.Slug)},
					{"language", item.Language},
					{"created", formatAge(item.CreatedDate)},
					{"updated", formatAge(item.UpdatedDate)},
				}

				for _, name := range sortedKeys(item.Fields) {
					rows = append(rows, []string{"fields." + name, describeValue(item.Fields[name])})
				}

				return renderTable(w, []string{"property", "value"}, rows)
			})
		},
	}

	cmd.Flags().BoolVar(&bySlug, "slug", false, "treat the argument as a slug")
	cmd.Flags().BoolVar(&expand, "expand", false, "inline referenced items")

	return cmd
}

func newItemsBulkCommand(operation string) *cobra.Command {
	var channels []string

	cmd := &cobra.Command{
		Use:   operation + " ID...",
		Short: strings.ToUpper(operation[:1]) + operation[1:] + " items on channels and wait for completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(channels) == 0 {
				return ErrChannelRequired
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			job := client.PublishItems(channels, args...)
			if operation == contentclient.OperationUnpublish {
				job = client.UnpublishItems(channels, args...)
			}

			status, err := job.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to %s items: %w", operation, err)
			}

			return render(cmd, status, func(w io.Writer) error {
				return renderTable(w, []string{"job", "progress", "completed"}, [][]string{
					{status.ID, status.Progress, strconv.Itoa(status.CompletedPercentage) + "%"},
				})
			})
		},
	}

	cmd.Flags().StringSliceVar(&channels, "channel", nil, "channel id (repeatable)")

	return cmd
}

// parseOrderBy turns "name:desc" into sort clauses.
func parseOrderBy(specs []string) []content.SortClause {
	clauses := make([]content.SortClause, 0, len(specs))

	for _, spec := range specs {
		field, order, _ := strings.Cut(spec, ":")
		clause := content.SortClause{Field: field, Order: content.SortOrder(strings.ToLower(order))}

		if strings.HasPrefix(field, "fields.") {
			clause.UserDefined = true
		}

		clauses = append(clauses, clause)
	}

	return clauses
}
