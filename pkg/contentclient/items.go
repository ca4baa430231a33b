package contentclient

import (
	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
)

// ItemListService pages through published items.
type ItemListService struct {
	content.Lister[content.Item]
	content.ChannelScoped[ItemListService]
	content.Pageable[ItemListService]
	content.Countable[ItemListService]
	content.Searchable[ItemListService]
	content.Sortable[ItemListService]
	content.FieldSelectable[ItemListService]
	content.Expandable[ItemListService]
	content.LinkSelectable[ItemListService]
	content.Overridable[ItemListService]
}

// ListItems lists published items.
//
//	items, err := client.ListItems().
//		Query(`type eq "Article"`).
//		OrderBy(content.SortClause{Field: "name", Order: content.Ascending}).
//		Limit(20).
//		FetchNext(ctx)
func (c *Client) ListItems() *ItemListService {
	p := c.delivery(constants.PathItems)

	s := &ItemListService{Lister: content.NewLister[content.Item](c.engine, p)}
	ep := content.NewEndpoint(s, p)
	s.ChannelScoped = content.ChannelScoped[ItemListService](ep)
	s.Pageable = content.Pageable[ItemListService](ep)
	s.Countable = content.Countable[ItemListService](ep)
	s.Searchable = content.Searchable[ItemListService](ep)
	s.Sortable = content.Sortable[ItemListService](ep)
	s.FieldSelectable = content.FieldSelectable[ItemListService](ep)
	s.Expandable = content.Expandable[ItemListService](ep)
	s.LinkSelectable = content.LinkSelectable[ItemListService](ep)
	s.Overridable = content.Overridable[ItemListService](ep)

	return s
}

// ItemService reads a single published item.
type ItemService struct {
	content.Fetcher[content.Item]
	content.ChannelScoped[ItemService]
	content.FieldSelectable[ItemService]
	content.Expandable[ItemService]
	content.LinkSelectable[ItemService]
	content.Overridable[ItemService]
}

// ReadItem reads the item with the given id.
func (c *Client) ReadItem(id string) *ItemService {
	p := c.delivery(constants.PathItems+"/"+id).Require("item id", id)

	return newItemService(c, p)
}

// ReadItemBySlug reads the item with the given slug.
func (c *Client) ReadItemBySlug(slug string) *ItemService {
	p := c.delivery(constants.PathItems+"/.by.slug/"+slug).Require("item slug", slug)

	return newItemService(c, p)
}

func newItemService(c *Client, p *content.RequestParameters) *ItemService {
	s := &ItemService{Fetcher: content.NewFetcher[content.Item](c.engine, p)}
	ep := content.NewEndpoint(s, p)
	s.ChannelScoped = content.ChannelScoped[ItemService](ep)
	s.FieldSelectable = content.FieldSelectable[ItemService](ep)
	s.Expandable = content.Expandable[ItemService](ep)
	s.LinkSelectable = content.LinkSelectable[ItemService](ep)
	s.Overridable = content.Overridable[ItemService](ep)

	return s
}
