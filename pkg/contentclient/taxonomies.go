package contentclient

import (
	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
)

// TaxonomyListService pages through the taxonomies published to a channel.
type TaxonomyListService struct {
	content.Lister[content.Taxonomy]
	content.ChannelScoped[TaxonomyListService]
	content.Pageable[TaxonomyListService]
	content.Countable[TaxonomyListService]
	content.Searchable[TaxonomyListService]
	content.Sortable[TaxonomyListService]
	content.FieldSelectable[TaxonomyListService]
	content.LinkSelectable[TaxonomyListService]
	content.Overridable[TaxonomyListService]
}

// ListTaxonomies lists published taxonomies.
func (c *Client) ListTaxonomies() *TaxonomyListService {
	p := c.delivery(constants.PathTaxonomies)

	s := &TaxonomyListService{Lister: content.NewLister[content.Taxonomy](c.engine, p)}
	ep := content.NewEndpoint(s, p)
	s.ChannelScoped = content.ChannelScoped[TaxonomyListService](ep)
	s.Pageable = content.Pageable[TaxonomyListService](ep)
	s.Countable = content.Countable[TaxonomyListService](ep)
	s.Searchable = content.Searchable[TaxonomyListService](ep)
	s.Sortable = content.Sortable[TaxonomyListService](ep)
	s.FieldSelectable = content.FieldSelectable[TaxonomyListService](ep)
	s.LinkSelectable = content.LinkSelectable[TaxonomyListService](ep)
	s.Overridable = content.Overridable[TaxonomyListService](ep)

	return s
}

// TaxonomyService reads one taxonomy.
type TaxonomyService struct {
	content.Fetcher[content.Taxonomy]
	content.ChannelScoped[TaxonomyService]
	content.FieldSelectable[TaxonomyService]
	content.Expandable[TaxonomyService]
	content.LinkSelectable[TaxonomyService]
	content.Overridable[TaxonomyService]
}

// ReadTaxonomy reads the taxonomy with the given id.
func (c *Client) ReadTaxonomy(id string) *TaxonomyService {
	p := c.delivery(constants.PathTaxonomies+"/"+id).Require("taxonomy id", id)

	s := &TaxonomyService{Fetcher: content.NewFetcher[content.Taxonomy](c.engine, p)}
	ep := content.NewEndpoint(s, p)
	s.ChannelScoped = content.ChannelScoped[TaxonomyService](ep)
	s.FieldSelectable = content.FieldSelectable[TaxonomyService](ep)
	s.Expandable = content.Expandable[TaxonomyService](ep)
	s.LinkSelectable = content.LinkSelectable[TaxonomyService](ep)
	s.Overridable = content.Overridable[TaxonomyService](ep)

	return s
}

// CategoryListService pages through the categories of a taxonomy.
type CategoryListService struct {
	content.Lister[content.Category]
	content.ChannelScoped[CategoryListService]
	content.Pageable[CategoryListService]
	content.Countable[CategoryListService]
	content.Searchable[CategoryListService]
	content.Sortable[CategoryListService]
	content.Expandable[CategoryListService]
	content.LinkSelectable[CategoryListService]
	content.Overridable[CategoryListService]
}

// ListTaxonomyCategories lists the categories of the taxonomy with the given id.
func (c *Client) ListTaxonomyCategories(taxonomyID string) *CategoryListService {
	p := c.delivery(constants.PathTaxonomies+"/"+taxonomyID+"/"+constants.PathCategories).
		Require("taxonomy id", taxonomyID)

	s := &CategoryListService{Lister: content.NewLister[content.Category](c.engine, p)}
	ep := content.NewEndpoint(s, p)
	s.ChannelScoped = content.ChannelScoped[CategoryListService](ep)
	s.Pageable = content.Pageable[CategoryListService](ep)
	s.Countable = content.Countable[CategoryListService](ep)
	s.Searchable = content.Searchable[CategoryListService](ep)
	s.Sortable = content.Sortable[CategoryListService](ep)
	s.Expandable = content.Expandable[CategoryListService](ep)
	s.LinkSelectable = content.LinkSelectable[CategoryListService](ep)
	s.Overridable = content.Overridable[CategoryListService](ep)

	return s
}
