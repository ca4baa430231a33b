package content

import "encoding/json"

// Link is a hypermedia link.
type Link struct {
	Href      string `json:"href"                yaml:"href"`
	Rel       string `json:"rel"                 yaml:"rel"`
	Method    string `json:"method,omitempty"    yaml:"method,omitempty"`
	MediaType string `json:"mediaType,omitempty" yaml:"mediaType,omitempty"`
}

// Links is the list of links attached to a resource.
type Links []Link

// Find returns the href of the first link with the given relation.
func (l Links) Find(rel LinkType) (string, bool) {
	for _, link := range l {
		if link.Rel == string(rel) {
			return link.Href, true
		}
	}

	return "", false
}

// Page is one page of a list response.
type Page[T any] struct {
	HasMore      bool  `json:"hasMore"`
	Offset       uint  `json:"offset"`
	Count        uint  `json:"count"`
	Limit        uint  `json:"limit"`
	TotalResults uint  `json:"totalResults"`
	Items        []T   `json:"items"`
	Links        Links `json:"links,omitempty"`
}

type wirePage[T any] struct {
	HasMore      *bool `json:"hasMore"`
	Offset       *uint `json:"offset"`
	Count        *uint `json:"count"`
	Limit        *uint `json:"limit"`
	TotalResults *uint `json:"totalResults"`
	Items        []T   `json:"items"`
	Links        Links `json:"links"`
}

// decodePage decodes a list response, filling absent fields with defaults:
// hasMore false, offset the requested offset, limit the requested limit,
// count the number of items and totalResults zero.
func decodePage[T any](body []byte, offset, limit uint) (*Page[T], error) {
	var w wirePage[T]
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, wrapError(KindInvalidDataReturned, err, "failed to decode list response")
	}

	p := &Page[T]{
		HasMore:      boolOr(w.HasMore, false),
		Offset:       uintOr(w.Offset, offset),
		Count:        uintOr(w.Count, uint(len(w.Items))),
		Limit:        uintOr(w.Limit, limit),
		TotalResults: uintOr(w.TotalResults, 0),
		Items:        w.Items,
		Links:        w.Links,
	}

	if p.Items == nil {
		p.Items = []T{}
	}

	return p, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}

	return *v
}

func uintOr(v *uint, def uint) uint {
	if v == nil {
		return def
	}

	return *v
}

func stringOr(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}

	return *v
}

// Item is a content item.
type Item struct {
	ID           string           `json:"id"                     yaml:"id"`
	Type         string           `json:"type"                   yaml:"type"`
	Name         string           `json:"name"                   yaml:"name"`
	Description  string           `json:"description,omitempty"  yaml:"description,omitempty"`
	Slug         string           `json:"slug,omitempty"         yaml:"slug,omitempty"`
	Language     string           `json:"language,omitempty"     yaml:"language,omitempty"`
	Translatable bool             `json:"translatable"           yaml:"translatable"`
	CreatedDate  Date             `json:"createdDate"            yaml:"createdDate"`
	UpdatedDate  Date             `json:"updatedDate"            yaml:"updatedDate"`
	Fields       map[string]Value `json:"fields,omitempty"       yaml:"-"`
	Taxonomies   *Value           `json:"taxonomies,omitempty"   yaml:"-"`
	Links        Links            `json:"links,omitempty"        yaml:"links,omitempty"`
}

// UnmarshalJSON applies defaults: a missing fields object decodes as empty and
// a missing language as "und".
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item

	var w struct {
		plain
		Language *string `json:"language"`
	}

	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*i = Item(w.plain)
	i.Language = stringOr(w.Language, "und")

	if i.Fields == nil {
		i.Fields = map[string]Value{}
	}

	return nil
}

// Field returns a user-defined field, or null.
func (i *Item) Field(name string) Value {
	return i.Fields[name]
}

// RenditionFormat is one encoding of a rendition.
type RenditionFormat struct {
	Format   string           `json:"format"             yaml:"format"`
	Size     int64            `json:"size"               yaml:"size"`
	MimeType string           `json:"mimeType"           yaml:"mimeType"`
	Metadata map[string]Value `json:"metadata,omitempty" yaml:"-"`
	Links    Links            `json:"links,omitempty"    yaml:"-"`
}

// Rendition describes a derived form of an asset.
type Rendition struct {
	Name    string            `json:"name"    yaml:"name"`
	Type    string            `json:"type"    yaml:"type"`
	Formats []RenditionFormat `json:"formats" yaml:"formats"`
}

// AdvancedVideoInfo carries metadata for videos hosted by an external provider.
type AdvancedVideoInfo struct {
	Provider   string                      `json:"provider"   yaml:"provider"`
	Properties AdvancedVideoInfoProperties `json:"properties" yaml:"properties"`
}

// AdvancedVideoInfoProperties holds provider-specific video properties.
type AdvancedVideoInfoProperties struct {
	EntryID      string `json:"entryId,omitempty"      yaml:"entryId,omitempty"`
	PartnerID    string `json:"partner,omitempty"      yaml:"partner,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty" yaml:"thumbnailUrl,omitempty"`
	Duration     int64  `json:"duration,omitempty"     yaml:"duration,omitempty"`
}

// Asset is a digital asset: an image, video, document or other file.
type Asset struct {
	ID                string             `json:"id"                          yaml:"id"`
	Type              string             `json:"type"                        yaml:"type"`
	Name              string             `json:"name"                        yaml:"name"`
	Description       string             `json:"description,omitempty"       yaml:"description,omitempty"`
	FileGroup         string             `json:"fileGroup"                   yaml:"fileGroup"`
	MimeType          string             `json:"mimeType,omitempty"          yaml:"mimeType,omitempty"`
	FileExtension     string             `json:"fileExtension,omitempty"     yaml:"fileExtension,omitempty"`
	Size              int64              `json:"size,omitempty"              yaml:"size,omitempty"`
	Version           string             `json:"version,omitempty"           yaml:"version,omitempty"`
	CreatedDate       Date               `json:"createdDate"                 yaml:"createdDate"`
	UpdatedDate       Date               `json:"updatedDate"                 yaml:"updatedDate"`
	Renditions        []Rendition        `json:"renditions,omitempty"        yaml:"renditions,omitempty"`
	AdvancedVideoInfo *AdvancedVideoInfo `json:"advancedVideoInfo,omitempty" yaml:"advancedVideoInfo,omitempty"`
	Fields            map[string]Value   `json:"fields,omitempty"            yaml:"-"`
	Links             Links              `json:"links,omitempty"             yaml:"links,omitempty"`
}

// UnmarshalJSON applies defaults and lifts the file metadata that the delivery
// API nests under "fields".
func (a *Asset) UnmarshalJSON(data []byte) error {
	type plain Asset

	var w struct {
		plain
		FileGroup *string `json:"fileGroup"`
	}

	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*a = Asset(w.plain)

	if a.Fields == nil {
		a.Fields = map[string]Value{}
	}

	group := ""
	if w.FileGroup != nil {
		group = *w.FileGroup
	} else if s, ok := a.Fields["fileGroup"].AsString(); ok {
		group = s
	}

	a.FileGroup = stringOr(&group, "Files")

	if a.MimeType == "" {
		a.MimeType, _ = a.Fields["mimeType"].AsString()
	}

	if a.FileExtension == "" {
		a.FileExtension, _ = a.Fields["fileType"].AsString()
	}

	if a.Size == 0 {
		a.Size, _ = a.Fields["size"].AsInt64()
	}

	if a.Renditions == nil {
		if v, ok := a.Fields["renditions"]; ok {
			_ = v.Decode(&a.Renditions)
		}
	}

	if a.AdvancedVideoInfo == nil {
		if v, ok := a.Fields["advancedVideoInfo"]; ok && !v.IsNull() {
			info := &AdvancedVideoInfo{}
			if v.Decode(info) == nil {
				a.AdvancedVideoInfo = info
			}
		}
	}

	return nil
}

// Taxonomy is a hierarchy of categories used to classify content.
type Taxonomy struct {
	ID            string `json:"id"                    yaml:"id"`
	Name          string `json:"name"                  yaml:"name"`
	ShortName     string `json:"shortName,omitempty"   yaml:"shortName,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	Status        string `json:"status,omitempty"      yaml:"status,omitempty"`
	Version       string `json:"version,omitempty"     yaml:"version,omitempty"`
	IsPublishable bool   `json:"isPublishable"         yaml:"isPublishable"`
	CreatedDate   Date   `json:"createdDate"           yaml:"createdDate"`
	UpdatedDate   Date   `json:"updatedDate"           yaml:"updatedDate"`
	Links         Links  `json:"links,omitempty"       yaml:"links,omitempty"`
}

// CategoryRef is a lightweight reference to a category.
type CategoryRef struct {
	ID      string `json:"id"                yaml:"id"`
	Name    string `json:"name"              yaml:"name"`
	APIName string `json:"apiName,omitempty" yaml:"apiName,omitempty"`
}

// Category is a node in a taxonomy.
type Category struct {
	ID          string        `json:"id"                    yaml:"id"`
	Name        string        `json:"name"                  yaml:"name"`
	APIName     string        `json:"apiName,omitempty"     yaml:"apiName,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Position    int           `json:"position"              yaml:"position"`
	Parent      *CategoryRef  `json:"parent,omitempty"      yaml:"parent,omitempty"`
	Ancestors   []CategoryRef `json:"ancestors,omitempty"   yaml:"ancestors,omitempty"`
	Links       Links         `json:"links,omitempty"       yaml:"links,omitempty"`
}

// BulkOperation is the request body of a bulk items operation.
type BulkOperation struct {
	Q          string                 `json:"q,omitempty"`
	Items      []string               `json:"-"`
	Operations map[string]interface{} `json:"operations"`
}

// MarshalJSON encodes the item ids as a q expression when none was given.
func (b BulkOperation) MarshalJSON() ([]byte, error) {
	type plain BulkOperation

	out := plain(b)

	if out.Q == "" && len(b.Items) > 0 {
		out.Q = idQuery(b.Items)
	}

	return json.Marshal(out)
}

func idQuery(ids []string) string {
	q := ""

	for i, id := range ids {
		if i > 0 {
			q += " OR "
		}

		q += `id eq "` + id + `"`
	}

	return q
}

// BulkOperationStatus is the state of a bulk items job.
type BulkOperationStatus struct {
	ID                  string `json:"id"                  yaml:"id"`
	Completed           bool   `json:"completed"           yaml:"completed"`
	Progress            string `json:"progress"            yaml:"progress"`
	CompletedPercentage int    `json:"completedPercentage" yaml:"completedPercentage"`
	StartTime           Date   `json:"startTime"           yaml:"startTime"`
	EndTime             Date   `json:"endTime"             yaml:"endTime"`
	Error               *Value `json:"error,omitempty"     yaml:"-"`
	Result              *Value `json:"result,omitempty"    yaml:"-"`
	Links               Links  `json:"links,omitempty"     yaml:"links,omitempty"`
}

// Succeeded reports whether the job finished without an error.
func (s *BulkOperationStatus) Succeeded() bool {
	return s.Completed && (s.Error == nil || s.Error.IsNull()) && s.Progress != "failed"
}
