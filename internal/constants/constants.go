package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration and cache directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and cached files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ExtendedHTTPTimeout is used for binary downloads.
	ExtendedHTTPTimeout = 5 * time.Minute
)

// Retry limits. The default transport does not retry unless configured to.
const (
	// DefaultRetryMax is the default maximum number of transport retries.
	DefaultRetryMax = 0

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 30 * time.Second
)

// Time intervals.
const (
	// DefaultPollInterval is used for polling long-running jobs.
	DefaultPollInterval = 2 * time.Second

	// DefaultJobPollTimeout bounds PollUntilComplete when the caller gives no deadline.
	DefaultJobPollTimeout = 5 * time.Minute
)

// Pagination.
const (
	// DefaultPageSize is the default number of items requested per page.
	DefaultPageSize = 100
)

// Cache sizes.
const (
	// DefaultCacheSize is the default number of entries held by memory caches.
	DefaultCacheSize = 1000

	// DefaultImageCacheSize is the default number of decoded images kept in memory.
	DefaultImageCacheSize = 64
)

// API versions and paths.
const (
	// APIVersion is the default content API version.
	APIVersion = "v1.1"

	// DeliveryAPIPath is the base path of the published content delivery API.
	DeliveryAPIPath = "/content/published/api/"

	// ManagementAPIPath is the base path of the content management API.
	ManagementAPIPath = "/content/management/api/"

	// PathItems is the items resource suffix.
	PathItems = "items"

	// PathAssets is the assets resource suffix.
	PathAssets = "assets"

	// PathTaxonomies is the taxonomies resource suffix.
	PathTaxonomies = "taxonomies"

	// PathCategories is the categories resource suffix.
	PathCategories = "categories"

	// PathBulkItemsOperations is the bulk item operations resource suffix.
	PathBulkItemsOperations = "bulkItemsOperations"

	// RenditionNative addresses the original uploaded binary of an asset.
	RenditionNative = "native"

	// RenditionThumbnail addresses the thumbnail rendition of an asset.
	RenditionThumbnail = "thumbnail"
)

// Query parameter keys.
const (
	QueryOffset             = "offset"
	QueryLimit              = "limit"
	QueryTotalResults       = "totalResults"
	QueryChannelToken       = "channelToken"
	QueryExpand             = "expand"
	QueryFields             = "fields"
	QueryLinks              = "links"
	QueryOrderBy            = "orderBy"
	QueryIsPublishedChannel = "isPublishedChannel"
	QueryQ                  = "q"
	QueryFormat             = "format"
	QueryType               = "type"
)

// Query wildcard values.
const (
	// ExpandAll is the expansion wildcard.
	ExpandAll = "all"

	// FieldsAll is the field selection wildcard.
	FieldsAll = "ALL"

	// UserFieldPrefix prefixes user-defined fields in orderBy clauses.
	UserFieldPrefix = "fields."
)

// Header names and values.
const (
	HeaderAuthorization   = "Authorization"
	HeaderContentType     = "Content-Type"
	HeaderAccept          = "Accept"
	HeaderUserAgent       = "User-Agent"
	HeaderRequestedWith   = "X-Requested-With"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderETag            = "ETag"
	HeaderLastModified    = "Last-Modified"
	HeaderLocation        = "Location"

	ContentTypeJSON    = "application/json"
	RequestedWithXHR   = "XMLHttpRequest"
	DefaultUserAgent   = "content-sdk-go"
	BearerPrefix       = "Bearer "
	DownloadFilePrefix = "content-download-"
)

// File groups reported by assets.
const (
	FileGroupImages    = "Images"
	FileGroupVideos    = "Videos"
	FileGroupDocuments = "Documents"
	FileGroupFiles     = "Files"
)

// Output formats used by the CLI.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)
