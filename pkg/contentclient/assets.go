package contentclient

import (
	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
)

// AssetService reads the metadata of a published digital asset.
type AssetService struct {
	content.Fetcher[content.Asset]
	content.ChannelScoped[AssetService]
	content.FieldSelectable[AssetService]
	content.LinkSelectable[AssetService]
	content.Overridable[AssetService]
}

// ReadAsset reads the asset with the given id.
func (c *Client) ReadAsset(id string) *AssetService {
	p := c.delivery(constants.PathAssets+"/"+id).Require("asset id", id)

	s := &AssetService{Fetcher: content.NewFetcher[content.Asset](c.engine, p)}
	ep := content.NewEndpoint(s, p)
	s.ChannelScoped = content.ChannelScoped[AssetService](ep)
	s.FieldSelectable = content.FieldSelectable[AssetService](ep)
	s.LinkSelectable = content.LinkSelectable[AssetService](ep)
	s.Overridable = content.Overridable[AssetService](ep)

	return s
}

// DownloadService downloads one rendition of an asset.
type DownloadService struct {
	content.Downloader
	content.ChannelScoped[DownloadService]
	content.Overridable[DownloadService]
}

// DownloadNative downloads the original upload of an asset.
func (c *Client) DownloadNative(assetID string) *DownloadService {
	return c.download(assetID, content.NativeRendition())
}

// DownloadRendition downloads a named rendition such as "Thumbnail", "Small",
// "Medium" or "Large". format and kind may be empty.
func (c *Client) DownloadRendition(assetID, name, format, kind string) *DownloadService {
	return c.download(assetID, content.NamedRendition(name, format, kind))
}

// DownloadThumbnail downloads the thumbnail of asset. Images and documents use
// the thumbnail rendition; videos with advanced video info use the provider's
// thumbnail URL.
func (c *Client) DownloadThumbnail(asset *content.Asset) *DownloadService {
	id := ""
	if asset != nil {
		id = asset.ID
	}

	return c.download(id, content.ThumbnailRendition(asset))
}

func (c *Client) download(assetID string, rendition content.RenditionAddress) *DownloadService {
	p := c.delivery("")
	if err := rendition.Apply(p, constants.PathAssets, assetID); err != nil {
		p.Invalidate(err)
	}

	s := &DownloadService{Downloader: content.NewDownloader(c.engine, p)}
	ep := content.NewEndpoint(s, p)
	s.ChannelScoped = content.ChannelScoped[DownloadService](ep)
	s.Overridable = content.Overridable[DownloadService](ep)

	return s
}
