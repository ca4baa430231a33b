package content

import (
	"path"
)

type renditionForm int

const (
	nativeForm renditionForm = iota
	namedForm
	thumbnailForm
)

// RenditionAddress selects which binary of an asset to download.
type RenditionAddress struct {
	form   renditionForm
	name   string
	format string
	kind   string
	asset  *Asset
}

// NativeRendition addresses the original upload.
func NativeRendition() RenditionAddress {
	return RenditionAddress{form: nativeForm, name: "native"}
}

// NamedRendition addresses a named rendition, optionally in a given format
// (for example "jpg" or "webp") and type ("responsiveimage").
func NamedRendition(name, format, kind string) RenditionAddress {
	return RenditionAddress{form: namedForm, name: name, format: format, kind: kind}
}

// ThumbnailRendition addresses the thumbnail of asset. How it resolves depends
// on the asset's file group and advanced video metadata.
func ThumbnailRendition(asset *Asset) RenditionAddress {
	return RenditionAddress{form: thumbnailForm, name: "thumbnail", asset: asset}
}

// String returns a short description, used in cache keys.
func (r RenditionAddress) String() string {
	s := r.name
	if r.format != "" {
		s += "." + r.format
	}

	if r.kind != "" {
		s += "(" + r.kind + ")"
	}

	return s
}

// Apply points p at the rendition of assetID. assetsPath is the resource path
// of assets below the API base path, normally "assets".
func (r RenditionAddress) Apply(p *RequestParameters, assetsPath, assetID string) error {
	if r.form == thumbnailForm {
		if r.asset == nil {
			return newError(KindInvalidRequest, "thumbnail requires an asset")
		}

		if assetID == "" {
			assetID = r.asset.ID
		}
	}

	p.Require("asset id", assetID)
	p.SetCacheKey(path.Join(assetsPath, assetID, r.String()))

	switch r.form {
	case nativeForm:
		p.SetSuffix(path.Join(assetsPath, assetID, "native"))
	case namedForm:
		if r.name == "" {
			return newError(KindInvalidRequest, "rendition name must not be empty")
		}

		p.SetSuffix(path.Join(assetsPath, assetID, r.name))

		if r.format != "" {
			p.SetQuery("format", r.format)
		}

		if r.kind != "" {
			p.SetQuery("type", r.kind)
		}
	case thumbnailForm:
		return r.applyThumbnail(p, assetsPath, assetID)
	}

	return nil
}

func (r RenditionAddress) applyThumbnail(p *RequestParameters, assetsPath, assetID string) error {
	switch r.asset.FileGroup {
	case "Images", "Documents":
		p.SetSuffix(path.Join(assetsPath, assetID, "thumbnail"))
	case "Videos":
		info := r.asset.AdvancedVideoInfo
		if info == nil {
			p.SetSuffix(path.Join(assetsPath, assetID, "thumbnail"))
			return nil
		}

		if info.Properties.ThumbnailURL == "" {
			return newError(KindInvalidRequest, "video %s has no thumbnail URL", assetID)
		}

		// Externally hosted thumbnails carry their own absolute URL.
		p.basePath = ""
		p.SetSuffix("")
		p.query = nil
		p.defaultChannel = false
		p.SetRequiresAuth(false)
		p.OverrideURL(info.Properties.ThumbnailURL, nil)
	default:
		return newError(KindInvalidRequest, "assets in file group %q have no thumbnail", r.asset.FileGroup)
	}

	return nil
}
