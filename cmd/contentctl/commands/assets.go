package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/spf13/cobra"
)

// DownloadInfo describes a finished asset download.
type DownloadInfo struct {
	AssetID   string `json:"asset_id"  yaml:"asset_id"`
	Rendition string `json:"rendition" yaml:"rendition"`
	Path      string `json:"path"      yaml:"path"`
	Size      int64  `json:"size"      yaml:"size"`
	Cached    bool   `json:"cached"    yaml:"cached"`
}

// NewAssetsCommand creates the assets command group.
func NewAssetsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "assets",
		Aliases: []string{"asset"},
		Short:   "Inspect and download digital assets",
	}

	cmd.AddCommand(newAssetsGetCommand())
	cmd.AddCommand(newAssetsDownloadCommand())

	return cmd
}

func newAssetsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show asset metadata and renditions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			asset, err := client.ReadAsset(args[0]).Fetch(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get asset: %w", err)
			}

			return render(cmd, asset, func(w io.Writer) error {
				rows := [][]string{
					{"id", asset.ID},
					{"type", asset.Type},
					{"name", asset.Name},
					{"file group", asset.FileGroup},
					{"mime type", orNA(asset.MimeType)},
					{"size", formatSize(asset.Size)},
					{"updated", formatAge(asset.UpdatedDate)},
				}

				for _, r := range asset.Renditions {
					formats := make([]string, 0, len(r.Formats))
					for _, f := range r.Formats {
						formats = append(formats, f.Format)
					}

					rows = append(rows, []string{"rendition " + r.Name, strings.Join(formats, ", ")})
				}

				if asset.AdvancedVideoInfo != nil {
					rows = append(rows, []string{"video provider", asset.AdvancedVideoInfo.Provider})
				}

				return renderTable(w, []string{"property", "value"}, rows)
			})
		},
	}
}

func newAssetsDownloadCommand() *cobra.Command {
	var (
		rendition string
		format    string
		kind      string
		thumbnail bool
		output    string
	)

	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Download the native file or a rendition of an asset",
		Example: `  contentctl assets download CONT123 -f original.pdf
  contentctl assets download CONT123 --rendition Large --format webp
  contentctl assets download CONT123 --thumbnail --cache-dir ~/.contentctl/cache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if thumbnail && rendition != "" {
				return ErrConflictingRendition
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			info := DownloadInfo{AssetID: args[0], Rendition: constants.RenditionNative}

			svc := client.DownloadNative(args[0])

			switch {
			case thumbnail:
				asset, err := client.ReadAsset(args[0]).Fetch(ctx)
				if err != nil {
					return fmt.Errorf("failed to get asset: %w", err)
				}

				svc = client.DownloadThumbnail(asset)
				info.Rendition = constants.RenditionThumbnail
			case rendition != "":
				svc = client.DownloadRendition(args[0], rendition, format, kind)
				info.Rendition = rendition
			}

			provider, err := newCacheProvider()
			if err != nil {
				return fmt.Errorf("failed to open cache: %w", err)
			}

			if provider != nil {
				u, err := svc.DownloadWithCache(ctx, provider)
				if err != nil {
					return fmt.Errorf("failed to download asset: %w", err)
				}

				info.Path = u.Path
				info.Cached = provider.Stats().Hits > 0
			} else {
				result, err := svc.Download(ctx)
				if err != nil {
					return fmt.Errorf("failed to download asset: %w", err)
				}

				info.Path = result.Path
			}

			if output != "" {
				if err := copyFile(info.Path, output); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}

				info.Path = output
			}

			if st, err := os.Stat(info.Path); err == nil {
				info.Size = st.Size()
			}

			return render(cmd, info, func(w io.Writer) error {
				return renderTable(w, []string{"asset", "rendition", "path", "size"}, [][]string{
					{info.AssetID, info.Rendition, info.Path, formatSize(info.Size)},
				})
			})
		},
	}

	cmd.Flags().StringVar(&rendition, "rendition", "", "rendition name, e.g. Thumbnail, Small, Medium, Large")
	cmd.Flags().StringVar(&format, "format", "", "rendition format, e.g. jpg or webp")
	cmd.Flags().StringVar(&kind, "type", "", "rendition type, e.g. responsive")
	cmd.Flags().BoolVar(&thumbnail, "thumbnail", false, "download the asset thumbnail")
	cmd.Flags().StringVarP(&output, "file", "f", "", "copy the download to this path")

	return cmd
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, constants.ConfigFilePerm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
