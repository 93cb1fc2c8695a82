package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamalpur-chamber/chamber/internal/apiclient"
	"github.com/jamalpur-chamber/chamber/internal/feed"
	"github.com/jamalpur-chamber/chamber/internal/models"
	"github.com/jamalpur-chamber/chamber/internal/output"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:     "gallery",
	Short:   "Browse and manage gallery images",
	GroupID: "content",
}

var galleryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List gallery images",
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		images := a.gallery.List(cmd.Context())
		if jsonOut {
			return output.JSON(images)
		}
		if len(images) == 0 {
			fmt.Println("No images")
			return nil
		}
		for i := range images {
			fmt.Println(output.FormatImageShort(&images[i]))
		}
		return nil
	},
}

var galleryUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")
		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.requireLogin(ctx); err != nil {
			return fail(jsonOut, err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fail(jsonOut, err)
		}
		defer f.Close()

		g := feed.NewGallery(a.gallery, nil, logger)
		defer g.Close()
		resp, err := g.UploadOptimistic(ctx, a.gallery, apiclient.GalleryUpload{
			Title:       title,
			Description: description,
			Image:       attachment(f, args[0]),
		}, "file://"+args[0])
		if err != nil {
			return fail(jsonOut, err)
		}

		uploaded := createdImage(resp, g.Items())
		if jsonOut {
			if uploaded != nil {
				return output.JSON(uploaded)
			}
			return output.JSON(map[string]string{"message": resp.Message})
		}
		if uploaded != nil {
			output.Success("Uploaded %s (%s)", uploaded.Key(), uploaded.ImageURL)
		} else {
			output.Success("Uploaded %s", title)
		}
		return nil
	},
}

// createdImage returns the image the upload response names. A response
// carrying only the new identity is resolved against the reloaded items.
func createdImage(resp *apiclient.Response, items []models.GalleryImage) *models.GalleryImage {
	var created models.GalleryImage
	if err := resp.Decode("image", &created); err != nil || created.IsZero() || created.IsPlaceholder() {
		return nil
	}
	if models.ValidImageURL(created.ImageURL) {
		return &created
	}
	for i := range items {
		if models.SameIdentity(items[i].Identity, created.Identity) {
			return &items[i]
		}
	}
	return nil
}

var galleryDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an image (admin)",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOut, _ := cmd.Flags().GetBool("json")

		a, err := openApp()
		if err != nil {
			return fail(jsonOut, err)
		}
		defer a.Close()

		ctx := cmd.Context()
		if err := a.requireLogin(ctx); err != nil {
			return fail(jsonOut, err)
		}
		if _, err := a.gallery.Delete(ctx, args[0]); err != nil {
			return fail(jsonOut, err)
		}
		if jsonOut {
			return output.JSON(map[string]string{"deleted": args[0]})
		}
		output.Success("Deleted image %s", args[0])
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{galleryListCmd, galleryUploadCmd, galleryDeleteCmd} {
		c.Flags().Bool("json", false, "JSON output")
	}
	galleryUploadCmd.Flags().String("title", "", "Image title (default file name)")
	galleryUploadCmd.Flags().String("description", "", "Image description")

	galleryCmd.AddCommand(galleryListCmd, galleryUploadCmd, galleryDeleteCmd)
	rootCmd.AddCommand(galleryCmd)
}
