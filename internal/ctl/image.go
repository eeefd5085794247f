package ctl

import (
	"context"
	"fmt"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/fudbi/fudbi/internal/netx"
	"github.com/fudbi/fudbi/internal/server/config"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/services"
)

type uploadPresigner interface {
	PresignUpload(ctx context.Context, uc *models.UserContext, contentType string, size int64) (*services.UploadTarget, error)
}

// newPresigner and uploadObject are test seams.
var (
	newPresigner = func(cfg *config.Config) uploadPresigner { return services.NewMediaService(cfg) }
	uploadObject = netx.UploadToPresignedURL
)

func newImageCmd(opts *options) *cobra.Command {
	image := &cobra.Command{
		Use:     "image",
		Short:   "Manage food photos in object storage",
		GroupID: "data",
	}

	var owner string
	upload := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a photo on behalf of a user and print its key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			contentType := mimetype.Detect(data).String()

			uc := &models.UserContext{UserID: owner, Role: models.RoleAdmin}
			target, err := newPresigner(opts.cfg).PresignUpload(ctx, uc, contentType, int64(len(data)))
			if err != nil {
				return err
			}
			if err := uploadObject(ctx, target.UploadURL, contentType, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "UPLOADED %s\n", target.Key)
			return nil
		},
	}
	upload.Flags().StringVar(&owner, "owner", "", "user id the photo belongs to")
	_ = upload.MarkFlagRequired("owner")

	image.AddCommand(upload)
	return image
}
