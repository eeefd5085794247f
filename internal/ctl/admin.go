package ctl

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fudbi/fudbi/internal/server/identity"
	"github.com/fudbi/fudbi/internal/server/models"
	"github.com/fudbi/fudbi/internal/server/notify"
	"github.com/fudbi/fudbi/internal/server/services"
)

var errPasswordMismatch = errors.New("passwords do not match")

func newAdminCmd(opts *options) *cobra.Command {
	admin := &cobra.Command{
		Use:     "admin",
		Short:   "Manage accounts out of band",
		GroupID: "accounts",
	}
	admin.AddCommand(newAdminCreateCmd(opts))
	return admin
}

func newAdminCreateCmd(opts *options) *cobra.Command {
	req := &services.SignUpRequest{}
	var role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a confirmed account, admin by default",
		Long: `Create a confirmed account without sending a verification email.
Sign-up over the API cannot create admins; this command can.
The password is read from the terminal, or from stdin when piped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			req.Role = models.Role(role)

			password, err := GetPassword(opts.stdin, "Password", cmd.OutOrStdout())
			if err != nil {
				return err
			}
			confirm, err := GetPassword(opts.stdin, "Repeat password", cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if password != confirm {
				return errPasswordMismatch
			}
			req.Password = password

			rm, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer rm.Close()
			if err := rm.RunMigrations(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			repos := rm.Repositories()
			auth := services.NewAuthService(rm,
				identity.NewLocalProvider(repos.Identities, opts.cfg.ConfirmationCodeTTL),
				services.NewJWTSessionStore(repos.Sessions, opts.cfg.SecretKey, opts.cfg.SessionTTL),
				notify.NewLogMailer(opts.logger),
				opts.cfg.ConfirmationCodeTTL,
				opts.logger)

			user, err := auth.CreateAdmin(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "CREATED %s %s (%s)\n", user.ID, user.Email, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.City, "city", "", "home city")
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "host, volunteer or admin")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("city")
	return cmd
}
