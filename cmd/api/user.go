package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"taskhub/internal/app"
	"taskhub/internal/config"
	"taskhub/internal/service"
)

func createUserCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:     "create-user",
		Short:   "Create a user in the configured store",
		Example: `  taskhub create-user --name Alice --email alice@example.com --password s3cret!`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.Store.Driver == config.DriverMemory {
				return fmt.Errorf("create-user needs a persistent store, STORE_DRIVER is %q", cfg.Store.Driver)
			}
			ctx := cmd.Context()
			stores, err := app.OpenStores(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				return err
			}
			defer stores.Close(ctx)

			u, err := service.NewUserService(stores.Users).Register(ctx, name, email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.ID, u.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
