package main

import (
	"context"
	"errors"
	"fmt"

	"storefront-orders/internal/auth"
	"storefront-orders/internal/seed"
	"storefront-orders/internal/util"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			defer util.SyncLogger()
			logger := util.GetLogger()
			ctx := context.Background()

			if rollback {
				version, err := db.Rollback(ctx)
				if err != nil {
					return err
				}
				logger.Info("Rolled back migration", zap.String("version", version))
				return nil
			}

			applied, err := db.Migrate(ctx)
			if err != nil {
				return err
			}
			current, err := db.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			logger.Info("Schema up to date",
				zap.Strings("applied", applied),
				zap.String("version", current.String()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the most recent migration instead")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load venues, products and customers from a YAML fixture file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return errors.New("--file is required")
			}

			fixtures, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			_, db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()
			defer util.SyncLogger()
			ctx := context.Background()

			if _, err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			sum, err := seed.Apply(ctx, db, fixtures)
			if err != nil {
				return err
			}
			util.GetLogger().Info("Fixtures loaded",
				zap.Int("venues", sum.Venues),
				zap.Int("products", sum.Products),
				zap.Int("customers", sum.Customers),
				zap.Int("attachments", sum.Attachments))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "fixture file")
	return cmd
}

func newHashAPIKeyCmd() *cobra.Command {
	var key, salt string

	cmd := &cobra.Command{
		Use:   "hash-api-key",
		Short: "Print the API_KEY_HASH value for a vendor API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" || salt == "" {
				return errors.New("--key and --salt are required")
			}
			fmt.Fprintln(cmd.OutOrStdout(), auth.HashAPIKey(key, salt))
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "plain API key")
	cmd.Flags().StringVar(&salt, "salt", "", "value of API_KEY_SALT")
	return cmd
}
