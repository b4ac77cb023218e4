package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"estate/server/config"
	"estate/server/internal/estate"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Println("Database schema is up to date.")
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Install the default property types and tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			path, _ := cmd.Flags().GetString("catalog")
			if path == "" {
				path = cfg.Server.CatalogFile
			}
			catalog, err := config.LoadCatalog(path)
			if err != nil {
				return err
			}

			service := estate.NewService(db, nil, cfg.Server.UploadDir, logger)
			created, err := service.SeedCatalog(context.Background(), catalog)
			if err != nil {
				return fmt.Errorf("failed to seed catalog: %w", err)
			}

			fmt.Printf("Created %d catalog entries.\n", created)
			return nil
		},
	}
	cmd.Flags().String("catalog", "", "catalog file, defaults to CATALOG_FILE")
	return cmd
}

func expireOffersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire-offers",
		Short: "Refuse pending offers past their deadline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer db.Close()

			service := estate.NewService(db, nil, cfg.Server.UploadDir, logger)
			expired, err := service.ExpireOffers(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Expired %d offers.\n", expired)
			return nil
		},
	}
}
