package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yeisme/creativevault/pkg/cache"
	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/internal/model"
	"github.com/yeisme/creativevault/pkg/internal/service"
	"github.com/yeisme/creativevault/pkg/internal/storage/db"
	kv "github.com/yeisme/creativevault/pkg/internal/storage/kv"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list all registered database types",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			types := db.GetRegisteredDBTypes()
			slices.Sort(types)

			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")
			for _, dbType := range types {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+string(dbType))
			}
		},
	}

	dbMigrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "create or update the catalog tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, err := openCatalogDB(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := model.AutoMigrate(ctx, client.DB); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")

			return nil
		},
	}

	dbSeedCmd = &cobra.Command{
		Use:   "seed",
		Short: "insert the default reference taxonomy (idempotent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			client, err := openCatalogDB(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := model.AutoMigrate(ctx, client.DB); err != nil {
				return err
			}

			store, err := kv.New(ctx, configs.GetConfig().KV)
			if err != nil {
				return err
			}

			if store != nil {
				defer store.Close()
			}

			refs := service.NewReferenceService(client.DB, cache.NewCache(store, service.ReferenceCacheNamespace), 0)

			set := model.DefaultReferences()
			if err := refs.Seed(ctx, set); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d formats, %d types, %d placements, %d platforms, %d countries\n",
				len(set.Formats), len(set.Types), len(set.Placements), len(set.Platforms), len(set.Countries))

			return nil
		},
	}
)

func openCatalogDB(cmd *cobra.Command) (*db.Client, error) {
	cfg := configs.GetConfig()

	return db.New(commandContext(cmd), cfg.DB, db.Options{Debug: debug})
}

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbSeedCmd)
}
