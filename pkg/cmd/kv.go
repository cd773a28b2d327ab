package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/creativevault/pkg/cache"
	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/internal/service"
	kv "github.com/yeisme/creativevault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "reference cache commands",
	}

	kvListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "show the reference cache backend and the available kv types",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetConfig().KV
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "reference cache: type=%s ttl=%s namespace=%s\n",
				cfg.GetKVType(), cfg.TTL, service.ReferenceCacheNamespace)

			for _, t := range kv.GetRegisteredKVTypes() {
				mark := " "
				if string(t) == cfg.GetKVType() {
					mark = "*"
				}

				fmt.Fprintf(out, " %s %s\n", mark, t)
			}
		},
	}

	kvClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "drop cached reference lookups, e.g. after editing reference rows by hand",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)

			store, err := kv.New(ctx, configs.GetConfig().KV)
			if err != nil {
				return err
			}

			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "reference cache disabled")

				return nil
			}
			defer store.Close()

			if err := cache.NewCache(store, service.ReferenceCacheNamespace).Clear(ctx); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "reference cache cleared")

			return nil
		},
	}
)

// registerKVCommands 注册缓存相关命令.
func registerKVCommands() {
	kvCmd.AddCommand(kvListCmd)
	kvCmd.AddCommand(kvClearCmd)

	rootCmd.AddCommand(kvCmd)
}
