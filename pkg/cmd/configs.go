package cmd

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/creativevault/pkg/configs"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "inspect and check the loaded configuration",
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "print the config file in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			v := configs.GetViper()
			if v == nil || v.ConfigFileUsed() == "" {
				fmt.Fprintln(out, "no config file used, defaults and CREATIVEVAULT_* environment only")

				return nil
			}

			fmt.Fprintln(out, v.ConfigFileUsed())

			return nil
		},
	}

	configDebugCmd = &cobra.Command{
		Use:   "debug",
		Short: "print the effective configuration with secrets hidden",
		RunE: func(cmd *cobra.Command, args []string) error {
			if v := configs.GetViper(); v != nil && debug {
				v.Debug()
			}

			b, err := sonic.ConfigStd.MarshalIndent(configs.GetConfig().Redacted(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}

	configCheckCmd = &cobra.Command{
		Use:   "check",
		Short: "check the capture client section (queue_path, ingest_url)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := configs.GetConfig().Client
			if err := c.Check(); err != nil {
				return errors.New("client config: " + err.Error())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queue:  %s\ningest: %s\nparallelism: %d\n",
				c.QueuePath, c.IngestURL, c.Parallelism)

			return nil
		},
	}
)

// registerConfigsCommands 注册配置相关命令.
func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configDebugCmd)
	configCmd.AddCommand(configCheckCmd)

	rootCmd.AddCommand(configCmd)
}
