// Package cmd 提供 creativevault 的命令行入口：服务端、采集端与运维子命令.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/log"
)

var (
	// configPath 配置文件或目录.
	configPath string
	// debug 输出调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:          configs.AppName,
		Short:        "Capture, upload and moderate advertising creatives",
		Version:      configs.AppVersion,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			cfg := configs.GetConfig()
			log.Init(cfg.Log, debug || cfg.Server.Debug)

			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")

	registerServeCommands()
	registerDBCommands()
	registerCaptureCommands()
	registerConfigsCommands()
	registerKVCommands()
	registerMQCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
