package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/creativevault/pkg/configs"
	"github.com/yeisme/creativevault/pkg/events"
	mq "github.com/yeisme/creativevault/pkg/internal/storage/mq"
)

var (
	mqCmd = &cobra.Command{
		Use:   "mq",
		Short: "catalog event transport commands",
	}

	mqListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "show the event broker and which catalog topics are published",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetConfig()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "broker: %s (events enabled: %t)\n", cfg.MQ.GetMQType(), cfg.Events.Enabled)

			for _, t := range mq.GetRegisteredMQTypes() {
				mark := " "
				if t == cfg.MQ.GetMQType() {
					mark = "*"
				}

				fmt.Fprintf(out, " %s %s\n", mark, t)
			}

			fmt.Fprintln(out, "topics:")

			for _, topic := range events.CreativeTopics {
				state := "off"
				if events.TopicEnabled(cfg.Events, topic) {
					state = "on"
				}

				fmt.Fprintf(out, "   %-24s %s\n", topic, state)
			}
		},
	}
)

// registerMQCommands 注册事件传输相关命令.
func registerMQCommands() {
	mqCmd.AddCommand(mqListCmd)

	rootCmd.AddCommand(mqCmd)
}
