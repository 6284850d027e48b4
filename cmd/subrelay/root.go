package main

import "github.com/spf13/cobra"

// newRootCmd returns the Cobra entrypoint for the server.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "subrelay",
		Short: "Adapty webhook to Telegram notification relay",
		Long: "Subrelay receives Adapty subscription webhooks, drops sandbox and untracked events, " +
			"and posts a summary of each tracked production event to a Telegram chat.",
		Example:       "  subrelay serve --config config.yaml\n  subrelay serve --addr :9000 --metrics-addr :9100",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.AddCommand(newServeCmd())
	return root
}
