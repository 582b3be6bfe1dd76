package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "./config/agent.defaults.yml"

// rootOptions holds global flags for all commands.
type rootOptions struct {
	ConfigPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "daomerge",
		Short: "Merge pull requests authorized by DAO proposals",
		Long: `daomerge watches the DAO contract for MergePullRequest events, verifies the
authorized commit against the pull request head and merges it on GitHub.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", defaultConfigPath, "path to the agent configuration file")

	cmd.AddCommand(newEncryptCommand())
	cmd.AddCommand(newDecryptCommand())
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
