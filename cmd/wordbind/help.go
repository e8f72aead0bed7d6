package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/wordbind/pkg/help"
)

// helpCommand replaces cobra's help: command names show usage, anything
// else is looked up as a reference topic.
func (a *app) helpCommand(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "help [COMMAND|TOPIC]",
		Short: "Show the quick reference, a topic, or help for a command",
		Args:  cobra.MaximumNArgs(1),
		// Help must work even when the config does not load.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprint(a.stdout, help.QUICKREF)
				return nil
			}
			if cmd, _, err := root.Find(args); err == nil && cmd != root {
				return cmd.Help()
			}
			_, content, err := help.MatchTopic(args[0])
			if err != nil {
				fmt.Fprintf(a.stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
				return &exitError{code: exitUsage, err: err}
			}
			fmt.Fprint(a.stdout, content)
			return nil
		},
	}
}
