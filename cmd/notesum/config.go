package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/package-register/note-summarizer/config"
)

func newConfigCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.load()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(s.Redacted())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("# "+root.configPath))
			return nil
		},
	}

	set := &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Change one setting and save it",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Update(root.configPath, func(s *config.Settings) error {
				return s.Set(args[0], args[1])
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Saved "+args[0]))
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
