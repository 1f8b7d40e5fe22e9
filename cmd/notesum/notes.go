package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/package-register/note-summarizer/links"
	"github.com/package-register/note-summarizer/pipeline"
	"github.com/package-register/note-summarizer/vault"
)

func newNotesCmd(root *rootOptions) *cobra.Command {
	var (
		vaultDir  string
		withLinks bool
	)
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List the notes in a vault and how many links each holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := root.load(); err != nil {
				return err
			}
			v := vault.New(pipeline.NewOSFS(vaultDir))
			names, err := v.Notes()
			if err != nil {
				return err
			}

			shown := 0
			for _, name := range names {
				doc, err := v.Open(cmd.Context(), name)
				if err != nil {
					return err
				}
				_, body := pipeline.SplitFrontmatter(doc.Content)
				n := len(links.Scan(body))
				if withLinks && n == 0 {
					continue
				}
				shown++
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name, dimStyle.Render(fmt.Sprintf("(%d links)", n)))
			}
			if shown == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No notes found."))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&vaultDir, "vault", ".", "vault root folder")
	cmd.Flags().BoolVar(&withLinks, "with-links", false, "only notes that link to other notes")
	return cmd
}
