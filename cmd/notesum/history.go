package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/package-register/note-summarizer/storage"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var (
		limit int
		note  string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent summary runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.load()
			if err != nil {
				return err
			}
			if s.HistoryPath == "" {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("History is off. Enable it with 'notesum config set history_path <file>'."))
				return nil
			}
			h, err := storage.OpenHistory(s.HistoryPath)
			if err != nil {
				return err
			}
			defer h.Close()

			runs, err := h.Recent(cmd.Context(), limit, note)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No runs recorded."))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tNOTE\tREFS\tUNRESOLVED\tEND\tRESULT")
			for _, r := range runs {
				result := errorStyle
				if r.Succeeded() {
					result = successStyle
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
					r.CreatedAt.Local().Format("2006-01-02 15:04"), r.NoteID,
					r.References, r.Unresolved, r.Termination, result.Render(r.Message))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")
	cmd.Flags().StringVar(&note, "note", "", "only runs for this note")
	return cmd
}
