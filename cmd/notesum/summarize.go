package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/package-register/note-summarizer/config"
	"github.com/package-register/note-summarizer/logger"
	"github.com/package-register/note-summarizer/pipeline"
	"github.com/package-register/note-summarizer/sink"
	"github.com/package-register/note-summarizer/storage"
	"github.com/package-register/note-summarizer/stream"
	"github.com/package-register/note-summarizer/summary"
	"github.com/package-register/note-summarizer/telemetry"
	"github.com/package-register/note-summarizer/token"
	"github.com/package-register/note-summarizer/vault"
)

func newSummarizeCmd(root *rootOptions) *cobra.Command {
	var vaultDir string
	cmd := &cobra.Command{
		Use:   "summarize [note]",
		Short: "Stream a summary of the notes linked from a note",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.load()
			if err != nil {
				return err
			}
			var note string
			if len(args) == 1 {
				note, err = noteID(vaultDir, args[0])
				if err != nil {
					return err
				}
			}
			return runSummarize(cmd.Context(), cmd.OutOrStdout(), s, vaultDir, note)
		},
	}
	cmd.Flags().StringVar(&vaultDir, "vault", ".", "vault root folder")
	return cmd
}

func runSummarize(ctx context.Context, w io.Writer, s config.Settings, vaultDir, note string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if s.Telemetry {
		telemetry.Init(telemetry.NewLogging())
		defer telemetry.Shutdown(context.WithoutCancel(ctx))
	}

	client, err := stream.New(stream.OptionsFromSettings(s))
	if err != nil {
		return fmt.Errorf("%w; set one with 'notesum config set api_key <key>' or %s", err, config.APIKeyEnv)
	}

	monitor := token.NewMonitor(s.MaxTokens)
	opts := []summary.Option{summary.WithMonitor(monitor)}
	if s.HistoryPath != "" {
		h, err := storage.OpenHistory(s.HistoryPath)
		if err != nil {
			logger.With("cli").Warn("History disabled", "error", err)
		} else {
			defer h.Close()
			opts = append(opts, summary.WithHistory(h))
		}
	}

	notes := vault.New(pipeline.NewOSFS(vaultDir))
	out := sink.NewTerminal(w, note)
	svc := summary.New(notes, client, out, s.DefaultPrompt, opts...)

	outcome, err := svc.Generate(ctx, note)
	style := successStyle
	if outcome.Code != "" {
		style = dimStyle
	}
	if err != nil {
		style = errorStyle
	}
	fmt.Fprintln(w, style.Render(outcome.Message))
	if outcome.Unresolved > 0 {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%d of %d links matched no note", outcome.Unresolved, outcome.References)))
	}
	if usage, ok := monitor.Last(); ok {
		approx := ""
		if usage.Estimated {
			approx = "~"
		}
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s%d prompt + %s%d completion tokens",
			approx, usage.PromptTokens, approx, usage.CompletionTokens)))
		if monitor.IsWarning() {
			fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("The summary used most of max_tokens (%d) and may be cut short.", s.MaxTokens)))
		}
	}
	if err != nil {
		return reportedError{err}
	}
	return nil
}

// noteID turns a note path given on the command line into a vault-relative
// slash path.
func noteID(vaultDir, arg string) (string, error) {
	if !filepath.IsAbs(arg) {
		if _, err := os.Stat(filepath.Join(vaultDir, arg)); err == nil {
			return filepath.ToSlash(filepath.Clean(arg)), nil
		}
	}
	absVault, err := filepath.Abs(vaultDir)
	if err != nil {
		return "", fmt.Errorf("vault path: %w", err)
	}
	absNote, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("note path: %w", err)
	}
	rel, err := filepath.Rel(absVault, absNote)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("note %s is not inside vault %s", arg, vaultDir)
	}
	return filepath.ToSlash(rel), nil
}
