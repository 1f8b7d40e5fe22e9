// Command notesum summarizes the notes linked from a markdown note.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/package-register/note-summarizer/config"
	"github.com/package-register/note-summarizer/logger"
)

var (
	version = "dev"

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

// load reads the settings and applies the log level.
func (o *rootOptions) load() (config.Settings, error) {
	s, err := config.Load(o.configPath, o.envFile)
	if err != nil {
		return config.Settings{}, err
	}
	if o.logLevel != "" {
		s.LogLevel = o.logLevel
	}
	logger.Init(s.LogLevel)
	return s, nil
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "notesum",
		Short:         "Summarize the notes a markdown note links to",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath(), "settings file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file consulted for OPENAI_API_KEY")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newSummarizeCmd(opts),
		newConfigCmd(opts),
		newHistoryCmd(opts),
		newNotesCmd(opts),
	)
	return root
}

// reportedError has already been shown to the user.
type reportedError struct {
	error
}

func (e reportedError) Unwrap() error { return e.error }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		}
		os.Exit(1)
	}
}
