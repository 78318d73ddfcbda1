// Package cmd defines the studyhall command line interface.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/studyhall/studyhall/internal/log"
)

var logJSON bool

var rootCmd = &cobra.Command{
	Use:   "studyhall",
	Short: "Studyhall - an AI tutoring backend",
	Long: `Studyhall is a retrieval-augmented tutoring backend built on Genkit.

It routes learner queries through an agent graph (question answering,
summarization, document processing, and personalized tutoring) backed by
a PostgreSQL knowledge store.

Run "studyhall serve" to start the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(log.New(log.Config{JSON: logJSON}))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write logs as JSON")
}
