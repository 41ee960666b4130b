// Package cli implements the supportbot command line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opentier/supportbot/internal/app"
	"github.com/opentier/supportbot/internal/config"
	"github.com/opentier/supportbot/internal/core/ports/driving"
	"github.com/opentier/supportbot/internal/logger"
)

var version = "0.2.0"

var (
	configPath string
	debugFlag  bool
)

var (
	application     *app.App
	chatService     driving.ChatService
	ingestService   driving.IngestService
	documentService driving.DocumentService
	feedbackService driving.FeedbackService
)

var rootCmd = &cobra.Command{
	Use:   "supportbot",
	Short: "Retrieval-augmented support chatbot",
	Long: `Supportbot answers customer questions from your own knowledge base.
It ingests help articles, manuals, and resolved support tickets, indexes
them as embeddings, and serves grounded answers with source citations.`,
	SilenceUsage:      true,
	PersistentPreRunE: bootstrap,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// SetServices injects the service implementations. Used by tests; the
// normal path builds them from config in bootstrap.
func SetServices(
	chat driving.ChatService,
	ingest driving.IngestService,
	documents driving.DocumentService,
	feedback driving.FeedbackService,
) {
	chatService = chat
	ingestService = ingest
	documentService = documents
	feedbackService = feedback
}

// bootstrap builds the application graph for commands that need it.
func bootstrap(cmd *cobra.Command, _ []string) error {
	switch cmd.Name() {
	case "version", "help", "completion":
		return nil
	}
	if chatService != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.Debug = cfg.Debug || debugFlag

	log, err := logger.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	application = a
	SetServices(a.Chat, a.Ingest, a.Documents, a.Feedback)
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	defer func() {
		if application != nil {
			_ = application.Close()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}
