package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opentier/supportbot/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest documents into the knowledge base",
}

var ingestFileCmd = &cobra.Command{
	Use:   "file [path]...",
	Short: "Ingest local files",
	Long:  `Ingests one or more local files. The source type is inferred from the file extension (.pdf, .docx, .md, .txt).`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngestFile,
}

var ingestSourceParams []string

var ingestSourceCmd = &cobra.Command{
	Use:   "source [source-type]",
	Short: "Ingest from a configured source",
	Long: `Runs one extractor by source type, e.g. zendesk or jira.
Extractor parameters are passed as repeated --param key=value flags:

  supportbot ingest source zendesk --param status=solved --param limit=100
  supportbot ingest source jira --param jql="project = SUP AND resolution is not EMPTY"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestSource,
}

func init() {
	ingestSourceCmd.Flags().StringArrayVar(&ingestSourceParams, "param", nil, "extractor parameter as key=value")
	ingestCmd.AddCommand(ingestFileCmd)
	ingestCmd.AddCommand(ingestSourceCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestFile(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	total := &domain.IngestReport{}
	for _, path := range args {
		report, err := ingestService.IngestFile(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		total.DocumentsProcessed += report.DocumentsProcessed
		total.ChunksCreated += report.ChunksCreated
		total.Errors = append(total.Errors, report.Errors...)
	}

	printReport(cmd, total)
	return nil
}

func runIngestSource(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	params := make(map[string]any, len(ingestSourceParams))
	for _, p := range ingestSourceParams {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return fmt.Errorf("invalid --param %q, expected key=value", p)
		}
		params[key] = value
	}

	report, err := ingestService.Ingest(cmd.Context(), domain.IngestRequest{
		Sources: []domain.IngestSource{
			{SourceType: domain.SourceType(args[0]), Params: params},
		},
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Documents processed: %d\n", report.DocumentsProcessed)
	cmd.Printf("Chunks created: %d\n", report.ChunksCreated)
	if len(report.Errors) > 0 {
		cmd.Printf("Errors (%d):\n", len(report.Errors))
		for _, e := range report.Errors {
			cmd.Printf("  %s\n", e)
		}
	}
}
