package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opentier/supportbot/internal/core/domain"
)

var (
	askUser           string
	askProductVersion string
	askConversation   string
	askJSON           bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the chatbot a question",
	Long: `Retrieves relevant passages from the indexed knowledge base and
generates a grounded answer with source citations. When nothing relevant
is indexed, the fixed fallback answer is returned instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "cli", "user identifier")
	askCmd.Flags().StringVar(&askProductVersion, "product-version", "", "restrict retrieval to one product version")
	askCmd.Flags().StringVarP(&askConversation, "conversation", "c", "", "continue an existing conversation")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	resp, err := chatService.Chat(cmd.Context(), domain.ChatRequest{
		UserID:         askUser,
		Query:          args[0],
		ProductVersion: askProductVersion,
		ConversationID: askConversation,
	})
	if err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(resp.Answer)
	cmd.Println()
	if resp.FallbackTriggered {
		cmd.Println("(no sufficiently relevant sources were found)")
	} else {
		cmd.Printf("Confidence: %.2f\n", resp.Confidence)
		for i, src := range resp.Sources {
			cmd.Printf("  [%d] %s (%s", i+1, src.DocTitle, src.SourceType)
			if src.TicketID != "" {
				cmd.Printf(", ticket %s", src.TicketID)
			}
			cmd.Printf(") %.2f\n", src.Confidence)
		}
	}
	cmd.Printf("Conversation: %s\n", resp.ConversationID)
	return nil
}
