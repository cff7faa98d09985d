package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/farm-guru/farmguru-go/internal/logging"
)

// NewAskCmd constructs the `farmguru ask` command, which answers a single
// question and prints the synthesized answer to stdout.
func NewAskCmd() *cobra.Command {
	var userID string
	var imageID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask Farm-Guru a question",
		Long: `Ask Farm-Guru a natural language agricultural question.

The answer is synthesized from the knowledge corpus. With MODEL_PROVIDER set
the configured model writes the answer; without it the deterministic fallback
path answers from retrieval alone.

Examples:
  farmguru ask "When should I irrigate my wheat crop?"
  farmguru ask --json "best fertilizer schedule for rice"
  MODEL_PROVIDER=ollama farmguru ask "how do I control aphids on cotton?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			p, err := buildPipeline(ctx, log)
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer p.close()

			ans := p.assistant.AnswerQuery(ctx, userID, args[0], imageID)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(ans) //nolint:wrapcheck // CLI entry point — error goes directly to cobra
			}

			fmt.Println(ans.Answer)
			fmt.Printf("\nconfidence: %.2f  mode: %s\n", ans.Confidence, ans.Meta.Mode)
			if len(ans.Actions) > 0 {
				fmt.Println("\nactions:")
				for _, a := range ans.Actions {
					fmt.Printf("  - %s\n", a)
				}
			}
			if len(ans.Sources) > 0 {
				fmt.Println("\nsources:")
				for _, s := range ans.Sources {
					fmt.Printf("  - %s (%s)\n", s.Title, s.URL)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to attribute the query to")
	cmd.Flags().StringVar(&imageID, "image", "", "ID of a previously uploaded image to use as context")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full answer envelope as JSON")

	return cmd
}
