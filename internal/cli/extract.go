package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/unidine-backend/internal/modules/extraction"
)

// NewExtractCmd runs the extractor on its arguments without touching a database.
func NewExtractCmd() *cobra.Command {
	var lexiconPath string

	cmd := &cobra.Command{
		Use:   "extract <text...>",
		Short: "Extract a restaurant mention from text and print the result as JSON",
		Example: `  unidinectl extract "You should visit Sushi Spot in Tokyo"
  unidinectl extract --lexicon ./lexicon.yaml "Pump House has great burgers"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return errors.New("text is required")
			}
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			lex, err := loadLexicon(lexiconPath, log)
			if err != nil {
				return err
			}
			matcher, err := extraction.NewMatcher(lex)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), extraction.NewExtractor(matcher).Extract(text))
		},
	}
	cmd.Flags().StringVar(&lexiconPath, "lexicon", "", "YAML lexicon to use instead of the embedded one")
	return cmd
}
