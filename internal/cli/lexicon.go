package cli

import (
	"github.com/spf13/cobra"
)

func NewLexiconCmd() *cobra.Command {
	var lexiconPath string

	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Print the active extraction lexicon as YAML",
		Long: `Print the lexicon the extractor would use: the file named by --lexicon,
else EXTRACTION_LEXICON_PATH, else the embedded default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			lex, err := loadLexicon(lexiconPath, log)
			if err != nil {
				return err
			}
			raw, err := lex.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}
	cmd.Flags().StringVar(&lexiconPath, "lexicon", "", "YAML lexicon to load and validate")
	return cmd
}
