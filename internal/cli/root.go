// Package cli implements the unidinectl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/unidine-backend/internal/data/db"
	"github.com/yungbote/unidine-backend/internal/modules/extraction"
	"github.com/yungbote/unidine-backend/internal/platform/logger"
)

// NewRootCmd assembles unidinectl with every subcommand attached.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:           "unidinectl",
		Short:         "Operate the UniDine restaurant extraction backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(NewExtractCmd())
	root.AddCommand(NewLexiconCmd())
	root.AddCommand(NewMigrateCmd())
	root.AddCommand(NewSaveCmd())
	return root
}

func newLogger() (*logger.Logger, error) {
	mode := os.Getenv("LOG_MODE")
	if mode == "" {
		mode = "production"
	}
	return logger.New(mode)
}

// loadLexicon prefers an explicit path over EXTRACTION_LEXICON_PATH.
func loadLexicon(path string, log *logger.Logger) (*extraction.Lexicon, error) {
	if path != "" {
		return extraction.LoadLexiconFile(path)
	}
	return extraction.LexiconFromEnv(log), nil
}

func openDatabase(log *logger.Logger) (*db.DatabaseService, error) {
	svc, err := db.NewDatabaseService(db.ConfigFromEnv(), log)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return svc, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
