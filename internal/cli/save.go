package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/unidine-backend/internal/data/repos"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	"github.com/yungbote/unidine-backend/internal/modules/extraction"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/services"
)

type saveOutput struct {
	Saved      bool              `json:"saved"`
	Restaurant any               `json:"restaurant,omitempty"`
	Result     extraction.Result `json:"result"`
}

// NewSaveCmd extracts and, above the threshold, merges the mention for a user.
func NewSaveCmd() *cobra.Command {
	var (
		userFlag    string
		threshold   float64
		mediaLink   string
		lexiconPath string
	)

	cmd := &cobra.Command{
		Use:   "save --user <uuid> <text...>",
		Short: "Extract a mention and save it to a user's collection",
		Example: `  unidinectl save --user 6f1c... "Burger Barn in Chicago has the best burgers"
  unidinectl save --user 6f1c... --threshold 0.8 "Try Taco Palace in San Diego"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(strings.TrimSpace(userFlag))
			if err != nil || userID == uuid.Nil {
				return fmt.Errorf("--user must be a uuid: %q", userFlag)
			}
			if threshold < 0 || threshold > 1 {
				return errors.New("--threshold must be within [0,1]")
			}
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

			dbs, err := openDatabase(log)
			if err != nil {
				return err
			}
			defer dbs.Close()
			theDB := dbs.DB()

			restRepo := repos.NewRestaurantRepo(theDB, log)
			merge := services.NewMergeService(theDB, log, restRepo, nil, nil, services.MergeConfig{})
			svc := services.NewExtractionService(theDB, log, extraction.NewExtractor(matcher), merge, repos.NewExtractionHistoryRepo(theDB, log))

			ctx := cmd.Context()
			rec, res, err := svc.ExtractAndMaybeSave(ctx, services.SaveRequest{
				Text:      text,
				UserID:    userID,
				Threshold: threshold,
				MediaLink: mediaLink,
				Source:    restaurants.SourceCLI,
			})
			if err != nil {
				return err
			}
			if err := svc.RecordHistory(dbctx.Context{Ctx: ctx}, userID, text, res, rec); err != nil {
				log.Warn("record extraction history failed", "error", err)
			}

			out := saveOutput{Saved: rec != nil, Result: res}
			if rec != nil {
				out.Restaurant = rec
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "owner user id (required)")
	cmd.Flags().Float64Var(&threshold, "threshold", services.DefaultSaveThreshold, "overall confidence a mention must exceed to be saved")
	cmd.Flags().StringVar(&mediaLink, "media-link", "", "media URL to attach to the record")
	cmd.Flags().StringVar(&lexiconPath, "lexicon", "", "YAML lexicon to use instead of the embedded one")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
