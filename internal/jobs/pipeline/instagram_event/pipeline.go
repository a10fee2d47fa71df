package instagram_event

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/unidine-backend/internal/data/db"
	types "github.com/yungbote/unidine-backend/internal/domain"
	"github.com/yungbote/unidine-backend/internal/domain/restaurants"
	jobrt "github.com/yungbote/unidine-backend/internal/jobs/runtime"
	"github.com/yungbote/unidine-backend/internal/modules/extraction"
	"github.com/yungbote/unidine-backend/internal/platform/dbctx"
	"github.com/yungbote/unidine-backend/internal/services"
)

// Summary is stored on job_run.result.
type Summary struct {
	Outcome       string  `json:"outcome"`
	Kind          string  `json:"kind"`
	ExternalID    string  `json:"external_id"`
	InteractionID string  `json:"interaction_id,omitempty"`
	Saved         bool    `json:"saved"`
	RestaurantID  string  `json:"restaurant_id,omitempty"`
	Restaurant    string  `json:"restaurant,omitempty"`
	Confidence    float64 `json:"confidence"`
	Sentiment     string  `json:"sentiment,omitempty"`
	Intent        string  `json:"intent,omitempty"`
	ReplySource   string  `json:"reply_source,omitempty"`
	Replied       bool    `json:"replied"`
}

const (
	OutcomeProcessed   = "processed"
	OutcomeSkipped     = "skipped"
	OutcomeDuplicate   = "duplicate"
	OutcomeNotRecorded = "not_recorded"
)

const (
	stageValidate = "validate"
	stageResolve  = "resolve_account"
	stageAnalyze  = "analyze"
	stageRecord   = "record"
	stageReply    = "reply"
	stageDone     = "done"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	evt, err := services.InboundEventFromMap(jc.Payload())
	if err != nil {
		jc.Fail(stageValidate, err)
		return nil
	}
	sum := Summary{Kind: evt.Kind, ExternalID: evt.ExternalID}
	dbc := dbctx.Context{Ctx: jc.Ctx}

	jc.Progress(stageResolve, 10, "Resolving account")
	acct, err := p.accounts.GetByIGBusinessID(dbc, evt.IGBusinessID)
	if err != nil {
		jc.Fail(stageResolve, err)
		return nil
	}
	if acct == nil || !acct.IsActive {
		p.log.Info("instagram event for unknown or inactive account", "ig_business_id", evt.IGBusinessID, "kind", evt.Kind)
		sum.Outcome = OutcomeSkipped
		jc.Succeed(stageDone, sum)
		return nil
	}

	exists, err := p.interactions.ExistsByExternalID(dbc, acct.ID, evt.ExternalID)
	if err != nil {
		jc.Fail(stageResolve, err)
		return nil
	}
	if exists {
		sum.Outcome = OutcomeDuplicate
		jc.Succeed(stageDone, sum)
		return nil
	}

	jc.Progress(stageAnalyze, 30, "Analyzing interaction")
	analysis, saved, res, err := p.analyze(jc.Ctx, acct, evt)
	if err != nil {
		jc.Fail(stageAnalyze, err)
		return nil
	}
	sum.Sentiment = analysis.Sentiment
	sum.Intent = analysis.Intent
	sum.Confidence = res.Overall()
	if saved != nil {
		sum.Saved = true
		sum.RestaurantID = saved.ID.String()
		sum.Restaurant = saved.Name
	}

	// The merge above is not idempotent, so nothing after it fails the run.
	jc.Progress(stageRecord, 70, "Recording interaction")
	it := &types.Interaction{
		AccountID:      acct.ID,
		Type:           evt.InteractionType(),
		ExternalID:     evt.ExternalID,
		MediaID:        evt.MediaID,
		SenderID:       evt.SenderID,
		SenderUsername: evt.SenderUsername,
		Content:        evt.Text,
		Sentiment:      analysis.Sentiment,
		Intent:         analysis.Intent,
	}
	if saved != nil {
		id := saved.ID
		it.RestaurantID = &id
	}
	if err := p.interactions.Create(dbc, it); err != nil {
		if db.IsUniqueViolation(err) {
			sum.Outcome = OutcomeDuplicate
		} else {
			p.log.Error("record interaction failed", "account_id", acct.ID, "external_id", evt.ExternalID, "error", err)
			sum.Outcome = OutcomeNotRecorded
		}
		jc.Succeed(stageDone, sum)
		return nil
	}
	sum.InteractionID = it.ID.String()

	jc.Progress(stageReply, 85, "Sending auto-reply")
	sum.ReplySource, sum.Replied = p.autoReply(jc.Ctx, acct, it, evt, saved)

	sum.Outcome = OutcomeProcessed
	jc.Succeed(stageDone, sum)
	return nil
}

// analyze runs the AI labelling and the extract-and-save path concurrently.
// Only the save path can fail the run; the AI labels fall back to defaults.
func (p *Pipeline) analyze(ctx context.Context, acct *types.InstagramAccount, evt services.InboundEvent) (services.Analysis, *types.Restaurant, extraction.Result, error) {
	var (
		analysis = services.DefaultAnalysis
		saved    *types.Restaurant
		res      extraction.Result
	)
	threshold := acct.SaveThreshold
	if threshold <= 0 {
		threshold = services.DefaultSaveThreshold
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if p.ai != nil {
			analysis = p.ai.Analyze(gctx, evt.Text)
		}
		return nil
	})
	g.Go(func() error {
		rec, r, err := p.extraction.ExtractAndMaybeSave(gctx, services.SaveRequest{
			Text:            evt.Text,
			UserID:          acct.UserID,
			Threshold:       threshold,
			MediaLink:       evt.MediaLink,
			Source:          restaurants.SourceInstagram,
			InstagramUserID: evt.SenderID,
		})
		res = r
		if err != nil {
			return fmt.Errorf("extract and save: %w", err)
		}
		saved = rec
		return nil
	})
	if err := g.Wait(); err != nil {
		return analysis, nil, res, err
	}
	if res.Success {
		if err := p.extraction.RecordHistory(dbctx.Context{Ctx: ctx}, acct.UserID, evt.Text, res, saved); err != nil {
			p.log.Warn("record extraction history failed", "user_id", acct.UserID, "error", err)
		}
	}
	return analysis, saved, res, nil
}
