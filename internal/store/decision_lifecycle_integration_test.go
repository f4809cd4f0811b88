package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Exercises the full decision state machine against a real Postgres:
// open -> retrospected -> analyzed -> confirmed, then rewrite back to open.
func TestDecisionLifecyclePostgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("PRISM_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("PRISM_TEST_DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	pg := NewPostgresStore(db)
	now := time.Now().UTC().Truncate(time.Second)

	owner := User{
		ID:           "usr_lifecycle",
		DisplayName:  "Lifecycle Tester",
		Email:        "lifecycle@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := pg.CreateUser(ctx, owner); err != nil {
		t.Fatalf("create user: %v", err)
	}

	decision := Decision{
		ID:           "dec_lifecycle",
		OwnerID:      owner.ID,
		Statement:    "要不要接受新的工作机会",
		Options:      []string{"接受", "拒绝"},
		ChosenOption: "接受",
		Tags:         Tags{Category: CategoryCareer, RiskLevel: RiskMedium, Reversibility: Reversible},
		Reasoning:    "成长空间更大",
		Concerns:     "适应期可能很难",
		Emotion:      Emotion{Primary: "anxious"},
		Expectations: "半年内独立负责一个方向",
		ReviewPeriod: "1month",
		ReviewDueAt:  now.AddDate(0, 1, 0),
		CreatedAt:    now,
	}
	if err := pg.InsertDecision(ctx, decision); err != nil {
		t.Fatalf("insert decision: %v", err)
	}

	got, err := pg.GetDecision(ctx, owner.ID, decision.ID)
	if err != nil {
		t.Fatalf("get decision: %v", err)
	}
	if got.State != StateOpen {
		t.Fatalf("expected state open, got %q", got.State)
	}
	if len(got.Options) != 2 || got.Options[0] != "接受" {
		t.Fatalf("unexpected options: %v", got.Options)
	}

	if _, err := pg.GetDecision(ctx, "usr_other", decision.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected ErrNoRows for foreign owner, got %v", err)
	}

	// Analysis before retrospective must be refused by the state guard.
	changed, err := pg.SaveAnalysis(ctx, owner.ID, decision.ID, Analysis{Summary: "too early"})
	if err != nil {
		t.Fatalf("premature analysis: %v", err)
	}
	if changed {
		t.Fatal("analysis must not be saved on an open decision")
	}

	retro := Retrospective{
		ActualOutcome:    "比预期顺利",
		Polarity:         PolarityPositive,
		RightAssumptions: "团队确实在扩张",
		SuccessType:      "judgment",
		Influences:       Influences{NewInfo: true},
		SubmittedAt:      now,
	}
	changed, err = pg.SetRetrospective(ctx, owner.ID, decision.ID, retro)
	if err != nil {
		t.Fatalf("set retrospective: %v", err)
	}
	if !changed {
		t.Fatal("expected retrospective to be stored")
	}

	// A second retrospective submission is refused while the state is
	// no longer open.
	changed, err = pg.SetRetrospective(ctx, owner.ID, decision.ID, retro)
	if err != nil {
		t.Fatalf("repeat retrospective: %v", err)
	}
	if changed {
		t.Fatal("retrospective must not overwrite an existing one")
	}

	analysis := Analysis{
		Summary:    "判断基于真实信息",
		CoreIssue:  "信息充分",
		BiasTypes:  []string{"optimism"},
		Confidence: 80,
		Meta:       AnalysisMeta{Model: "deepseek-r1", LatencyMs: 420},
		CreatedAt:  now,
	}
	changed, err = pg.SaveAnalysis(ctx, owner.ID, decision.ID, analysis)
	if err != nil {
		t.Fatalf("save analysis: %v", err)
	}
	if !changed {
		t.Fatal("expected analysis to be stored")
	}

	got, err = pg.GetDecision(ctx, owner.ID, decision.ID)
	if err != nil {
		t.Fatalf("get analyzed decision: %v", err)
	}
	if got.State != StateAnalyzed {
		t.Fatalf("expected state analyzed, got %q", got.State)
	}
	if got.Analysis == nil || got.Analysis.Meta.Model != "deepseek-r1" {
		t.Fatalf("unexpected analysis: %+v", got.Analysis)
	}
	if got.Retrospective == nil || got.Retrospective.Polarity != PolarityPositive {
		t.Fatalf("unexpected retrospective: %+v", got.Retrospective)
	}

	changed, err = pg.SetFeedback(ctx, owner.ID, decision.ID, Feedback{Agreed: true, SubmittedAt: now})
	if err != nil {
		t.Fatalf("set feedback: %v", err)
	}
	if !changed {
		t.Fatal("expected feedback to be stored")
	}

	// Feedback freezes the analysis.
	changed, err = pg.SaveAnalysis(ctx, owner.ID, decision.ID, Analysis{Summary: "rewrite attempt"})
	if err != nil {
		t.Fatalf("frozen analysis: %v", err)
	}
	if changed {
		t.Fatal("analysis must not change after feedback")
	}

	got, err = pg.GetDecision(ctx, owner.ID, decision.ID)
	if err != nil {
		t.Fatalf("get confirmed decision: %v", err)
	}
	if got.State != StateConfirmed {
		t.Fatalf("expected state confirmed, got %q", got.State)
	}
	if got.Feedback == nil || !got.Feedback.Agreed {
		t.Fatalf("unexpected feedback: %+v", got.Feedback)
	}

	changed, err = pg.ResetDecision(ctx, owner.ID, decision.ID)
	if err != nil {
		t.Fatalf("reset decision: %v", err)
	}
	if !changed {
		t.Fatal("expected reset to apply")
	}

	got, err = pg.GetDecision(ctx, owner.ID, decision.ID)
	if err != nil {
		t.Fatalf("get reopened decision: %v", err)
	}
	if got.State != StateOpen {
		t.Fatalf("expected state open after reset, got %q", got.State)
	}
	if got.Retrospective != nil || got.Analysis != nil || got.Feedback != nil {
		t.Fatal("reset must clear retrospective, analysis, and feedback")
	}

	// Resetting an already open record is a no-op.
	changed, err = pg.ResetDecision(ctx, owner.ID, decision.ID)
	if err != nil {
		t.Fatalf("repeat reset: %v", err)
	}
	if changed {
		t.Fatal("reset on an open decision must not report a change")
	}

	stats, err := pg.OwnerStats(ctx, owner.ID)
	if err != nil {
		t.Fatalf("owner stats: %v", err)
	}
	if stats.Total != 1 || stats.Reviewed != 0 {
		t.Fatalf("unexpected stats after reset: %+v", stats)
	}

	deleted, err := pg.DeleteDecision(ctx, owner.ID, decision.ID)
	if err != nil {
		t.Fatalf("delete decision: %v", err)
	}
	if !deleted {
		t.Fatal("expected decision to be deleted")
	}
}
