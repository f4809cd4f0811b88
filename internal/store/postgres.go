package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

const decisionColumns = `id, owner_id, statement, options, chosen_option, tags, reasoning, concerns, emotion, expectations, review_period, review_due_at, state, retrospective, analysis, feedback, reminded_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDecision(row rowScanner) (Decision, error) {
	var item Decision
	var options, tags, emotion []byte
	var retro, analysis, feedback []byte
	err := row.Scan(
		&item.ID,
		&item.OwnerID,
		&item.Statement,
		&options,
		&item.ChosenOption,
		&tags,
		&item.Reasoning,
		&item.Concerns,
		&emotion,
		&item.Expectations,
		&item.ReviewPeriod,
		&item.ReviewDueAt,
		&item.State,
		&retro,
		&analysis,
		&feedback,
		&item.RemindedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return Decision{}, err
	}
	if err := json.Unmarshal(options, &item.Options); err != nil {
		return Decision{}, fmt.Errorf("decode options: %w", err)
	}
	if err := json.Unmarshal(tags, &item.Tags); err != nil {
		return Decision{}, fmt.Errorf("decode tags: %w", err)
	}
	if err := json.Unmarshal(emotion, &item.Emotion); err != nil {
		return Decision{}, fmt.Errorf("decode emotion: %w", err)
	}
	if len(retro) > 0 {
		item.Retrospective = &Retrospective{}
		if err := json.Unmarshal(retro, item.Retrospective); err != nil {
			return Decision{}, fmt.Errorf("decode retrospective: %w", err)
		}
	}
	if len(analysis) > 0 {
		item.Analysis = &Analysis{}
		if err := json.Unmarshal(analysis, item.Analysis); err != nil {
			return Decision{}, fmt.Errorf("decode analysis: %w", err)
		}
	}
	if len(feedback) > 0 {
		item.Feedback = &Feedback{}
		if err := json.Unmarshal(feedback, item.Feedback); err != nil {
			return Decision{}, fmt.Errorf("decode feedback: %w", err)
		}
	}
	return item, nil
}

func (s *PostgresStore) InsertDecision(ctx context.Context, item Decision) error {
	options, err := json.Marshal(item.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	emotion, err := json.Marshal(item.Emotion)
	if err != nil {
		return fmt.Errorf("marshal emotion: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, owner_id, statement, options, chosen_option, tags, reasoning, concerns, emotion, expectations, review_period, review_due_at, state, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6::jsonb, $7, $8, $9::jsonb, $10, $11, $12, 'open', $13)
	`, item.ID, item.OwnerID, item.Statement, string(options), item.ChosenOption, string(tags), item.Reasoning, item.Concerns, string(emotion), item.Expectations, item.ReviewPeriod, item.ReviewDueAt, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

// GetDecision is owner scoped; a record belonging to someone else reads
// the same as a record that does not exist.
func (s *PostgresStore) GetDecision(ctx context.Context, ownerID, decisionID string) (Decision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+decisionColumns+`
		FROM decisions
		WHERE id=$1 AND owner_id=$2
	`, decisionID, ownerID)
	return scanDecision(row)
}

func (s *PostgresStore) ListDecisions(ctx context.Context, ownerID, filter string, offset, limit int) ([]Decision, int, error) {
	if limit <= 0 {
		limit = 20
	}
	where := `owner_id=$1`
	switch filter {
	case "pending":
		where += ` AND state='open' AND review_due_at <= NOW()`
	case "reviewed":
		where += ` AND state <> 'open'`
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM decisions WHERE `+where, ownerID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count decisions: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+decisionColumns+`
		FROM decisions
		WHERE `+where+`
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`, ownerID, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	items := make([]Decision, 0)
	for rows.Next() {
		item, err := scanDecision(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan decision: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate decisions: %w", err)
	}
	return items, total, nil
}

func (s *PostgresStore) ListAllDecisions(ctx context.Context, ownerID string) ([]Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+decisionColumns+`
		FROM decisions
		WHERE owner_id=$1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list all decisions: %w", err)
	}
	defer rows.Close()

	items := make([]Decision, 0)
	for rows.Next() {
		item, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DeleteDecision(ctx context.Context, ownerID, decisionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM decisions WHERE id=$1 AND owner_id=$2
	`, decisionID, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete decision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete decision rows: %w", err)
	}
	return affected > 0, nil
}

// SetRetrospective moves an open decision to retrospected. Stale analysis
// and feedback are cleared in the same statement so a rewritten record
// can never carry conclusions about an outcome it no longer has.
func (s *PostgresStore) SetRetrospective(ctx context.Context, ownerID, decisionID string, retro Retrospective) (bool, error) {
	encoded, err := json.Marshal(retro)
	if err != nil {
		return false, fmt.Errorf("marshal retrospective: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE decisions
		SET retrospective=$3::jsonb, analysis=NULL, feedback=NULL, state='retrospected', updated_at=NOW()
		WHERE id=$1 AND owner_id=$2 AND state='open'
	`, decisionID, ownerID, string(encoded))
	if err != nil {
		return false, fmt.Errorf("set retrospective: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set retrospective rows: %w", err)
	}
	return affected > 0, nil
}

// SaveAnalysis persists an analysis for a retrospected decision. Once
// feedback exists the record is frozen and the write is refused.
func (s *PostgresStore) SaveAnalysis(ctx context.Context, ownerID, decisionID string, analysis Analysis) (bool, error) {
	encoded, err := json.Marshal(analysis)
	if err != nil {
		return false, fmt.Errorf("marshal analysis: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE decisions
		SET analysis=$3::jsonb, state='analyzed', updated_at=NOW()
		WHERE id=$1 AND owner_id=$2 AND state IN ('retrospected', 'analyzed') AND feedback IS NULL
	`, decisionID, ownerID, string(encoded))
	if err != nil {
		return false, fmt.Errorf("save analysis: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("save analysis rows: %w", err)
	}
	return affected > 0, nil
}

// SetFeedback confirms an analyzed decision. The feedback IS NULL guard
// makes a second confirmation a no-op at the storage level.
func (s *PostgresStore) SetFeedback(ctx context.Context, ownerID, decisionID string, feedback Feedback) (bool, error) {
	encoded, err := json.Marshal(feedback)
	if err != nil {
		return false, fmt.Errorf("marshal feedback: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE decisions
		SET feedback=$3::jsonb, state='confirmed', updated_at=NOW()
		WHERE id=$1 AND owner_id=$2 AND state='analyzed' AND feedback IS NULL
	`, decisionID, ownerID, string(encoded))
	if err != nil {
		return false, fmt.Errorf("set feedback: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set feedback rows: %w", err)
	}
	return affected > 0, nil
}

// ResetDecision clears retrospective, analysis, and feedback in one
// statement, returning the record to open for a fresh review.
func (s *PostgresStore) ResetDecision(ctx context.Context, ownerID, decisionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE decisions
		SET retrospective=NULL, analysis=NULL, feedback=NULL, state='open', updated_at=NOW()
		WHERE id=$1 AND owner_id=$2 AND state <> 'open'
	`, decisionID, ownerID)
	if err != nil {
		return false, fmt.Errorf("reset decision: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reset decision rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) OwnerStats(ctx context.Context, ownerID string) (Stats, error) {
	stats := Stats{ModelCounts: make(map[string]int)}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE state <> 'open'),
			COUNT(*) FILTER (WHERE retrospective->>'polarity' = 'positive'),
			COUNT(*) FILTER (WHERE retrospective->>'polarity' = 'negative'),
			COUNT(*) FILTER (WHERE analysis IS NOT NULL),
			COUNT(*) FILTER (WHERE (analysis->'meta'->>'fallbackUsed')::boolean),
			COUNT(*) FILTER (WHERE (feedback->>'agreed')::boolean),
			COUNT(*) FILTER (WHERE feedback IS NOT NULL AND NOT (feedback->>'agreed')::boolean)
		FROM decisions
		WHERE owner_id=$1
	`, ownerID).Scan(
		&stats.Total,
		&stats.Reviewed,
		&stats.Positive,
		&stats.Negative,
		&stats.Analyzed,
		&stats.FallbackCount,
		&stats.Agreed,
		&stats.Disagreed,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("owner stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT analysis->'meta'->>'model', COUNT(*)::int
		FROM decisions
		WHERE owner_id=$1 AND analysis IS NOT NULL
		GROUP BY 1
	`, ownerID)
	if err != nil {
		return Stats{}, fmt.Errorf("model counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var model string
		var count int
		if err := rows.Scan(&model, &count); err != nil {
			return Stats{}, fmt.Errorf("scan model count: %w", err)
		}
		stats.ModelCounts[model] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate model counts: %w", err)
	}
	return stats, nil
}

// ListDueReminders returns open decisions whose review date has arrived
// and whose owner has not yet been reminded.
func (s *PostgresStore) ListDueReminders(ctx context.Context, before time.Time, limit int) ([]ReminderTarget, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.statement, d.review_due_at, u.email, u.display_name
		FROM decisions d
		JOIN users u ON u.id = d.owner_id
		WHERE d.state='open' AND d.review_due_at <= $1 AND d.reminded_at IS NULL
			AND u.deactivated_at IS NULL
		ORDER BY d.review_due_at ASC
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	defer rows.Close()

	items := make([]ReminderTarget, 0)
	for rows.Next() {
		var item ReminderTarget
		if err := rows.Scan(&item.DecisionID, &item.Statement, &item.ReviewDueAt, &item.Email, &item.DisplayName); err != nil {
			return nil, fmt.Errorf("scan reminder target: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder targets: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) MarkReminded(ctx context.Context, decisionID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE decisions SET reminded_at=NOW() WHERE id=$1 AND reminded_at IS NULL
	`, decisionID)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
