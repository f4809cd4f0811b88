package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search queries decisions with plainto_tsquery and ts_rank, using
// ts_headline for snippets. The tsvector expression matches the GIN
// index in the decisions migration.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}
	if q.OwnerID == "" {
		return nil, 0, fmt.Errorf("search without owner")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const tsVector = "to_tsvector('simple', d.statement || ' ' || d.chosen_option || ' ' || d.reasoning)"
	const tsQuery = "plainto_tsquery('simple', $1)"

	where := fmt.Sprintf("%s @@ %s AND d.owner_id = $2", tsVector, tsQuery)

	countSQL := fmt.Sprintf("SELECT count(*) FROM decisions d WHERE %s", where)

	dataSQL := fmt.Sprintf(`
		SELECT d.id, d.statement,
			ts_headline('simple', d.reasoning, %s, 'MaxFragments=1,MaxWords=30') AS snippet,
			coalesce(d.tags->>'category', ''), d.state
		FROM decisions d
		WHERE %s
		ORDER BY ts_rank(%s, %s) DESC
		LIMIT %d OFFSET %d`,
		tsQuery, where, tsVector, tsQuery, limit, offset)

	ctx := context.Background()
	args := []any{q.Text, q.OwnerID}

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Statement, &r.Snippet, &r.Category, &r.State); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all decision records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]DecisionRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, owner_id, statement, chosen_option, reasoning,
			coalesce(tags->>'category', ''), state
		FROM decisions
	`)
	if err != nil {
		return nil, fmt.Errorf("load decisions: %w", err)
	}
	defer rows.Close()

	decisions := make([]DecisionRecord, 0)
	for rows.Next() {
		var d DecisionRecord
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Statement, &d.ChosenOption, &d.Reasoning, &d.Category, &d.State); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decisions: %w", err)
	}

	return decisions, nil
}
