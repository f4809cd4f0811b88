package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"prism/api/internal/store"
)

// DataStore defines the data access the exporter needs
type DataStore interface {
	ListAllDecisions(ctx context.Context, ownerID string) ([]store.Decision, error)
}

// Service renders decision journals in the requested format
type Service struct {
	store DataStore
}

// NewService creates a new export service
func NewService(store DataStore) *Service {
	return &Service{store: store}
}

// Export generates an export of the owner's full journal
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	decisions, err := s.store.ListAllDecisions(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}

	now := time.Now()
	stem := "prism-decisions-" + now.Format("20060102")

	switch req.Format {
	case FormatJSON:
		data, err := buildJSON(decisions, now)
		if err != nil {
			return nil, fmt.Errorf("build json: %w", err)
		}
		return &Result{
			Data:     data,
			Filename: stem + ".json",
			MimeType: "application/json",
		}, nil
	case FormatMarkdown:
		return &Result{
			Data:     []byte(buildMarkdown(decisions, now)),
			Filename: stem + ".md",
			MimeType: "text/markdown; charset=utf-8",
		}, nil
	case FormatPDF:
		html, err := RenderJournalHTML(journalTemplateData(decisions, now))
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return exportPDF(html, stem)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Format)
	}
}

type jsonEnvelope struct {
	ExportedAt time.Time      `json:"exportedAt"`
	App        string         `json:"app"`
	Total      int            `json:"total"`
	Decisions  []jsonDecision `json:"decisions"`
}

type jsonDecision struct {
	ID            string               `json:"id"`
	Statement     string               `json:"statement"`
	Options       []string             `json:"options"`
	ChosenOption  string               `json:"chosenOption"`
	Tags          store.Tags           `json:"tags"`
	Reasoning     string               `json:"reasoning,omitempty"`
	Concerns      string               `json:"concerns,omitempty"`
	Emotion       store.Emotion        `json:"emotion"`
	Expectations  string               `json:"expectations,omitempty"`
	ReviewPeriod  string               `json:"reviewPeriod"`
	ReviewDueAt   time.Time            `json:"reviewDueAt"`
	State         string               `json:"state"`
	Retrospective *store.Retrospective `json:"retrospective,omitempty"`
	Analysis      *store.Analysis      `json:"analysis,omitempty"`
	Feedback      *store.Feedback      `json:"feedback,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

func buildJSON(decisions []store.Decision, now time.Time) ([]byte, error) {
	out := make([]jsonDecision, 0, len(decisions))
	for _, d := range decisions {
		options := d.Options
		if options == nil {
			options = []string{}
		}
		out = append(out, jsonDecision{
			ID:            d.ID,
			Statement:     d.Statement,
			Options:       options,
			ChosenOption:  d.ChosenOption,
			Tags:          d.Tags,
			Reasoning:     d.Reasoning,
			Concerns:      d.Concerns,
			Emotion:       d.Emotion,
			Expectations:  d.Expectations,
			ReviewPeriod:  d.ReviewPeriod,
			ReviewDueAt:   d.ReviewDueAt,
			State:         d.State,
			Retrospective: d.Retrospective,
			Analysis:      d.Analysis,
			Feedback:      d.Feedback,
			CreatedAt:     d.CreatedAt,
		})
	}
	return json.MarshalIndent(jsonEnvelope{
		ExportedAt: now.UTC(),
		App:        "棱镜",
		Total:      len(out),
		Decisions:  out,
	}, "", "  ")
}
