package app

import (
	"context"
	"database/sql"
	"math"
	"net/http"
	"strings"
	"time"

	"prism/api/internal/auth"
	"prism/api/internal/authpw"
	"prism/api/internal/classify"
	"prism/api/internal/config"
	"prism/api/internal/email"
	"prism/api/internal/export"
	"prism/api/internal/search"
	"prism/api/internal/store"
	"prism/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

type CreateDecisionInput struct {
	Statement    string        `json:"statement"`
	Options      []string      `json:"options"`
	ChosenOption string        `json:"chosenOption"`
	Tags         *store.Tags   `json:"tags"`
	Reasoning    string        `json:"reasoning"`
	Concerns     string        `json:"concerns"`
	Emotion      store.Emotion `json:"emotion"`
	Expectations string        `json:"expectations"`
	ReviewPeriod string        `json:"reviewPeriod"`
	CreatedAt    *time.Time    `json:"createdAt"`
}

type RetrospectiveInput struct {
	ActualOutcome    string           `json:"actualOutcome"`
	Polarity         string           `json:"polarity"`
	WrongAssumptions string           `json:"wrongAssumptions"`
	ErrorType        string           `json:"errorType"`
	RightAssumptions string           `json:"rightAssumptions"`
	SuccessType      string           `json:"successType"`
	Influences       store.Influences `json:"influences"`
}

type FeedbackInput struct {
	Agreed     bool `json:"agreed"`
	WallBroken bool `json:"wallBroken"`
}

var reviewPeriods = map[string]struct{}{
	"1week":   {},
	"1month":  {},
	"3months": {},
	"6months": {},
}

var allowedEmotions = map[string]struct{}{
	"anxious":  {},
	"excited":  {},
	"calm":     {},
	"urgent":   {},
	"confused": {},
}

var allowedOutcomeKinds = map[string]struct{}{
	"judgment":  {},
	"execution": {},
	"both":      {},
}

type dataStore interface {
	InsertDecision(context.Context, store.Decision) error
	GetDecision(context.Context, string, string) (store.Decision, error)
	ListDecisions(context.Context, string, string, int, int) ([]store.Decision, int, error)
	ListAllDecisions(context.Context, string) ([]store.Decision, error)
	DeleteDecision(context.Context, string, string) (bool, error)
	SetRetrospective(context.Context, string, string, store.Retrospective) (bool, error)
	SaveAnalysis(context.Context, string, string, store.Analysis) (bool, error)
	SetFeedback(context.Context, string, string, store.Feedback) (bool, error)
	ResetDecision(context.Context, string, string) (bool, error)
	OwnerStats(context.Context, string) (store.Stats, error)
	ListDueReminders(context.Context, time.Time, int) ([]store.ReminderTarget, error)
	MarkReminded(context.Context, string) error
	GetUserByID(context.Context, string) (store.User, error)
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

// refreshStore holds refresh sessions. Redis when available, the
// primary store otherwise.
type refreshStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type analyzer interface {
	Run(ctx context.Context, d store.Decision) store.Analysis
}

type analysisGuard interface {
	Acquire(ctx context.Context, decisionID string) (bool, error)
	Release(ctx context.Context, decisionID string) error
}

type tagClassifier interface {
	Classify(ctx context.Context, text string) store.Tags
}

// Deps carries the collaborators the service needs. Sessions, Search,
// Classifier, Guard, Auth, Email, and Exporter are all optional.
type Deps struct {
	Store      dataStore
	Sessions   refreshStore
	Search     *search.Service
	Classifier tagClassifier
	Analyzer   analyzer
	Guard      analysisGuard
	Auth       *authpw.Service
	Email      *email.Service
	Exporter   *export.Service
}

type Service struct {
	cfg        config.Config
	store      dataStore
	sessions   refreshStore
	search     *search.Service
	classifier tagClassifier
	analyzer   analyzer
	guard      analysisGuard
	authpw     *authpw.Service
	email      *email.Service
	exporter   *export.Service
}

func New(cfg config.Config, deps Deps) *Service {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = deps.Store
	}
	guard := deps.Guard
	if guard == nil {
		guard = nopGuard{}
	}
	return &Service{
		cfg:        cfg,
		store:      deps.Store,
		sessions:   sessions,
		search:     deps.Search,
		classifier: deps.Classifier,
		analyzer:   deps.Analyzer,
		guard:      guard,
		authpw:     deps.Auth,
		email:      deps.Email,
		exporter:   deps.Exporter,
	}
}

type nopGuard struct{}

func (nopGuard) Acquire(ctx context.Context, decisionID string) (bool, error) { return true, nil }
func (nopGuard) Release(ctx context.Context, decisionID string) error         { return nil }

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) EmailService() *email.Service {
	return s.email
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ReadyChecks probes the service's backing stores. The session store
// is only included when it is a separate component with its own ping.
func (s *Service) ReadyChecks(ctx context.Context) map[string]error {
	checks := map[string]error{"database": s.store.Ping(ctx)}
	if any(s.sessions) != any(s.store) {
		if pinger, ok := s.sessions.(interface{ Ping(context.Context) error }); ok {
			checks["redis"] = pinger.Ping(ctx)
		}
	}
	return checks
}

// CreateSession issues tokens for an already-authenticated user.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	// The Redis session store only carries the user id.
	if full, err := s.store.GetUserByID(ctx, user.ID); err == nil {
		user = full
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user.ID, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// reviewDueAt computes the review date from the decision date.
func reviewDueAt(createdAt time.Time, period string) time.Time {
	switch period {
	case "1week":
		return createdAt.AddDate(0, 0, 7)
	case "3months":
		return createdAt.AddDate(0, 3, 0)
	case "6months":
		return createdAt.AddDate(0, 6, 0)
	default:
		return createdAt.AddDate(0, 1, 0)
	}
}

func (s *Service) suggestTags(ctx context.Context, text string) store.Tags {
	if s.classifier != nil {
		return s.classifier.Classify(ctx, text)
	}
	return classify.Keyword(text)
}

// SuggestTags classifies free text without touching any record. The
// assisted path goes through the generative classifier when one is
// wired; callers only see the difference in the aiGenerated flag.
func (s *Service) SuggestTags(ctx context.Context, text string, assisted bool) store.Tags {
	if !assisted {
		return classify.Keyword(text)
	}
	return s.suggestTags(ctx, text)
}

func (s *Service) CreateDecision(ctx context.Context, ownerID string, input CreateDecisionInput) (map[string]any, error) {
	statement := strings.TrimSpace(input.Statement)
	if statement == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "statement is required", nil)
	}
	chosen := strings.TrimSpace(input.ChosenOption)
	if chosen == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "chosenOption is required", nil)
	}
	period := strings.TrimSpace(input.ReviewPeriod)
	if period == "" {
		period = "1month"
	}
	if _, ok := reviewPeriods[period]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid reviewPeriod", nil)
	}
	emotion := input.Emotion
	emotion.Primary = strings.TrimSpace(emotion.Primary)
	if emotion.Primary != "" {
		if _, ok := allowedEmotions[emotion.Primary]; !ok {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid emotion", nil)
		}
	}

	now := time.Now()
	createdAt := now
	if input.CreatedAt != nil && !input.CreatedAt.IsZero() {
		if input.CreatedAt.After(now) {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "createdAt cannot be in the future", nil)
		}
		createdAt = *input.CreatedAt
	}

	tags := store.Tags{}
	if input.Tags != nil {
		tags = *input.Tags
	}
	if tags.Category == "" {
		tags = s.suggestTags(ctx, statement+" "+input.Reasoning)
	}

	options := make([]string, 0, len(input.Options))
	chosenOffered := false
	for _, opt := range input.Options {
		trimmed := strings.TrimSpace(opt)
		if trimmed == "" {
			continue
		}
		options = append(options, trimmed)
		if trimmed == chosen {
			chosenOffered = true
		}
	}
	if len(options) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "at least one option is required", nil)
	}
	if !chosenOffered {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "chosenOption must be one of the options", nil)
	}

	decision := store.Decision{
		ID:           util.NewID("dec"),
		OwnerID:      ownerID,
		Statement:    statement,
		Options:      options,
		ChosenOption: chosen,
		Tags:         tags,
		Reasoning:    strings.TrimSpace(input.Reasoning),
		Concerns:     strings.TrimSpace(input.Concerns),
		Emotion:      emotion,
		Expectations: strings.TrimSpace(input.Expectations),
		ReviewPeriod: period,
		ReviewDueAt:  reviewDueAt(createdAt, period),
		State:        store.StateOpen,
		CreatedAt:    createdAt,
		UpdatedAt:    now,
	}

	if err := s.store.InsertDecision(ctx, decision); err != nil {
		return nil, err
	}
	s.indexDecision(decision)

	return decisionPayload(decision, now), nil
}

func (s *Service) indexDecision(d store.Decision) {
	if s.search == nil {
		return
	}
	s.search.IndexDecision(search.DecisionRecord{
		ID:           d.ID,
		OwnerID:      d.OwnerID,
		Statement:    d.Statement,
		ChosenOption: d.ChosenOption,
		Reasoning:    d.Reasoning,
		Category:     d.Tags.Category,
		State:        d.State,
	})
}

var listFilters = map[string]struct{}{
	"":         {},
	"all":      {},
	"pending":  {},
	"reviewed": {},
}

func (s *Service) ListDecisions(ctx context.Context, ownerID, filter string, offset, limit int) (map[string]any, error) {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if _, ok := listFilters[filter]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "filter must be one of all, pending, reviewed", nil)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	decisions, total, err := s.store.ListDecisions(ctx, ownerID, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]map[string]any, 0, len(decisions))
	for _, d := range decisions {
		items = append(items, decisionPayload(d, now))
	}
	return map[string]any{
		"items":  items,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	}, nil
}

func (s *Service) GetDecision(ctx context.Context, ownerID, decisionID string) (map[string]any, error) {
	decision, err := s.store.GetDecision(ctx, ownerID, decisionID)
	if err != nil {
		return nil, err
	}
	return decisionPayload(decision, time.Now()), nil
}

func (s *Service) DeleteDecision(ctx context.Context, ownerID, decisionID string) error {
	deleted, err := s.store.DeleteDecision(ctx, ownerID, decisionID)
	if err != nil {
		return err
	}
	if !deleted {
		return sql.ErrNoRows
	}
	if s.search != nil {
		s.search.DeleteDecision(decisionID)
	}
	return nil
}

func (s *Service) SubmitRetrospective(ctx context.Context, ownerID, decisionID string, input RetrospectiveInput) (map[string]any, error) {
	outcome := strings.TrimSpace(input.ActualOutcome)
	if outcome == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "actualOutcome is required", nil)
	}
	polarity := strings.ToLower(strings.TrimSpace(input.Polarity))
	if polarity != store.PolarityPositive && polarity != store.PolarityNegative {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "polarity must be positive or negative", nil)
	}

	retro := store.Retrospective{
		ActualOutcome: outcome,
		Polarity:      polarity,
		Influences:    input.Influences,
		SubmittedAt:   time.Now().UTC(),
	}
	switch polarity {
	case store.PolarityNegative:
		retro.WrongAssumptions = strings.TrimSpace(input.WrongAssumptions)
		retro.ErrorType = strings.ToLower(strings.TrimSpace(input.ErrorType))
		if retro.ErrorType != "" {
			if _, ok := allowedOutcomeKinds[retro.ErrorType]; !ok {
				return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "errorType must be one of judgment, execution, both", nil)
			}
		}
	case store.PolarityPositive:
		retro.RightAssumptions = strings.TrimSpace(input.RightAssumptions)
		retro.SuccessType = strings.ToLower(strings.TrimSpace(input.SuccessType))
		if retro.SuccessType != "" {
			if _, ok := allowedOutcomeKinds[retro.SuccessType]; !ok {
				return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "successType must be one of judgment, execution, both", nil)
			}
		}
	}

	changed, err := s.store.SetRetrospective(ctx, ownerID, decisionID, retro)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Either the record does not exist for this owner or it has
		// already left the open state.
		if _, err := s.store.GetDecision(ctx, ownerID, decisionID); err != nil {
			return nil, err
		}
		return nil, domainError(http.StatusConflict, "CONFLICT", "decision has already been retrospected", nil)
	}

	return s.GetDecision(ctx, ownerID, decisionID)
}

func (s *Service) RunAnalysis(ctx context.Context, ownerID, decisionID string) (map[string]any, error) {
	decision, err := s.store.GetDecision(ctx, ownerID, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.Analysis != nil {
		// Analysis is idempotent per retrospective cycle. Repeat calls
		// return the stored result without touching the model tiers.
		return decisionPayload(decision, time.Now()), nil
	}
	if decision.State == store.StateOpen || decision.Retrospective == nil {
		return nil, domainError(http.StatusConflict, "CONFLICT", "decision has no retrospective yet", nil)
	}
	if decision.Feedback != nil {
		return nil, domainError(http.StatusConflict, "CONFLICT", "analysis is frozen after feedback", nil)
	}

	acquired, err := s.guard.Acquire(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domainError(http.StatusConflict, "ANALYSIS_IN_PROGRESS", "analysis is already running for this decision", nil)
	}
	defer func() { _ = s.guard.Release(context.WithoutCancel(ctx), decisionID) }()

	result := s.analyzer.Run(ctx, decision)

	changed, err := s.store.SaveAnalysis(ctx, ownerID, decisionID, result)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost a write race or the record was confirmed meanwhile.
		// Return whatever is stored now.
		stored, err := s.store.GetDecision(ctx, ownerID, decisionID)
		if err != nil {
			return nil, err
		}
		if stored.Analysis == nil {
			return nil, domainError(http.StatusConflict, "CONFLICT", "analysis could not be stored", nil)
		}
		return decisionPayload(stored, time.Now()), nil
	}

	return s.GetDecision(ctx, ownerID, decisionID)
}

func (s *Service) RecordFeedback(ctx context.Context, ownerID, decisionID string, input FeedbackInput) (map[string]any, error) {
	decision, err := s.store.GetDecision(ctx, ownerID, decisionID)
	if err != nil {
		return nil, err
	}
	if decision.Feedback != nil {
		// Feedback is write-once. Repeat submissions return the stored record.
		return decisionPayload(decision, time.Now()), nil
	}
	if decision.State != store.StateAnalyzed {
		return nil, domainError(http.StatusConflict, "CONFLICT", "decision has no analysis to confirm", nil)
	}

	feedback := store.Feedback{
		Agreed:      input.Agreed,
		WallBroken:  input.WallBroken,
		SubmittedAt: time.Now().UTC(),
	}
	changed, err := s.store.SetFeedback(ctx, ownerID, decisionID, feedback)
	if err != nil {
		return nil, err
	}
	if !changed {
		stored, err := s.store.GetDecision(ctx, ownerID, decisionID)
		if err != nil {
			return nil, err
		}
		if stored.Feedback != nil {
			return decisionPayload(stored, time.Now()), nil
		}
		return nil, domainError(http.StatusConflict, "CONFLICT", "feedback could not be stored", nil)
	}

	return s.GetDecision(ctx, ownerID, decisionID)
}

// Rewrite throws away the retrospective, analysis, and feedback and
// reopens the decision for a fresh review cycle.
func (s *Service) Rewrite(ctx context.Context, ownerID, decisionID string) (map[string]any, error) {
	changed, err := s.store.ResetDecision(ctx, ownerID, decisionID)
	if err != nil {
		return nil, err
	}
	if !changed {
		if _, err := s.store.GetDecision(ctx, ownerID, decisionID); err != nil {
			return nil, err
		}
		return nil, domainError(http.StatusConflict, "CONFLICT", "decision is already open", nil)
	}
	return s.GetDecision(ctx, ownerID, decisionID)
}

func (s *Service) Stats(ctx context.Context, ownerID string) (map[string]any, error) {
	stats, err := s.store.OwnerStats(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	models := stats.ModelCounts
	if models == nil {
		models = map[string]int{}
	}
	return map[string]any{
		"total":         stats.Total,
		"reviewed":      stats.Reviewed,
		"reviewedRate":  percentage(stats.Reviewed, stats.Total),
		"positive":      stats.Positive,
		"negative":      stats.Negative,
		"analyzed":      stats.Analyzed,
		"fallbackCount": stats.FallbackCount,
		"agreed":        stats.Agreed,
		"disagreed":     stats.Disagreed,
		"agreeRate":     percentage(stats.Agreed, stats.Agreed+stats.Disagreed),
		"modelCounts":   models,
	}, nil
}

func percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func (s *Service) Search(ctx context.Context, ownerID, query string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: query}, nil
	}
	return s.search.Search(search.Query{
		Text:    query,
		OwnerID: ownerID,
		Limit:   limit,
		Offset:  offset,
	}), nil
}

func (s *Service) Export(ctx context.Context, ownerID string, format string) (*export.Result, error) {
	if s.exporter == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "export is not configured", nil)
	}
	return s.exporter.Export(ctx, export.Request{
		OwnerID: ownerID,
		Format:  export.Format(format),
	})
}

// SendDueReminders mails owners of decisions whose review date has
// passed. Each decision is reminded at most once.
func (s *Service) SendDueReminders(ctx context.Context, limit int) (int, error) {
	if s.email == nil || !s.email.IsConfigured() {
		return 0, nil
	}
	targets, err := s.store.ListDueReminders(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, target := range targets {
		if err := s.email.SendReviewReminderEmail(target.Email, target.DisplayName, target.Statement, target.ReviewDueAt); err != nil {
			continue
		}
		if err := s.store.MarkReminded(ctx, target.DecisionID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// ReindexSearch repopulates the search index from the primary store.
func (s *Service) ReindexSearch(ctx context.Context) {
	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
}

func decisionPayload(d store.Decision, now time.Time) map[string]any {
	options := d.Options
	if options == nil {
		options = []string{}
	}
	overdue := d.State == store.StateOpen && !d.ReviewDueAt.After(now)

	payload := map[string]any{
		"id":           d.ID,
		"statement":    d.Statement,
		"options":      options,
		"chosenOption": d.ChosenOption,
		"tags": map[string]any{
			"category":      d.Tags.Category,
			"riskLevel":     d.Tags.RiskLevel,
			"reversibility": d.Tags.Reversibility,
			"aiGenerated":   d.Tags.AIGenerated,
		},
		"reasoning":    d.Reasoning,
		"concerns":     d.Concerns,
		"emotion":      map[string]any{"primary": d.Emotion.Primary, "note": d.Emotion.Note},
		"expectations": d.Expectations,
		"reviewPeriod": d.ReviewPeriod,
		"reviewDueAt":  d.ReviewDueAt.Format(time.RFC3339),
		"state":        d.State,
		"overdue":      overdue,
		"createdAt":    d.CreatedAt.Format(time.RFC3339),
		"updatedAt":    d.UpdatedAt.Format(time.RFC3339),
	}

	if r := d.Retrospective; r != nil {
		payload["retrospective"] = map[string]any{
			"actualOutcome":    r.ActualOutcome,
			"polarity":         r.Polarity,
			"wrongAssumptions": r.WrongAssumptions,
			"errorType":        r.ErrorType,
			"rightAssumptions": r.RightAssumptions,
			"successType":      r.SuccessType,
			"influences": map[string]any{
				"emotion":          r.Influences.Emotion,
				"newInfo":          r.Influences.NewInfo,
				"externalPressure": r.Influences.ExternalPressure,
				"resourceChange":   r.Influences.ResourceChange,
				"other":            r.Influences.Other,
				"details":          r.Influences.Details,
			},
			"submittedAt": r.SubmittedAt.Format(time.RFC3339),
		}
	}
	if a := d.Analysis; a != nil {
		payload["analysis"] = map[string]any{
			"summary":            a.Summary,
			"coreIssue":          a.CoreIssue,
			"biasTypes":          a.BiasTypes,
			"currentPattern":     a.CurrentPattern,
			"suggestedPrinciple": a.SuggestedPrinciple,
			"suggestion":         a.Suggestion,
			"confidence":         a.Confidence,
			"meta": map[string]any{
				"model":        a.Meta.Model,
				"fallbackUsed": a.Meta.FallbackUsed,
				"latencyMs":    a.Meta.LatencyMs,
			},
			"createdAt": a.CreatedAt.Format(time.RFC3339),
		}
	}
	if f := d.Feedback; f != nil {
		payload["feedback"] = map[string]any{
			"agreed":      f.Agreed,
			"wallBroken":  f.WallBroken,
			"submittedAt": f.SubmittedAt.Format(time.RFC3339),
		}
	}

	return payload
}
