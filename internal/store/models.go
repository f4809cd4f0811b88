package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	DeactivatedAt         *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Decision lifecycle states. Transitions are enforced with conditional
// UPDATEs that carry the expected state in the WHERE clause.
const (
	StateOpen         = "open"
	StateRetrospected = "retrospected"
	StateAnalyzed     = "analyzed"
	StateConfirmed    = "confirmed"
)

// Tag enums.
const (
	CategoryProduct    = "product"
	CategoryInvestment = "investment"
	CategoryCareer     = "career"
	CategoryLife       = "life"

	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	Reversible   = "reversible"
	Irreversible = "irreversible"
)

const (
	PolarityPositive = "positive"
	PolarityNegative = "negative"
)

type Tags struct {
	Category      string `json:"category"`
	RiskLevel     string `json:"riskLevel"`
	Reversibility string `json:"reversibility"`
	AIGenerated   bool   `json:"aiGenerated"`
}

type Emotion struct {
	Primary string `json:"primary"`
	Note    string `json:"note,omitempty"`
}

// Influences records what the author believes shaped the outcome.
type Influences struct {
	Emotion          bool   `json:"emotion"`
	NewInfo          bool   `json:"newInfo"`
	ExternalPressure bool   `json:"externalPressure"`
	ResourceChange   bool   `json:"resourceChange"`
	Other            bool   `json:"other"`
	Details          string `json:"details,omitempty"`
}

type Retrospective struct {
	ActualOutcome    string     `json:"actualOutcome"`
	Polarity         string     `json:"polarity"`
	WrongAssumptions string     `json:"wrongAssumptions,omitempty"`
	ErrorType        string     `json:"errorType,omitempty"`
	RightAssumptions string     `json:"rightAssumptions,omitempty"`
	SuccessType      string     `json:"successType,omitempty"`
	Influences       Influences `json:"influences"`
	SubmittedAt      time.Time  `json:"submittedAt"`
}

type AnalysisMeta struct {
	Model        string `json:"model"`
	FallbackUsed bool   `json:"fallbackUsed"`
	LatencyMs    int64  `json:"latencyMs"`
}

type Analysis struct {
	Summary            string       `json:"summary"`
	CoreIssue          string       `json:"coreIssue"`
	BiasTypes          []string     `json:"biasTypes"`
	CurrentPattern     string       `json:"currentPattern"`
	SuggestedPrinciple string       `json:"suggestedPrinciple"`
	Suggestion         string       `json:"suggestion"`
	Confidence         int          `json:"confidence"`
	Meta               AnalysisMeta `json:"meta"`
	CreatedAt          time.Time    `json:"createdAt"`
}

type Feedback struct {
	Agreed      bool      `json:"agreed"`
	WallBroken  bool      `json:"wallBroken"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Decision struct {
	ID            string
	OwnerID       string
	Statement     string
	Options       []string
	ChosenOption  string
	Tags          Tags
	Reasoning     string
	Concerns      string
	Emotion       Emotion
	Expectations  string
	ReviewPeriod  string
	ReviewDueAt   time.Time
	State         string
	Retrospective *Retrospective
	Analysis      *Analysis
	Feedback      *Feedback
	RemindedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReminderTarget is one due, never-reminded decision joined with its
// owner's contact details.
type ReminderTarget struct {
	DecisionID  string
	Statement   string
	ReviewDueAt time.Time
	Email       string
	DisplayName string
}

// Stats aggregates one owner's journal for the stats endpoint.
type Stats struct {
	Total         int
	Reviewed      int
	Positive      int
	Negative      int
	Analyzed      int
	FallbackCount int
	Agreed        int
	Disagreed     int
	ModelCounts   map[string]int
}
