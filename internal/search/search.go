package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID        string `json:"id"`
	Statement string `json:"statement"`
	Snippet   string `json:"snippet"`
	Category  string `json:"category"`
	State     string `json:"state"`
}

// Query describes a search request. OwnerID is mandatory: a search never
// crosses journal boundaries.
type Query struct {
	Text    string
	OwnerID string
	Limit   int
	Offset  int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// DecisionRecord is the data we index for a decision.
type DecisionRecord struct {
	ID           string `json:"id"`
	OwnerID      string `json:"ownerId"`
	Statement    string `json:"statement"`
	ChosenOption string `json:"chosenOption"`
	Reasoning    string `json:"reasoning"`
	Category     string `json:"category"`
	State        string `json:"state"`
}
